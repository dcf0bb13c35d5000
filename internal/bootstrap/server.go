package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/metrics"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			zap.L().Fatal("failed to start server", zap.Error(err))
			return err
		case <-ctx.Done():
			return nil
		}
	})
}

// shutdownStep is one named teardown action.
type shutdownStep struct {
	name string
	fn   func(ctx context.Context) error
}

// addShutdownSequence registers a single shutdown job that runs steps in
// order. A failing step is logged and the rest still run.
func addShutdownSequence(m *graceful.Manager, steps ...shutdownStep) {
	m.AddShutdownJob(func() error {
		var errs []error
		for _, step := range steps {
			if step.fn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := step.fn(ctx)
			cancel()
			if err != nil {
				zap.L().Error("shutdown step failed", zap.String("step", step.name), zap.Error(err))
				errs = append(errs, err)
				continue
			}
			zap.L().Info("shutdown step done", zap.String("step", step.name))
		}
		return errors.Join(errs...)
	})
}

func serverShutdownStep(srv *http.Server) shutdownStep {
	return shutdownStep{name: "http server", fn: srv.Shutdown}
}

func auditShutdownStep(auditService *services.AuditService) shutdownStep {
	return shutdownStep{name: "audit service", fn: auditService.Shutdown}
}

func cacheShutdownStep(closers []func() error) shutdownStep {
	return shutdownStep{name: "caches", fn: func(context.Context) error {
		var errs []error
		for _, closeFn := range closers {
			if closeFn == nil {
				continue
			}
			errs = append(errs, closeFn())
		}
		return errors.Join(errs...)
	}}
}

func redisShutdownStep(client redis.UniversalClient) shutdownStep {
	if client == nil {
		return shutdownStep{name: "redis"}
	}
	return shutdownStep{name: "redis", fn: func(context.Context) error {
		return client.Close()
	}}
}

func databaseShutdownStep(db *store.Store) shutdownStep {
	return shutdownStep{name: "database", fn: func(context.Context) error {
		return db.Close()
	}}
}

// runPeriodically calls fn immediately and then on every tick until ctx ends.
func runPeriodically(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// addExpiredCredentialSweepJob removes expired tokens, codes and device
// authorizations on SweepInterval.
func addExpiredCredentialSweepJob(m *graceful.Manager, cfg *config.Config, svc serviceSet) {
	if cfg.SweepInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, cfg.SweepInterval, func(ctx context.Context) {
			sweepExpiredCredentials(ctx, svc)
		})
		return nil
	})
}

type expiredSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func sweepExpiredCredentials(ctx context.Context, svc serviceSet) map[string]int64 {
	removed := make(map[string]int64, 3)
	for name, sweeper := range map[string]expiredSweeper{
		"tokens":                svc.token,
		"authorization_codes":   svc.authorization,
		"device_authorizations": svc.device,
	} {
		n, err := sweeper.DeleteExpired(ctx)
		if err != nil {
			zap.L().Error("expired credential sweep failed", zap.String("kind", name), zap.Error(err))
			continue
		}
		removed[name] = n
		if n > 0 {
			zap.L().Info("removed expired credentials", zap.String("kind", name), zap.Int64("count", n))
		}
	}
	return removed
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, 24*time.Hour, func(ctx context.Context) {
			deleted, err := auditService.CleanupOldLogs(ctx, cfg.AuditLogRetention)
			if err != nil {
				zap.L().Error("failed to clean up old audit logs", zap.Error(err))
				return
			}
			if deleted > 0 {
				zap.L().Info("cleaned up old audit logs", zap.Int64("count", deleted))
			}
		})
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db core.MetricsStore,
	recorder core.Recorder,
	metricsCache core.Cache[int64],
) {
	if !cfg.MetricsEnabled || metricsCache == nil || cfg.MetricsGaugeUpdateInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)
		runPeriodically(ctx, cfg.MetricsGaugeUpdateInterval, func(ctx context.Context) {
			updateGaugeMetricsWithCache(ctx, cacheWrapper, recorder, cfg.MetricsGaugeUpdateInterval)
		})
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]
	if exists && now.Sub(lastTime) < e.rateLimitWindow {
		return false
	}

	zap.L().Error("database query failed",
		zap.String("operation", operation),
		zap.Error(err),
		zap.Duration("suppressed_for", e.rateLimitWindow),
	)
	e.lastErrorTimes[operation] = now
	return true
}

var gaugeErrorLogger = newErrorLogger()

// updateGaugeMetricsWithCache updates gauge metrics through the count cache
// so that several instances share one database query per interval.
func updateGaugeMetricsWithCache(
	ctx context.Context,
	cacheWrapper *metrics.CacheWrapper,
	m core.Recorder,
	cacheTTL time.Duration,
) {
	for _, tokenType := range []string{"access", "refresh"} {
		count, err := cacheWrapper.GetActiveTokensCount(ctx, tokenType, cacheTTL)
		if err != nil {
			operation := "count_" + tokenType + "_tokens"
			m.RecordDatabaseQueryError(operation)
			gaugeErrorLogger.logIfNeeded(operation, err)
			continue
		}
		m.SetActiveTokensCount(tokenType, int(count))
	}

	pending, err := cacheWrapper.GetPendingDeviceAuthorizationsCount(ctx, cacheTTL)
	if err != nil {
		m.RecordDatabaseQueryError("count_pending_device_authorizations")
		gaugeErrorLogger.logIfNeeded("count_pending_device_authorizations", err)
		return
	}
	m.SetPendingDeviceAuthorizations(int(pending))
}
