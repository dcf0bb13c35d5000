package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/cache"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/metrics"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"go.uber.org/zap"
)

const cacheInitTimeout = 5 * time.Second

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) core.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		zap.L().Info("prometheus metrics initialized")
	} else {
		zap.L().Info("metrics disabled, using noop recorder")
	}
	return recorder
}

// newCache builds a memory or Redis backed cache for T.
func newCache[T any](
	ctx context.Context,
	cfg *config.Config,
	cacheType, name string,
) (core.Cache[T], func() error, error) {
	if cacheType != config.CacheTypeRedis {
		c := cache.NewMemoryCache[T]()
		zap.L().Info("cache initialized", zap.String("cache", name), zap.String("type", "memory"))
		return c, c.Close, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cacheInitTimeout)
	defer cancel()

	c, err := cache.NewRueidisCache[T](ctx, cache.RueidisOptions{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.RedisKeyPrefix + name + ":",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis %s cache: %w", name, err)
	}
	zap.L().Info("cache initialized",
		zap.String("cache", name),
		zap.String("type", "redis"),
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
	)
	return c, c.Close, nil
}

// initializeClientCache initializes the client cache (always enabled, defaults to memory)
func initializeClientCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[models.Client], func() error, error) {
	return newCache[models.Client](ctx, cfg, cfg.ClientCacheType, "clients")
}

// initializeMetricsCache initializes the gauge count cache. It shares the
// client cache backend and is skipped when metrics are disabled.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (core.Cache[int64], func() error, error) {
	if !cfg.MetricsEnabled {
		return nil, nil, nil
	}
	return newCache[int64](ctx, cfg, cfg.ClientCacheType, "metrics")
}
