package bootstrap

import (
	"context"
	"net/http"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	// Core infrastructure
	DB              *store.Store
	Redis           redis.UniversalClient
	SessionStore    *store.SessionStore
	ClientCache     core.Cache[models.Client]
	MetricsRecorder core.Recorder
	MetricsCache    core.Cache[int64]
	Keys            *token.KeyManager
	cacheClosers    []func() error

	// Services
	Services serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Logging and configuration
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	app.Logger = logger
	defer func() { _ = logger.Sync() }()

	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	ctx := context.Background()
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, Redis, caches and metrics
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.Redis, err = initializeRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}
	app.SessionStore = store.NewSessionStore(app.Redis, app.Config.RedisKeyPrefix)

	app.MetricsRecorder = initializeMetrics(app.Config)

	var closer func() error
	app.ClientCache, closer, err = initializeClientCache(ctx, app.Config)
	if err != nil {
		return err
	}
	app.cacheClosers = append(app.cacheClosers, closer)

	app.MetricsCache, closer, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}
	if closer != nil {
		app.cacheClosers = append(app.cacheClosers, closer)
	}

	app.Keys, err = initializeKeyManager(app.Config, app.MetricsRecorder)
	return err
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() error {
	app.Services = initializeServices(
		app.Config,
		app.DB,
		app.SessionStore,
		app.ClientCache,
		app.Keys,
		app.MetricsRecorder,
	)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.Config, app.Services, map[string]healthCheck{
		"database": app.DB.Health,
		"redis":    app.SessionStore.Health,
	})

	var err error
	app.Router, err = setupRouter(
		app.Config,
		app.Logger,
		app.HandlerSet,
		app.Services,
		app.MetricsRecorder,
		app.Redis,
	)
	if err != nil {
		return err
	}

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown.
// Teardown runs as one ordered job so pending audit entries reach the
// database before it closes.
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addExpiredCredentialSweepJob(m, app.Config, app.Services)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addAuditLogCleanupJob(m, app.Config, app.Services.audit)

	addShutdownSequence(m,
		serverShutdownStep(app.Server),
		auditShutdownStep(app.Services.audit),
		cacheShutdownStep(app.cacheClosers),
		redisShutdownStep(app.Redis),
		databaseShutdownStep(app.DB),
	)

	<-m.Done()
}
