package bootstrap

import (
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/metrics"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	h handlerSet,
	svc serviceSet,
	recorder core.Recorder,
	redisClient redis.UniversalClient,
) (*gin.Engine, error) {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	r.Use(util.IPMiddleware())

	r.GET("/health", h.health.Health)
	setupMetricsEndpoint(r, cfg)

	rateLimiters, err := setupRateLimiting(cfg, svc.audit, redisClient)
	if err != nil {
		return nil, err
	}

	setupAllRoutes(r, h, svc.session, rateLimiters)
	return r, nil
}

func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		zap.L().Info("prometheus metrics endpoint disabled")
	case cfg.MetricsToken != "":
		zap.L().Info("prometheus metrics enabled at /metrics with bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		zap.L().Info("prometheus metrics enabled at /metrics without authentication")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	sessions middleware.SessionVerifier,
	rl rateLimitMiddlewares,
) {
	requireSession := middleware.RequireSession(sessions)

	// OAuth protocol endpoints
	oauth := r.Group("/oauth")
	{
		oauth.POST("/token", rl.token, h.token.Token)
		oauth.POST("/revoke", rl.token, h.token.Revoke)
		oauth.POST("/introspect", rl.token, h.token.Introspect)
		oauth.POST("/device_authorization", rl.deviceCode, h.device.DeviceAuthorization)
		oauth.GET("/authorize", requireSession, h.authorization.Authorize)
	}

	api := r.Group("/api")
	{
		api.POST("/login", rl.login, h.session.Login)
		api.POST("/sessions", rl.session, h.session.CreateSession)
	}

	// Routes that need a signed-in user
	authed := api.Group("", requireSession)
	{
		authed.GET("/sessions", h.session.GetSession)
		authed.PUT("/sessions", rl.session, h.session.RefreshSession)
		authed.DELETE("/sessions", h.session.DeleteSession)

		authed.GET("/device", h.device.Lookup)
		authed.POST("/device/approve", h.device.Approve)
		authed.POST("/device/deny", h.device.Deny)

		authed.POST("/clients", h.client.Register)
		authed.GET("/clients", h.client.List)
		authed.GET("/clients/:id", h.client.Get)
		authed.PUT("/clients/:id", h.client.Update)
		authed.DELETE("/clients/:id", h.client.Delete)
		authed.POST("/clients/:id/redirect_uris", h.client.AddRedirectURI)
		authed.DELETE("/clients/:id/redirect_uris/:uri_id", h.client.RemoveRedirectURI)
	}
}
