package bootstrap

import (
	"fmt"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login      gin.HandlerFunc
	token      gin.HandlerFunc
	deviceCode gin.HandlerFunc
	session    gin.HandlerFunc
}

func noOpMiddleware(c *gin.Context) { c.Next() }

// setupRateLimiting configures rate limiting middlewares based on configuration
func setupRateLimiting(
	cfg *config.Config,
	auditService *services.AuditService,
	redisClient redis.UniversalClient,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		zap.L().Info("rate limiting disabled")
		return rateLimitMiddlewares{
			login:      noOpMiddleware,
			token:      noOpMiddleware,
			deviceCode: noOpMiddleware,
			session:    noOpMiddleware,
		}, nil
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	zap.L().Info("rate limiting enabled", zap.String("store", cfg.RateLimitStore))

	var limiters rateLimitMiddlewares
	for _, l := range []struct {
		target *gin.HandlerFunc
		name   string
		limit  int
	}{
		{&limiters.login, "login", cfg.LoginRateLimit},
		{&limiters.token, "token", cfg.TokenRateLimit},
		{&limiters.deviceCode, "device_code", cfg.DeviceCodeRateLimit},
		{&limiters.session, "session", cfg.SessionRateLimit},
	} {
		handler, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: l.limit,
			StoreType:         storeType,
			RedisClient:       redisClient,
			Prefix:            cfg.RedisKeyPrefix + "ratelimit:" + l.name,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			AuditService:      auditService,
		})
		if err != nil {
			return rateLimitMiddlewares{}, fmt.Errorf("failed to create %s rate limiter: %w", l.name, err)
		}
		*l.target = handler
	}
	return limiters, nil
}
