package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimitStoreType defines the type of rate limit store
type RateLimitStoreType string

const (
	// RateLimitStoreMemory keeps counters in process (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis shares counters across instances through Redis
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

var errMissingRedisClient = errors.New("redis rate limit store requires a redis client")

// RateLimitConfig configures one rate limited endpoint group.
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration // memory store only
	StoreType         RateLimitStoreType

	// Shared client for the redis store. The caller owns its lifecycle.
	RedisClient redis.UniversalClient
	// Prefix separates counters of different endpoint groups sharing one Redis.
	Prefix string

	AuditService *services.AuditService
}

// NewRateLimiter creates a per-IP rate limiter backed by memory or Redis.
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	if config.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", config.RequestsPerMinute)
	}

	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	var store limiter.Store
	switch config.StoreType {
	case RateLimitStoreRedis:
		if config.RedisClient == nil {
			return nil, errMissingRedisClient
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(config.RedisClient, limiter.StoreOptions{
			Prefix: prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
	default:
		cleanup := config.CleanupInterval
		if cleanup <= 0 {
			cleanup = limiter.DefaultCleanUpInterval
		}
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: cleanup,
		})
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			config.AuditService.Log(c.Request.Context(), services.AuditLogEntry{
				EventType:    models.EventRateLimitExceeded,
				Severity:     models.SeverityWarning,
				ActorIP:      c.ClientIP(),
				ResourceName: c.FullPath(),
				Action:       "rate limit exceeded",
				Details: models.AuditDetails{
					"method": c.Request.Method,
					"limit":  config.RequestsPerMinute,
				},
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "rate_limit_exceeded",
				"error_description": "Too many requests. Please try again later.",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Store failures let the request through.
			zap.L().Error("rate limiter store failed", zap.Error(err))
			c.Next()
		}),
	), nil
}

// NewMemoryRateLimiter creates an in-memory rate limiter (single instance)
func NewMemoryRateLimiter(requestsPerMinute int) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		StoreType:         RateLimitStoreMemory,
		CleanupInterval:   5 * time.Minute,
	})
}
