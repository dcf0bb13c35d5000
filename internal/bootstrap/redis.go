package bootstrap

import (
	"context"
	"fmt"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// initializeRedisClient creates the go-redis client shared by the session
// store and the Redis rate limit store. Rate limiting must use go-redis
// because ulule/limiter depends on go-redis types.
func initializeRedisClient(ctx context.Context, cfg *config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
	defer cancel()

	_, err := backoff.Retry(ctx,
		func() (string, error) {
			return client.Ping(ctx).Result()
		},
		retryOptions(cfg.DBConnectTries, "redis")...,
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	zap.L().Info("redis client initialized",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
	)
	return client, nil
}
