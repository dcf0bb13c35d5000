package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// initializeDatabase opens the database, retrying with exponential backoff
// until DBConnectTries attempts or DBInitTimeout is exhausted.
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := backoff.Retry(ctx,
		func() (*store.Store, error) {
			return store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, cfg)
		},
		retryOptions(cfg.DBConnectTries, "database")...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	zap.L().Info("database ready", zap.String("driver", cfg.DatabaseDriver))
	return db, nil
}

func retryOptions(tries int, target string) []backoff.RetryOption {
	if tries < 1 {
		tries = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(tries)), // #nosec G115 -- tries is clamped to >= 1
		backoff.WithNotify(func(err error, next time.Duration) {
			zap.L().Warn("connection attempt failed, retrying",
				zap.String("target", target),
				zap.Duration("next_attempt_in", next),
				zap.Error(err),
			)
		}),
	}
}
