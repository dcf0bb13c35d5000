package metrics

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
)

// CacheWrapper provides a read-through cache for gauge counts, so several
// instances sharing a Redis cache do not all hit the database every tick.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
	now   func() time.Time
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// GetActiveTokensCount retrieves the count of active tokens of tokenType
// ("access" or "refresh").
func (m *CacheWrapper) GetActiveTokensCount(
	ctx context.Context,
	tokenType string,
	ttl time.Duration,
) (int64, error) {
	count := m.store.CountActiveAccessTokens
	if tokenType == "refresh" {
		count = m.store.CountActiveRefreshTokens
	}
	return m.getCountWithCache(ctx, "tokens:"+tokenType, ttl, count)
}

// GetPendingDeviceAuthorizationsCount retrieves the count of unexpired,
// unresolved device authorizations.
func (m *CacheWrapper) GetPendingDeviceAuthorizationsCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(ctx, "devices:pending", ttl, m.store.CountPendingDeviceAuthorizations)
}

func (m *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	count func(ctx context.Context, now time.Time) (int64, error),
) (int64, error) {
	return m.cache.GetOrLoad(
		ctx,
		key,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return count(ctx, m.now().UTC())
		},
	)
}
