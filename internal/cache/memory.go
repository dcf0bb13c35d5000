package cache

import (
	"context"
	"sync"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
)

var _ core.Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// sweepEvery is the number of writes between passes that drop expired
// entries, so keys that are never read again do not pile up.
const sweepEvery = 256

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryCache keeps entries in process. Only suitable for one instance since
// invalidations are not seen by other replicas.
type MemoryCache[T any] struct {
	mu     sync.RWMutex
	items  map[string]entry[T]
	writes int
	now    func() time.Time
	loader loader[T]
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithMemoryClock replaces time.Now, for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

func NewMemoryCache[T any](opts ...MemoryOption) *MemoryCache[T] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryCache[T]{
		items: make(map[string]entry[T]),
		now:   o.now,
	}
}

func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	if !ok || !m.now().Before(e.expiresAt) {
		var zero T
		return zero, ErrMiss
	}
	return e.value, nil
}

func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.items[key] = entry[T]{value: value, expiresAt: now.Add(ttl)}

	m.writes++
	if m.writes >= sweepEvery {
		m.writes = 0
		m.sweepLocked(now)
	}
	return nil
}

func (m *MemoryCache[T]) sweepLocked(now time.Time) {
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
		}
	}
}

func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.loader.invalidate(key)
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryCache[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryCache[T]) GetOrLoad(
	ctx context.Context,
	key string,
	ttl time.Duration,
	load core.Loader[T],
) (T, error) {
	return m.loader.getOrLoad(ctx, m, key, ttl, load)
}

// Health always succeeds.
func (m *MemoryCache[T]) Health(context.Context) error { return nil }

// Close drops every entry.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	m.items = make(map[string]entry[T])
	m.mu.Unlock()
	return nil
}
