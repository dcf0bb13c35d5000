package cache

import (
	"context"
	"sync"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"

	"golang.org/x/sync/singleflight"
)

// loader collapses concurrent misses on one key into a single load. The load
// runs without the first caller's cancellation, so a disconnecting client
// does not fail the others waiting on the same key.
//
// A Delete bumps the generation; a load that started before it does not write
// its result back, so an invalidated value cannot return through a fill.
type loader[T any] struct {
	group      singleflight.Group
	mu         sync.Mutex
	generation uint64
}

// invalidate must run before the backend delete.
func (l *loader[T]) invalidate(key string) {
	l.mu.Lock()
	l.generation++
	l.mu.Unlock()
	l.group.Forget(key)
}

func (l *loader[T]) fill(ctx context.Context, c core.Cache[T], key string, value T, ttl time.Duration, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation != gen {
		return
	}
	// A failed write only costs a later reload.
	_ = c.Set(ctx, key, value, ttl)
}

func (l *loader[T]) getOrLoad(
	ctx context.Context,
	c core.Cache[T],
	key string,
	ttl time.Duration,
	load core.Loader[T],
) (T, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		l.mu.Lock()
		gen := l.generation
		l.mu.Unlock()

		loadCtx := context.WithoutCancel(ctx)
		value, err := load(loadCtx, key)
		if err != nil {
			return nil, err
		}
		l.fill(loadCtx, c, key, value, ttl, gen)
		return value, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
