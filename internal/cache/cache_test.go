package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache[testClient](WithMemoryClock(clock.Now))
	ctx := context.Background()

	_, err := c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "abc", testClient{ID: "abc", Name: "CLI"}, time.Minute))
	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "CLI", got.Name)

	clock.Advance(59 * time.Second)
	_, err = c.Get(ctx, "abc")
	assert.NoError(t, err)

	clock.Advance(time.Second)
	_, err = c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss, "entry is gone exactly at its expiry")
}

func TestMemoryCache_DeleteAndClose(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	require.NoError(t, c.Delete(ctx, "a"))
	require.NoError(t, c.Delete(ctx, "missing"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Len())
	assert.NoError(t, c.Health(ctx))
}

func TestMemoryCache_SweepsExpiredEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache[int64](WithMemoryClock(clock.Now))
	ctx := context.Background()

	for i := range sweepEvery - 1 {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("client-%d", i), int64(i), time.Second))
	}
	assert.Equal(t, sweepEvery-1, c.Len())

	clock.Advance(time.Minute)
	require.NoError(t, c.Set(ctx, "fresh", 1, time.Minute))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_GetOrLoad(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()
	calls := 0
	load := func(ctx context.Context, key string) (int64, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		v, err := c.GetOrLoad(ctx, "count", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	}
	assert.Equal(t, 1, calls)
}

func TestMemoryCache_GetOrLoad_ErrorNotCached(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()
	errDB := errors.New("db down")

	_, err := c.GetOrLoad(ctx, "count", time.Minute, func(context.Context, string) (int64, error) {
		return 0, errDB
	})
	assert.ErrorIs(t, err, errDB)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrLoad(ctx, "count", time.Minute, func(context.Context, string) (int64, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestMemoryCache_GetOrLoad_SharesConcurrentLoads(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()
	var loads atomic.Int32
	release := make(chan struct{})

	load := func(context.Context, string) (int64, error) {
		loads.Add(1)
		<-release
		return 99, nil
	}

	var wg sync.WaitGroup
	results := make([]int64, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(ctx, "shared", time.Minute, load)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	assert.Eventually(t, func() bool { return loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, int64(99), v)
	}
	assert.Less(t, loads.Load(), int32(len(results)))
}

func TestMemoryCache_GetOrLoad_CallerCancelDoesNotAbortLoad(t *testing.T) {
	c := NewMemoryCache[int64]()
	release := make(chan struct{})
	var sawCancel atomic.Bool

	load := func(ctx context.Context, _ string) (int64, error) {
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return 5, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(ctx, "k", time.Minute, load)
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		v, err := c.Get(context.Background(), "k")
		return err == nil && v == 5
	}, time.Second, time.Millisecond)
	assert.False(t, sawCancel.Load())
}

func TestMemoryCache_DeleteDuringLoad(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[testClient]()
	started := make(chan struct{})
	release := make(chan struct{})

	stale := func(context.Context, string) (testClient, error) {
		close(started)
		<-release
		return testClient{ID: "c1", RedirectURIs: []string{"https://old.example.com/cb"}}, nil
	}

	done := make(chan testClient, 1)
	go func() {
		v, err := c.GetOrLoad(ctx, "c1", time.Minute, stale)
		assert.NoError(t, err)
		done <- v
	}()
	<-started
	require.NoError(t, c.Delete(ctx, "c1"))

	fresh := testClient{ID: "c1", RedirectURIs: []string{"https://new.example.com/cb"}}
	got, err := c.GetOrLoad(ctx, "c1", time.Minute, func(context.Context, string) (testClient, error) {
		return fresh, nil
	})
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	close(release)
	<-done

	cached, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)
}

func TestMemoryCache_DeleteDuringLoadLeavesMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int64]()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.GetOrLoad(ctx, "k", time.Minute, func(context.Context, string) (int64, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started
	require.NoError(t, c.Delete(ctx, "k"))
	close(release)
	<-done

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func newRueidis(t *testing.T, mr *miniredis.Miniredis, prefix string) *RueidisCache[testClient] {
	t.Helper()
	c, err := NewRueidisCache[testClient](context.Background(), RueidisOptions{
		Addr:      mr.Addr(),
		KeyPrefix: prefix,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRueidisCache_GetSetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newRueidis(t, mr, "lockrs:clients:")
	ctx := context.Background()

	_, err := c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss)

	want := testClient{ID: "abc", Name: "CLI", RedirectURIs: []string{"http://localhost/cb"}}
	require.NoError(t, c.Set(ctx, "abc", want, time.Minute))
	assert.True(t, mr.Exists("lockrs:clients:abc"))
	assert.Equal(t, time.Minute, mr.TTL("lockrs:clients:abc"))

	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "abc"))
	_, err = c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Health(ctx))
}

func TestRueidisCache_SharedBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newRueidis(t, mr, "lockrs:clients:")
	b := newRueidis(t, mr, "lockrs:clients:")
	other := newRueidis(t, mr, "other:")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "abc", testClient{ID: "abc"}, time.Minute))
	got, err := b.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)

	_, err = other.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, b.Delete(ctx, "abc"))
	_, err = a.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss, "invalidation is visible to every instance")
}

func TestRueidisCache_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newRueidis(t, mr, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc", testClient{ID: "abc"}, time.Minute))
	mr.FastForward(time.Minute)
	_, err := c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRueidisCache_DecodeError(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newRueidis(t, mr, "")

	require.NoError(t, mr.Set("broken", "{not json"))
	_, err := c.Get(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRueidisCache_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newRueidis(t, mr, "")
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorIs(t, c.Health(ctx), ErrBackend)
}

func TestRueidisCache_GetOrLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newRueidis(t, mr, "")
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context, key string) (testClient, error) {
		calls++
		return testClient{ID: key}, nil
	}
	for range 3 {
		got, err := c.GetOrLoad(ctx, "id-1", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "id-1", got.ID)
	}
	assert.Equal(t, 1, calls)
}

func TestNewRueidisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRueidisCache[int64](ctx, RueidisOptions{Addr: addr})
	assert.Error(t, err)
}
