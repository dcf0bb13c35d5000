package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, "test:"), mr
}

func TestSessionStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestSessionStore(t)

	session := &models.Session{
		ID:        "sid-1",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateSession(ctx, session))
	assert.True(t, mr.Exists("test:session:user-1"))

	got, err := s.GetSession(ctx, "user-1", "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "sid-1", got.ID)

	// A session id from another login does not match.
	_, err = s.GetSession(ctx, "user-1", "sid-2")
	assert.ErrorIs(t, err, ErrNotFound)

	// Creating again replaces the previous session.
	replacement := *session
	replacement.ID = "sid-2"
	require.NoError(t, s.CreateSession(ctx, &replacement))
	_, err = s.GetSession(ctx, "user-1", "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)

	replacement.ExpiresAt = time.Now().Add(2 * time.Hour)
	require.NoError(t, s.UpdateSession(ctx, &replacement))
	assert.Greater(t, mr.TTL("test:session:user-1"), time.Hour)

	require.NoError(t, s.DeleteSessionByUser(ctx, "user-1"))
	assert.ErrorIs(t, s.DeleteSessionByUser(ctx, "user-1"), ErrNotFound)
	assert.ErrorIs(t, s.UpdateSession(ctx, &replacement), ErrNotFound)
}

func TestSessionStore_UpdateSupersededSession(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestSessionStore(t)

	old := &models.Session{ID: "sid-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateSession(ctx, old))
	newer := &models.Session{ID: "sid-2", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateSession(ctx, newer))

	stale := *old
	stale.ExpiresAt = time.Now().Add(3 * time.Hour)
	assert.ErrorIs(t, s.UpdateSession(ctx, &stale), ErrNotFound)

	got, err := s.GetSession(ctx, "user-1", "sid-2")
	require.NoError(t, err)
	assert.Equal(t, "sid-2", got.ID)
	assert.LessOrEqual(t, mr.TTL("test:session:user-1"), time.Hour)
}

func TestSessionStore_SessionExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestSessionStore(t)

	require.NoError(t, s.CreateSession(ctx, &models.Session{
		ID:        "sid",
		UserID:    "user",
		ExpiresAt: time.Now().Add(time.Minute),
	}))
	mr.FastForward(2 * time.Minute)

	_, err := s.GetSession(ctx, "user", "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_ConsumeSessionTokenOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(t)

	require.NoError(t, s.CreateSessionToken(ctx, &models.SessionToken{
		TokenHash: "hash",
		UserID:    "user",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}))

	var (
		mu   sync.Mutex
		wins int
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if token, err := s.ConsumeSessionToken(ctx, "hash"); err == nil {
				assert.Equal(t, "user", token.UserID)
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	_, err := s.ConsumeSessionToken(ctx, "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_RejectsExpiredInput(t *testing.T) {
	s, _ := newTestSessionStore(t)

	err := s.CreateSessionToken(context.Background(), &models.SessionToken{
		TokenHash: "hash",
		UserID:    "user",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	assert.ErrorIs(t, err, ErrNotCreated)
}

func TestSessionStore_Health(t *testing.T) {
	s, mr := newTestSessionStore(t)
	require.NoError(t, s.Health(context.Background()))

	mr.Close()
	assert.Error(t, s.Health(context.Background()))
}
