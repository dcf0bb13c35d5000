package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/cache"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/metrics"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRedirectURI = "https://app.example.com/callback"
	testPassword    = "correct horse battery staple"
)

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *store.Store
	redis    *miniredis.Miniredis
	clock    *testClock
	clients  *ClientService
	scopes   *ScopeService
	tokens   *TokenService
	authz    *AuthorizationService
	devices  *DeviceService
	sessions *SessionService
	users    *UserService
	grants   *GrantService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := store.New(ctx, config.DatabaseDriverSQLite, ":memory:", &config.Config{
		DefaultScopes: []string{"openid", "profile", "read", "write"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := &testClock{now: time.Now().UTC()}
	m := metrics.NewNoopMetrics()

	keys, err := token.NewKeyManager(24*time.Hour, time.Hour)
	require.NoError(t, err)

	env := &testEnv{store: db, redis: mr, clock: clock}
	env.scopes = NewScopeService(db)
	env.clients = NewClientService(db, db, db, cache.NewMemoryCache[models.Client](), time.Minute, m, nil)
	env.tokens = NewTokenService(db, db, db, 10*time.Minute, 24*time.Hour, m, nil)
	env.tokens.now = clock.Now
	env.authz = NewAuthorizationService(env.clients, env.scopes, db, 5*time.Minute, m, nil)
	env.authz.now = clock.Now
	env.devices = NewDeviceService(db, env.tokens, db, 5*time.Minute, 5*time.Second,
		"http://localhost:8080/device", m, nil)
	env.devices.now = clock.Now
	env.sessions = NewSessionService(store.NewSessionStore(rdb, "test:"), store.NewSessionStore(rdb, "test:"),
		token.NewCookieSigner(keys, "lockrs"), 5*time.Minute, 24*time.Hour, m, nil)
	env.users = NewUserService(db, m, nil)
	env.grants = NewGrantService(env.clients, env.scopes, env.authz, env.devices, env.tokens, db, m, nil)
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
		Role:     "user",
	}
	require.NoError(t, user.SetPassword(testPassword))
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

// registerClient returns the client and, for confidential clients, its secret.
func (e *testEnv) registerClient(t *testing.T, public bool, uris ...string) (*models.Client, string) {
	t.Helper()
	if len(uris) == 0 {
		uris = []string{testRedirectURI}
	}
	client, secret, err := e.clients.Register(context.Background(), RegisterClientRequest{
		UserID:       uuid.New().String(),
		Name:         "test app",
		IsPublic:     public,
		RedirectURIs: uris,
	})
	require.NoError(t, err)
	return client, secret
}

func assertKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
