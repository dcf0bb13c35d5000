package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/cache"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/metrics"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	testRedirectURI = "https://app.example.com/callback"
	testPassword    = "correct horse battery staple"
)

type testServer struct {
	router   *gin.Engine
	store    *store.Store
	clients  *services.ClientService
	sessions *services.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := store.New(ctx, config.DatabaseDriverSQLite, ":memory:", &config.Config{
		DefaultScopes: []string{"openid", "profile", "read", "write"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessionStore := store.NewSessionStore(rdb, "test:")

	keys, err := token.NewKeyManager(24*time.Hour, time.Hour)
	require.NoError(t, err)

	m := metrics.NewNoopMetrics()
	scopes := services.NewScopeService(db)
	clients := services.NewClientService(db, db, db, cache.NewMemoryCache[models.Client](), time.Minute, m, nil)
	tokens := services.NewTokenService(db, db, db, 10*time.Minute, 24*time.Hour, m, nil)
	authz := services.NewAuthorizationService(clients, scopes, db, 5*time.Minute, m, nil)
	devices := services.NewDeviceService(db, tokens, db, 5*time.Minute, 5*time.Second,
		"http://localhost:8080/device", m, nil)
	sessions := services.NewSessionService(sessionStore, sessionStore,
		token.NewCookieSigner(keys, "lockrs"), 5*time.Minute, 24*time.Hour, m, nil)
	users := services.NewUserService(db, m, nil)
	grants := services.NewGrantService(clients, scopes, authz, devices, tokens, db, m, nil)

	tokenHandler := NewTokenHandler(grants, tokens, clients)
	authzHandler := NewAuthorizationHandler(authz)
	deviceHandler := NewDeviceHandler(devices, clients, scopes)
	sessionHandler := NewSessionHandler(users, sessions, false)
	clientHandler := NewClientHandler(clients)
	healthHandler := NewHealthHandler(map[string]HealthCheck{
		"database": db.Health,
		"redis":    sessionStore.Health,
	})

	r := gin.New()
	r.GET("/health", healthHandler.Health)

	oauth := r.Group("/oauth")
	oauth.POST("/token", tokenHandler.Token)
	oauth.POST("/revoke", tokenHandler.Revoke)
	oauth.POST("/introspect", tokenHandler.Introspect)
	oauth.POST("/device_authorization", deviceHandler.DeviceAuthorization)
	oauth.GET("/authorize", middleware.RequireSession(sessions), authzHandler.Authorize)

	api := r.Group("/api")
	api.POST("/login", sessionHandler.Login)
	api.POST("/sessions", sessionHandler.CreateSession)

	authed := api.Group("", middleware.RequireSession(sessions))
	authed.GET("/sessions", sessionHandler.GetSession)
	authed.PUT("/sessions", sessionHandler.RefreshSession)
	authed.DELETE("/sessions", sessionHandler.DeleteSession)
	authed.GET("/device", deviceHandler.Lookup)
	authed.POST("/device/approve", deviceHandler.Approve)
	authed.POST("/device/deny", deviceHandler.Deny)
	authed.POST("/clients", clientHandler.Register)
	authed.GET("/clients", clientHandler.List)
	authed.GET("/clients/:id", clientHandler.Get)
	authed.PUT("/clients/:id", clientHandler.Update)
	authed.DELETE("/clients/:id", clientHandler.Delete)
	authed.POST("/clients/:id/redirect_uris", clientHandler.AddRedirectURI)
	authed.DELETE("/clients/:id/redirect_uris/:uri_id", clientHandler.RemoveRedirectURI)

	return &testServer{router: r, store: db, clients: clients, sessions: sessions}
}

func (s *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) sendJSON(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, cookies...)
}

func (s *testServer) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
		Role:     "user",
	}
	require.NoError(t, user.SetPassword(testPassword))
	require.NoError(t, s.store.CreateUser(context.Background(), user))
	return user
}

// signIn logs in through the HTTP API and returns the session cookie.
func (s *testServer) signIn(t *testing.T, username string) *http.Cookie {
	t.Helper()
	w := s.sendJSON(http.MethodPost, "/api/login",
		`{"username":"`+username+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		SessionToken string `json:"session_token"`
	}
	decode(t, w, &login)

	w = s.sendJSON(http.MethodPost, "/api/sessions", `{"session_token":"`+login.SessionToken+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (s *testServer) registerClient(t *testing.T, public bool) (*models.Client, string) {
	t.Helper()
	client, secret, err := s.clients.Register(context.Background(), services.RegisterClientRequest{
		UserID:       uuid.New().String(),
		Name:         "test app",
		IsPublic:     public,
		RedirectURIs: []string{testRedirectURI},
	})
	require.NoError(t, err)
	return client, secret
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type oauthErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body oauthErrorBody
	decode(t, w, &body)
	return body.Error
}

func httpFormRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
