package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, ok := Init(true).(*Metrics)
	require.True(t, ok, "Init(true) should return *Metrics")
	return m
}

func TestInit(t *testing.T) {
	m := testMetrics(t)
	assert.NotNil(t, m.TokensIssuedTotal)
	assert.NotNil(t, m.DevicePollsTotal)
	assert.NotNil(t, m.HTTPRequestsTotal)

	// Collectors are registered once; a second Init returns the same instance.
	assert.Same(t, m, Init(true))
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "Init(false) should return *NoopMetrics")

	// Every method is callable without registration.
	m.RecordTokenIssued("client_credentials", time.Millisecond)
	m.RecordDeviceCodeResolved("approved", time.Second)
	m.SetPendingDeviceAuthorizations(3)
}

func TestRecordTokenIssued(t *testing.T) {
	m := testMetrics(t)
	before := testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("authorization_code"))

	m.RecordTokenIssued("authorization_code", 10*time.Millisecond)

	assert.InDelta(t, before+1, testutil.ToFloat64(m.TokensIssuedTotal.WithLabelValues("authorization_code")), 0)
}

func TestRecordGrantFailure(t *testing.T) {
	m := testMetrics(t)
	counter := m.GrantFailuresTotal.WithLabelValues("refresh_token", "invalid_grant")
	before := testutil.ToFloat64(counter)

	m.RecordGrantFailure("refresh_token", "invalid_grant")
	m.RecordGrantFailure("refresh_token", "invalid_grant")

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 0)
}

func TestRecordTokenRefresh(t *testing.T) {
	m := testMetrics(t)
	success := m.TokensRefreshedTotal.WithLabelValues(resultSuccess)
	failed := m.TokensRefreshedTotal.WithLabelValues(resultError)
	s0, f0 := testutil.ToFloat64(success), testutil.ToFloat64(failed)

	m.RecordTokenRefresh(true)
	m.RecordTokenRefresh(false)

	assert.InDelta(t, s0+1, testutil.ToFloat64(success), 0)
	assert.InDelta(t, f0+1, testutil.ToFloat64(failed), 0)
}

func TestRecordDeviceFlow(t *testing.T) {
	m := testMetrics(t)
	m.SetPendingDeviceAuthorizations(0)

	m.RecordDeviceCodeGenerated(true)
	m.RecordDeviceCodeGenerated(true)
	m.RecordDeviceCodeGenerated(false)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DeviceCodesPendingAuthorization), 0)

	m.RecordDeviceCodeResolved("approved", 30*time.Second)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DeviceCodesPendingAuthorization), 0)

	slow := m.DevicePollsTotal.WithLabelValues("slow_down")
	before := testutil.ToFloat64(slow)
	m.RecordDevicePoll("slow_down")
	assert.InDelta(t, before+1, testutil.ToFloat64(slow), 0)
}

func TestRecordSessions(t *testing.T) {
	m := testMetrics(t)
	created := testutil.ToFloat64(m.SessionsCreatedTotal)
	deleted := testutil.ToFloat64(m.SessionsDeletedTotal)

	m.RecordSessionTokenExchange(true)
	m.RecordSessionCreated()
	m.RecordSessionDeleted()

	assert.InDelta(t, created+1, testutil.ToFloat64(m.SessionsCreatedTotal), 0)
	assert.InDelta(t, deleted+1, testutil.ToFloat64(m.SessionsDeletedTotal), 0)
}

func TestRecordKeyRotation(t *testing.T) {
	m := testMetrics(t)
	before := testutil.ToFloat64(m.KeyRotationsTotal)

	m.RecordKeyRotation()

	assert.InDelta(t, before+1, testutil.ToFloat64(m.KeyRotationsTotal), 0)
}

func TestSetActiveTokensCount(t *testing.T) {
	m := testMetrics(t)

	m.SetActiveTokensCount("access", 100)
	m.SetActiveTokensCount("refresh", 50)

	assert.InDelta(t, 100, testutil.ToFloat64(m.TokensActive.WithLabelValues("access")), 0)
	assert.InDelta(t, 50, testutil.ToFloat64(m.TokensActive.WithLabelValues("refresh")), 0)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := testMetrics(t)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(m))
	r.GET("/api/clients/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	counter := m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/clients/:id", "204")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clients/abc", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.InDelta(t, before+1, testutil.ToFloat64(counter), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.HTTPRequestsInFlight), 0)
}

func TestHTTPMetricsMiddleware_Noop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		fullPath string
		expected string
	}{
		{"empty path", "", "unknown"},
		{"root path", "/", "/"},
		{"health check", "/health", "/health"},
		{"token endpoint", "/oauth/token", "/oauth/token"},
		{"parameterized", "/api/clients/:id", "/api/clients/:id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizePath(tt.fullPath)
			assert.Equal(t, tt.expected, result)
		})
	}
}
