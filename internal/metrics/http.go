package metrics

import (
	"strconv"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		// NoopMetrics or an unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath returns the route pattern (e.g., "/api/clients/:id"), or
// "unknown" for unmatched requests so raw paths never become label values.
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

func result(success bool, failure string) string {
	if success {
		return resultSuccess
	}
	return failure
}

// RecordTokenIssued records a successful token request
func (m *Metrics) RecordTokenIssued(grantType string, duration time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(grantType).Inc()
	m.TokensActive.WithLabelValues("access").Inc()
	m.TokensActive.WithLabelValues("refresh").Inc()
	m.TokenGenerationDuration.WithLabelValues(grantType).Observe(duration.Seconds())
}

// RecordGrantFailure records a failed token request by error kind
func (m *Metrics) RecordGrantFailure(grantType, reason string) {
	m.GrantFailuresTotal.WithLabelValues(grantType, reason).Inc()
}

// RecordTokenRefresh records token refresh attempt
func (m *Metrics) RecordTokenRefresh(success bool) {
	m.TokensRefreshedTotal.WithLabelValues(result(success, resultError)).Inc()
}

// RecordTokenRevoked records token revocation
func (m *Metrics) RecordTokenRevoked() {
	m.TokensRevokedTotal.Inc()
}

func (m *Metrics) RecordAuthorizationCodeIssued() {
	m.AuthorizationCodesIssuedTotal.Inc()
}

// RecordAuthorizationCodeExchange records the outcome of a code redemption
func (m *Metrics) RecordAuthorizationCodeExchange(result string) {
	m.AuthorizationCodeExchangeTotal.WithLabelValues(result).Inc()
}

// RecordDeviceCodeGenerated records device code generation
func (m *Metrics) RecordDeviceCodeGenerated(success bool) {
	m.DeviceCodesTotal.WithLabelValues(result(success, resultError)).Inc()
	if success {
		m.DeviceCodesPendingAuthorization.Inc()
	}
}

// RecordDevicePoll records the state reported to a polling device
func (m *Metrics) RecordDevicePoll(result string) {
	m.DevicePollsTotal.WithLabelValues(result).Inc()
}

// RecordDeviceCodeResolved records a user approving or denying a device code
func (m *Metrics) RecordDeviceCodeResolved(decision string, elapsed time.Duration) {
	m.DeviceCodesResolvedTotal.WithLabelValues(decision).Inc()
	m.DeviceCodesPendingAuthorization.Dec()
	m.DeviceCodeAuthorizationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordClientAuthentication(success bool) {
	m.ClientAuthTotal.WithLabelValues(result(success, resultFailure)).Inc()
}

// RecordLogin records a primary login attempt
func (m *Metrics) RecordLogin(success bool) {
	m.LoginTotal.WithLabelValues(result(success, resultFailure)).Inc()
}

func (m *Metrics) RecordSessionTokenExchange(success bool) {
	m.SessionTokenExchangeTotal.WithLabelValues(result(success, resultFailure)).Inc()
}

func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreatedTotal.Inc()
}

func (m *Metrics) RecordSessionDeleted() {
	m.SessionsDeletedTotal.Inc()
}

// RecordKeyRotation records a new session signing key
func (m *Metrics) RecordKeyRotation() {
	m.KeyRotationsTotal.Inc()
}

// SetActiveTokensCount sets the current count of active tokens (for periodic updates)
func (m *Metrics) SetActiveTokensCount(tokenType string, count int) {
	m.TokensActive.WithLabelValues(tokenType).Set(float64(count))
}

// SetPendingDeviceAuthorizations sets the pending device code gauge (for periodic updates)
func (m *Metrics) SetPendingDeviceAuthorizations(count int) {
	m.DeviceCodesPendingAuthorization.Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
