package metrics

import (
	"sync"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements core.Recorder at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Grants and tokens
	TokensIssuedTotal       *prometheus.CounterVec
	GrantFailuresTotal      *prometheus.CounterVec
	TokensRefreshedTotal    *prometheus.CounterVec
	TokensRevokedTotal      prometheus.Counter
	TokensActive            *prometheus.GaugeVec
	TokenGenerationDuration *prometheus.HistogramVec

	// Authorization Code Flow
	AuthorizationCodesIssuedTotal  prometheus.Counter
	AuthorizationCodeExchangeTotal *prometheus.CounterVec

	// Device Flow
	DeviceCodesTotal                *prometheus.CounterVec
	DevicePollsTotal                *prometheus.CounterVec
	DeviceCodesResolvedTotal        *prometheus.CounterVec
	DeviceCodesPendingAuthorization prometheus.Gauge
	DeviceCodeAuthorizationDuration prometheus.Histogram

	// Authentication
	ClientAuthTotal *prometheus.CounterVec
	LoginTotal      *prometheus.CounterVec

	// Sessions
	SessionTokenExchangeTotal *prometheus.CounterVec
	SessionsCreatedTotal      prometheus.Counter
	SessionsDeletedTotal      prometheus.Counter

	// Signing keys
	KeyRotationsTotal prometheus.Counter

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the Prometheus-backed recorder when enabled and a no-op one
// otherwise. Prometheus collectors are registered once per process.
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_issued_total",
				Help: "Total number of token pairs issued",
			},
			[]string{"grant_type"},
		),
		GrantFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_grant_failures_total",
				Help: "Total number of failed token requests",
			},
			[]string{"grant_type", "reason"},
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_tokens_refreshed_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"}, // success, error
		),
		TokensRevokedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oauth_tokens_revoked_total",
				Help: "Total number of tokens revoked",
			},
		),
		TokensActive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oauth_tokens_active",
				Help: "Current number of active tokens",
			},
			[]string{"token_type"}, // access, refresh
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth_token_request_duration_seconds",
				Help:    "Time taken to serve a successful token request",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"grant_type"},
		),

		AuthorizationCodesIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oauth_authorization_codes_issued_total",
				Help: "Total number of authorization codes issued",
			},
		),
		AuthorizationCodeExchangeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_authorization_code_exchange_total",
				Help: "Total number of authorization code exchanges",
			},
			[]string{"result"}, // success, invalid_grant, invalid_verifier, redirect_mismatch, replayed
		),

		DeviceCodesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_device_codes_total",
				Help: "Total number of device codes generated",
			},
			[]string{"result"}, // success, error
		),
		DevicePollsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_device_polls_total",
				Help: "Total number of device code polls",
			},
			[]string{"result"}, // pending, approved, denied, expired, slow_down, error
		),
		DeviceCodesResolvedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_device_codes_resolved_total",
				Help: "Total number of device codes approved or denied by users",
			},
			[]string{"decision"},
		),
		DeviceCodesPendingAuthorization: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oauth_device_codes_pending_authorization",
				Help: "Current number of device codes pending user authorization",
			},
		),
		DeviceCodeAuthorizationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oauth_device_code_authorization_duration_seconds",
				Help:    "Time taken for user to resolve a device code",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
		),

		ClientAuthTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_client_authentication_total",
				Help: "Total number of client authentication attempts",
			},
			[]string{"result"}, // success, failure
		),
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"}, // success, failure
		),

		SessionTokenExchangeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_token_exchange_total",
				Help: "Total number of session token exchanges",
			},
			[]string{"result"}, // success, failure
		),
		SessionsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsDeletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_deleted_total",
				Help: "Total number of sessions deleted",
			},
		),

		KeyRotationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "signing_key_rotations_total",
				Help: "Total number of session signing key rotations",
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_access_tokens, count_refresh_tokens, count_device_codes
		),
	}
}
