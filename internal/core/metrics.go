package core

import (
	"context"
	"time"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Grants
	RecordTokenIssued(grantType string, duration time.Duration)
	RecordGrantFailure(grantType, reason string)
	RecordTokenRefresh(success bool)
	RecordTokenRevoked()

	// Authorization Code Flow
	RecordAuthorizationCodeIssued()
	RecordAuthorizationCodeExchange(result string)

	// Device Flow
	RecordDeviceCodeGenerated(success bool)
	RecordDevicePoll(result string)
	RecordDeviceCodeResolved(decision string, elapsed time.Duration)

	// Client and user authentication
	RecordClientAuthentication(success bool)
	RecordLogin(success bool)

	// Sessions
	RecordSessionTokenExchange(success bool)
	RecordSessionCreated()
	RecordSessionDeleted()

	// Signing keys
	RecordKeyRotation()

	// Gauge Setters (for periodic updates)
	SetActiveTokensCount(tokenType string, count int)
	SetPendingDeviceAuthorizations(count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the gauge updater.
type MetricsStore interface {
	CountActiveAccessTokens(ctx context.Context, now time.Time) (int64, error)
	CountActiveRefreshTokens(ctx context.Context, now time.Time) (int64, error)
	CountPendingDeviceAuthorizations(ctx context.Context, now time.Time) (int64, error)
}
