package metrics

import (
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements core.Recorder at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

// Grants - noop implementations
func (n *NoopMetrics) RecordTokenIssued(grantType string, duration time.Duration) {}
func (n *NoopMetrics) RecordGrantFailure(grantType, reason string)                {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)                            {}
func (n *NoopMetrics) RecordTokenRevoked()                                        {}

// Authorization Code Flow - noop implementations
func (n *NoopMetrics) RecordAuthorizationCodeIssued()                {}
func (n *NoopMetrics) RecordAuthorizationCodeExchange(result string) {}

// Device Flow - noop implementations
func (n *NoopMetrics) RecordDeviceCodeGenerated(success bool)                          {}
func (n *NoopMetrics) RecordDevicePoll(result string)                                  {}
func (n *NoopMetrics) RecordDeviceCodeResolved(decision string, elapsed time.Duration) {}

// Authentication - noop implementations
func (n *NoopMetrics) RecordClientAuthentication(success bool) {}
func (n *NoopMetrics) RecordLogin(success bool)                {}

// Sessions - noop implementations
func (n *NoopMetrics) RecordSessionTokenExchange(success bool) {}
func (n *NoopMetrics) RecordSessionCreated()                   {}
func (n *NoopMetrics) RecordSessionDeleted()                   {}

// Signing keys - noop implementations
func (n *NoopMetrics) RecordKeyRotation() {}

// Gauge Setters - noop implementations
func (n *NoopMetrics) SetActiveTokensCount(tokenType string, count int) {}
func (n *NoopMetrics) SetPendingDeviceAuthorizations(count int)         {}

// Database Operations - noop implementations
func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
