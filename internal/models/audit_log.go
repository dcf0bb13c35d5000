package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// Authentication events
	EventAuthenticationSuccess EventType = "AUTHENTICATION_SUCCESS"
	EventAuthenticationFailure EventType = "AUTHENTICATION_FAILURE"

	// Session events
	EventSessionCreated   EventType = "SESSION_CREATED"
	EventSessionRefreshed EventType = "SESSION_REFRESHED"
	EventSessionDeleted   EventType = "SESSION_DELETED"

	// Device authorization events
	EventDeviceCodeGenerated EventType = "DEVICE_CODE_GENERATED"
	EventDeviceCodeApproved  EventType = "DEVICE_CODE_APPROVED"
	EventDeviceCodeDenied    EventType = "DEVICE_CODE_DENIED"

	// Token events
	EventTokenIssued    EventType = "TOKEN_ISSUED"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventTokenRevoked   EventType = "TOKEN_REVOKED"

	// Client registry events
	EventClientCreated      EventType = "CLIENT_CREATED"
	EventClientUpdated      EventType = "CLIENT_UPDATED"
	EventClientDeleted      EventType = "CLIENT_DELETED"
	EventRedirectURIAdded   EventType = "REDIRECT_URI_ADDED"
	EventRedirectURIRemoved EventType = "REDIRECT_URI_REMOVED"
	EventClientAuthFailed   EventType = "CLIENT_AUTHENTICATION_FAILED"

	// Authorization Code Flow events (RFC 6749)
	EventAuthorizationCodeGenerated EventType = "AUTHORIZATION_CODE_GENERATED"
	EventAuthorizationCodeExchanged EventType = "AUTHORIZATION_CODE_EXCHANGED"

	// Security events
	EventRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
	EventCredentialReplay  EventType = "CREDENTIAL_REPLAY"
)

// EventSeverity represents the severity level of an audit event
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "INFO"
	SeverityWarning  EventSeverity = "WARNING"
	SeverityError    EventSeverity = "ERROR"
	SeverityCritical EventSeverity = "CRITICAL"
)

// ResourceType represents the type of resource being operated on
type ResourceType string

const (
	ResourceUser              ResourceType = "USER"
	ResourceClient            ResourceType = "CLIENT"
	ResourceToken             ResourceType = "TOKEN"
	ResourceSession           ResourceType = "SESSION"
	ResourceDeviceCode        ResourceType = "DEVICE_CODE"
	ResourceAuthorizationCode ResourceType = "AUTHORIZATION_CODE"
)

// AuditDetails stores additional event-specific information as JSON
type AuditDetails map[string]any

// Value implements the driver.Valuer interface for database storage
func (a AuditDetails) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL, which is valid here
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for database retrieval
func (a *AuditDetails) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal AuditDetails value: %v", value)
	}

	result := make(AuditDetails)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*a = result
	return nil
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// Event information
	EventType EventType     `gorm:"type:varchar(50);index;not null" json:"event_type"`
	EventTime time.Time     `gorm:"index;not null"                  json:"event_time"`
	Severity  EventSeverity `gorm:"type:varchar(20);not null"       json:"severity"`

	// Actor information
	ActorUserID   string `gorm:"type:varchar(36);index" json:"actor_user_id"`
	ActorClientID string `gorm:"type:varchar(64);index" json:"actor_client_id"`
	ActorIP       string `gorm:"type:varchar(45);index" json:"actor_ip"` // Support IPv6

	// Resource information
	ResourceType ResourceType `gorm:"type:varchar(50);index" json:"resource_type"`
	ResourceID   string       `gorm:"type:varchar(36);index" json:"resource_id"`
	ResourceName string       `gorm:"type:varchar(255)"      json:"resource_name"`

	// Operation details
	Action       string       `gorm:"type:varchar(255);not null" json:"action"`
	Details      AuditDetails `gorm:"type:json"                  json:"details"`
	Success      bool         `gorm:"index;not null"             json:"success"`
	ErrorMessage string       `gorm:"type:text"                  json:"error_message,omitempty"`

	// Request metadata
	UserAgent     string `gorm:"type:varchar(500)" json:"user_agent,omitempty"`
	RequestPath   string `gorm:"type:varchar(500)" json:"request_path,omitempty"`
	RequestMethod string `gorm:"type:varchar(10)"  json:"request_method,omitempty"`

	// Timestamps (no UpdatedAt - immutable logs)
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}
