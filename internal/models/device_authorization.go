package models

import "time"

// DeviceStatus tracks the user-side decision on a device authorization.
type DeviceStatus string

const (
	DeviceStatusPending  DeviceStatus = "pending"
	DeviceStatusApproved DeviceStatus = "approved"
	DeviceStatusDenied   DeviceStatus = "denied"
	DeviceStatusConsumed DeviceStatus = "consumed" // approved and already exchanged for tokens
)

// DeviceAuthorization pairs a human-typed user code with an opaque device
// code (RFC 8628). Only the SHA-256 hash of the device code is stored.
type DeviceAuthorization struct {
	ID             uint         `gorm:"primaryKey;autoIncrement"`
	DeviceCodeHash string       `gorm:"uniqueIndex;not null;size:64"`
	UserCode       string       `gorm:"uniqueIndex;not null;size:16"`
	ClientID       string       `gorm:"not null;index;size:64"`
	Scopes         string       `gorm:"not null"`
	Status         DeviceStatus `gorm:"not null;default:'pending';index;size:16"`
	UserID         *string      `gorm:"size:36"`
	PollInterval   int          `gorm:"not null"` // seconds
	LastPolledAt   *time.Time
	ResolvedAt     *time.Time
	ExpiresAt      time.Time `gorm:"index;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (d *DeviceAuthorization) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

func (d *DeviceAuthorization) ScopeSet() ScopeSet {
	return ParseScopes(d.Scopes)
}

func (DeviceAuthorization) TableName() string {
	return "device_authorizations"
}
