package models

import "time"

// AccessToken is an opaque bearer token. UserID is nil for client-credentials
// grants. Only the SHA-256 hash is stored; RawToken lives in memory only.
type AccessToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64"`
	RawToken  string    `gorm:"-"`
	ClientID  string    `gorm:"not null;index;size:64"`
	UserID    *string   `gorm:"index;size:36"`
	Scopes    string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (t *AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *AccessToken) ScopeSet() ScopeSet {
	return ParseScopes(t.Scopes)
}

func (AccessToken) TableName() string {
	return "access_tokens"
}

// RefreshToken is single-use: redeeming it flips Used and mints a new pair.
type RefreshToken struct {
	ID            string  `gorm:"primaryKey;size:36"`
	TokenHash     string  `gorm:"uniqueIndex;not null;size:64"`
	RawToken      string  `gorm:"-"`
	AccessTokenID string  `gorm:"not null;index;size:36"`
	ClientID      string  `gorm:"not null;index;size:64"`
	UserID        *string `gorm:"index;size:36"`
	Scopes        string  `gorm:"not null"`
	Used          bool    `gorm:"not null;default:false;index"`
	UsedAt        *time.Time
	ExpiresAt     time.Time `gorm:"index;not null"`
	CreatedAt     time.Time
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) ScopeSet() ScopeSet {
	return ParseScopes(t.Scopes)
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, treating nil as empty.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
