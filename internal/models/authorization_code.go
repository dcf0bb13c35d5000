package models

import "time"

// PKCEMethod is a code_challenge_method value (RFC 7636 §4.3).
type PKCEMethod string

const (
	PKCEMethodPlain PKCEMethod = "plain"
	PKCEMethodS256  PKCEMethod = "S256"
)

// Valid reports whether m is one of the supported methods.
func (m PKCEMethod) Valid() bool {
	return m == PKCEMethodPlain || m == PKCEMethodS256
}

// AuthorizationCode is a single-use code bound to a PKCE challenge.
// Only the SHA-256 hash of the code is stored.
type AuthorizationCode struct {
	ID                  uint       `gorm:"primaryKey;autoIncrement"`
	CodeHash            string     `gorm:"uniqueIndex;not null;size:64"`
	ClientID            string     `gorm:"not null;index;size:64"`
	UserID              string     `gorm:"not null;index;size:36"`
	RedirectURI         string     `gorm:"not null;size:2048"` // as sent at authorize, empty if omitted
	Scopes              string     `gorm:"not null"`
	CodeChallenge       string     `gorm:"not null"`
	CodeChallengeMethod PKCEMethod `gorm:"not null;size:8"`
	Used                bool       `gorm:"not null;default:false;index"`
	UsedAt              *time.Time
	ExpiresAt           time.Time `gorm:"index;not null"`
	CreatedAt           time.Time
}

func (a *AuthorizationCode) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// ScopeSet returns the granted scopes.
func (a *AuthorizationCode) ScopeSet() ScopeSet {
	return ParseScopes(a.Scopes)
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}
