package models

import (
	"encoding/base32"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Base32 characters, but lowercased.
const lowerBase32Chars = "abcdefghijklmnopqrstuvwxyz234567"

// base32 encoder that uses lowered characters without padding.
var base32Lower = base32.NewEncoding(lowerBase32Chars).WithPadding(base32.NoPadding)

// Client is a registered OAuth client. Confidential clients always carry a
// secret hash; public clients never do.
type Client struct {
	ID           string        `gorm:"primaryKey;size:64"                              json:"id"`
	SecretHash   string        `gorm:"column:secret_hash"                              json:"secret_hash,omitempty"`
	UserID       string        `gorm:"index;not null;size:36"                          json:"user_id"`
	IsPublic     bool          `gorm:"not null;default:false"                          json:"is_public"`
	Name         string        `gorm:"not null"                                        json:"name"`
	Description  string        `gorm:"type:text"                                       json:"description"`
	HomepageURL  string        `gorm:"size:2048"                                       json:"homepage_url"`
	RedirectURIs []RedirectURI `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"redirect_uris,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// GenerateSecret creates a new client secret, stores its bcrypt hash on the
// client and returns the plaintext. The plaintext is never persisted.
func (c *Client) GenerateSecret() (string, error) {
	rBytes, err := util.RandomBytes(32)
	if err != nil {
		return "", err
	}
	// Add a prefix to the base32, this is in order to make it easier
	// for code scanners to grab sensitive tokens.
	secret := "lck_" + base32Lower.EncodeToString(rBytes)

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	c.SecretHash = string(hashed)
	return secret, nil
}

// ValidateSecret validates the given secret against the stored hash
func (c *Client) ValidateSecret(secret string) bool {
	if c.SecretHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// HasRedirectURI reports whether uri is registered for the client (exact match).
func (c *Client) HasRedirectURI(uri string) bool {
	for _, r := range c.RedirectURIs {
		if r.URI == uri {
			return true
		}
	}
	return false
}

func (Client) TableName() string {
	return "clients"
}

// RedirectURI belongs to exactly one client.
type RedirectURI struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                            json:"id"`
	ClientID  string    `gorm:"not null;size:64;uniqueIndex:idx_redirect_client_uri" json:"client_id"`
	URI       string    `gorm:"not null;size:2048;uniqueIndex:idx_redirect_client_uri" json:"uri"`
	CreatedAt time.Time `json:"created_at"`
}

func (RedirectURI) TableName() string {
	return "redirect_uris"
}
