package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are carried by the session cookie. Subject is the user id.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieSigner signs and verifies session cookies with the rotating keys.
type CookieSigner struct {
	keys   *KeyManager
	issuer string
}

func NewCookieSigner(keys *KeyManager, issuer string) *CookieSigner {
	return &CookieSigner{keys: keys, issuer: issuer}
}

// Sign returns a compact HS256 JWT whose kid header names the signing key.
func (s *CookieSigner) Sign(sessionID, userID string, expiresAt time.Time) (string, error) {
	key, err := s.keys.SigningKey()
	if err != nil {
		return "", err
	}

	now := s.keys.now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = key.Version
	signed, err := tok.SignedString(key.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Verify parses raw and checks its signature against the key named by kid.
func (s *CookieSigner) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.keys.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, ErrUnknownKey):
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrUnknownKey)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *CookieSigner) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrUnknownKey
	}
	key, ok := s.keys.VerificationKey(kid)
	if !ok {
		return nil, ErrUnknownKey
	}
	return key.Secret, nil
}
