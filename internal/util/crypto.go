package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// RandomBytes reads n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// RandomHex returns n lowercase hex characters.
func RandomHex(n int) (string, error) {
	buf, err := RandomBytes((n + 1) / 2)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf)[:n], nil
}

// RandomToken returns n random bytes as unpadded base64url. Every opaque
// credential (codes, tokens, session ids) comes from here.
func RandomToken(n int) (string, error) {
	buf, err := RandomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SHA256Hex is the at-rest form of an opaque credential. Inputs come from
// RandomToken, so no salt is needed.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// S256Challenge derives a PKCE S256 code challenge from a verifier (RFC 7636 §4.2).
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
