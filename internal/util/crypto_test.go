package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(20)
	require.NoError(t, err)
	assert.Len(t, a, 20)

	b, err := RandomBytes(20)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRandomHex(t *testing.T) {
	for _, n := range []int{1, 16, 21} {
		s, err := RandomHex(n)
		require.NoError(t, err)
		assert.Len(t, s, n)
		assert.Regexp(t, "^[0-9a-f]+$", s)
	}
}

func TestRandomToken(t *testing.T) {
	t.Run("32 bytes without padding", func(t *testing.T) {
		tok, err := RandomToken(32)
		require.NoError(t, err)
		assert.Len(t, tok, 43)
		assert.NotContains(t, tok, "=")

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	})

	t.Run("Unique values", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			tok, err := RandomToken(32)
			require.NoError(t, err)
			_, dup := seen[tok]
			require.False(t, dup)
			seen[tok] = struct{}{}
		}
	})
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(""),
	)
	assert.Len(t, SHA256Hex("token"), 64)
}

func TestS256Challenge(t *testing.T) {
	t.Run("RFC 7636 appendix B vector", func(t *testing.T) {
		assert.Equal(t,
			"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
			S256Challenge("dBjftJeZ4CVP-1mB0HqNyAzvB3p2NSTxcgd1IBlvOm8"),
		)
	})

	t.Run("Matches oauth2 helper", func(t *testing.T) {
		verifier := oauth2.GenerateVerifier()
		assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), S256Challenge(verifier))
	})
}
