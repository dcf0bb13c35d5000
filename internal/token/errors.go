package token

import "errors"

var (
	// ErrInvalidKeyWindow indicates the transition window is not shorter than
	// the rotation period, which would leave more than two live keys.
	ErrInvalidKeyWindow = errors.New("key transition duration must be shorter than rotation duration")

	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrUnknownKey indicates the token was signed by a key that is no
	// longer (or never was) available for verification
	ErrUnknownKey = errors.New("unknown signing key")
)
