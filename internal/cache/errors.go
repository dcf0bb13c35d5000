package cache

import "errors"

var (
	// ErrMiss is returned by Get when the key is absent or expired.
	ErrMiss = errors.New("cache: miss")
	// ErrBackend wraps failures talking to Redis.
	ErrBackend = errors.New("cache: backend error")
	// ErrDecode means a stored value could not be encoded or decoded.
	ErrDecode = errors.New("cache: cannot decode value")
)
