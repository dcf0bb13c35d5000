package core

import (
	"context"
	"time"
)

// Loader produces the value for a key on a cache miss.
type Loader[T any] func(ctx context.Context, key string) (T, error)

// Cache is a typed key-value cache with expiry. The client registry uses it
// for lookups by client id and the gauge job for shared counts.
type Cache[T any] interface {
	// Get returns the live value for key or a miss error.
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	// Delete drops key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetOrLoad returns the cached value or calls load and stores its result
	// for ttl. Load errors are returned as-is and never cached.
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader[T]) (T, error)

	Health(ctx context.Context) error
	Close() error
}
