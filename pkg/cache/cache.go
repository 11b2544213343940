// Package cache stores transformed collections and rendered artifacts so
// repeated runs over the same input skip the iteration loop.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP server, and [NullCache] when caching is disabled. Keys are
// built by a [Keyer] from a content hash of the input plus every option that
// affects the output.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	TTLCartogram = 7 * 24 * time.Hour
	TTLArtifact  = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// A missing or expired key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
