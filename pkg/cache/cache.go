// Package cache stores pipeline results keyed by their inputs.
//
// Three stages are cached: fetched source documents, computed layouts and
// rendered artifacts. Keys come from a [Keyer] so that a change to any input
// that affects the output produces a different key.
//
// Implementations:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//   - [LRUCache]: bounded in-memory cache, for hot server paths
//   - [NullCache]: disables caching
//
// [Tiered] combines a fast front cache with a shared back cache.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per stage.
const (
	// TTLSource applies to documents fetched from remote URLs. Remote
	// statistics are regenerated regularly, so keep this short.
	TTLSource = time.Hour
	// TTLLayout applies to computed layouts, which depend only on the tree
	// contents and layout options.
	TTLLayout = 7 * 24 * time.Hour
	// TTLArtifact applies to rendered outputs.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as ok == false with
	// a nil error; expired entries are misses.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}
