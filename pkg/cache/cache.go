// Package cache stores rendered trace artifacts.
//
// Rendering a large trace to SVG, PNG or PDF is the expensive part of the
// pipeline, so artifacts are cached under a key derived from the trace
// content hash and the render options. Several backends implement [Cache]:
//
//   - [FileCache]: one file per entry under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for multi-instance servers
//   - [MongoCache]: document-backed cache with a TTL index
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so that servers can scope them per tenant with
// [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported with hit == false and
	// a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the expiry used for rendered artifacts.
const DefaultTTL = 7 * 24 * time.Hour
