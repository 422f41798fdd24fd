// Package cache stores rendered artifacts between runs.
//
// Only deterministic work is cached: converting a finished SVG page to PDF
// or PNG. Layout and variant picking depend on picker state and are always
// recomputed.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: a Redis server shared by preview servers
//   - [NullCache]: stores nothing
//
// # Keys
//
// A [Keyer] builds keys from the SHA-256 of the SVG document and the export
// options, so identical pages share one entry:
//
//	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash(svg), cache.ArtifactKeyOpts{Format: "pdf"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLs used by the render pipeline.
const (
	ArtifactTTL = 7 * 24 * time.Hour
	SessionTTL  = 24 * time.Hour
)
