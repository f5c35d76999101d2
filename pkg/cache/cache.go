// Package cache stores rendered images keyed by their inputs.
//
// Rasterizing a large function can take a noticeable fraction of a second,
// and the interactive session re-renders every time an option flips back to
// a value it had before. A [Cache] lets those round trips skip the external
// process entirely.
//
// Backends:
//   - [FileCache]: sharded files under the user cache dir (CLI default)
//   - [RedisCache]: shared cache for the preview server
//   - [Null]: disables caching
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL bounds how long a rendered image is kept.
const DefaultTTL = 7 * 24 * time.Hour

// Null returns a Cache that stores nothing. It serves --no-cache and stands in
// when the configured backend cannot be opened.
func Null() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error { return nil }
func (nullCache) Close() error { return nil }
