// Package cache stores extraction results between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache] stores entries as JSON files under a directory, for CLI use.
//   - [RedisCache] stores entries in Redis, so several hosts share results.
//   - [NullCache] stores nothing, for --no-cache and tests.
//
// Keys are built by a [Keyer]. Extraction keys cover everything that changes
// the output: the dataset hash, the feature cap, the priorities, the
// classifier tables and the current date, since adoption dates are relative
// to it.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry is
	// reported as a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	// Clear removes every entry and returns the number removed.
	Clear(ctx context.Context) (int, error)
}

// TTLs for cached entries.
const (
	// TTLExtract bounds extraction results. Results embed adoption dates
	// relative to the run date, which is also part of the key.
	TTLExtract = 24 * time.Hour
)
