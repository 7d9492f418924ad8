// Package cache is the fast-store side of shortly: cached mappings, pending
// click counters and rate-limit windows. It is an accelerator only; the SQL
// store stays authoritative and every caller must tolerate this layer losing
// state at any time.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// FastStore is the slice of Redis behavior the service depends on, kept as
// an interface so tests can substitute an in-memory implementation.
type FastStore interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL stores value under key with the given lifetime.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments the counter at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// ExpireIfUnset attaches a TTL to key only if it has none yet.
	ExpireIfUnset(ctx context.Context, key string, ttl time.Duration) error

	// ScanPrefix returns all keys matching prefix. The scan is incremental
	// under the hood, never a blocking full-keyspace listing.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// FetchThenDelete reads and clears each key so no value can be observed
	// twice. The returned slice is aligned with keys; absent keys yield "".
	FetchThenDelete(ctx context.Context, keys []string) ([]string, error)
}
