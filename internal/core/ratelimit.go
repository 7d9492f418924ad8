package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mbelik/shortly/internal/cache"
	"github.com/mbelik/shortly/internal/metrics"
)

// windowBucketFormat truncates wall-clock time to the minute, giving fixed,
// non-overlapping buckets.
const windowBucketFormat = "200601021504"

// Limiter is a fixed-window rate limiter backed by the fast store, so the
// count is shared across replicas. Being fixed-window it admits bursts at
// bucket boundaries (up to 2x the limit straddling a rollover); that is
// accepted in exchange for a single INCR per request.
type Limiter struct {
	cache   cache.FastStore
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

func NewLimiter(c cache.FastStore, perMinute int, timeout time.Duration) *Limiter {
	return &Limiter{
		cache:   c,
		limit:   int64(perMinute),
		window:  time.Minute,
		timeout: timeout,
		now:     time.Now,
	}
}

// Allow reports whether identity may proceed in the current window. The
// increment-and-check is a single atomic INCR; the first hit in a bucket
// attaches a TTL of one window so stale buckets expire on their own.
//
// If the fast store is unreachable the limiter fails open: serving requests
// is worth more than strict limiting.
func (l *Limiter) Allow(ctx context.Context, identity string) bool {
	bucket := l.now().UTC().Format(windowBucketFormat)
	key := cache.WindowKey(identity, bucket)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	n, err := l.cache.Incr(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("rate limiter unavailable, failing open")
		return true
	}
	if n == 1 {
		if err := l.cache.ExpireIfUnset(ctx, key, l.window); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate window ttl not set")
		}
	}
	if n > l.limit {
		metrics.RateLimited.Inc()
		return false
	}
	return true
}
