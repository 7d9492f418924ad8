package core

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mbelik/shortly/internal/cache"
	"github.com/mbelik/shortly/internal/metrics"
	"github.com/mbelik/shortly/internal/store"
)

// FlushWorker periodically drains pending click counters from the fast store
// into the database. Counters are claimed with an atomic fetch-then-delete,
// so no click is ever applied twice; a click landing between a counter's
// claim and the next cycle just waits for that next cycle.
type FlushWorker struct {
	store store.Store
	cache cache.FastStore
	now   func() time.Time
}

func NewFlushWorker(s store.Store, c cache.FastStore) *FlushWorker {
	return &FlushWorker{store: s, cache: c, now: time.Now}
}

// Run flushes on every tick until ctx is cancelled. Cycle errors are logged
// and retried on the next tick; the worker itself never exits on them.
func (w *FlushWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Dur("interval", interval).Msg("flush worker starting")
	for {
		select {
		case <-ticker.C:
			n, err := w.FlushOnce(ctx)
			if err != nil {
				log.Error().Err(err).Msg("flush cycle failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("clicks", n).Msg("flushed clicks")
			}
		case <-ctx.Done():
			log.Info().Msg("flush worker stopping")
			return
		}
	}
}

// FlushOnce runs a single cycle and returns how many clicks were applied to
// the database. A bad or orphaned counter is skipped, never aborting the
// rest of the batch.
func (w *FlushWorker) FlushOnce(ctx context.Context) (int64, error) {
	keys, err := w.cache.ScanPrefix(ctx, cache.HitKeyPrefix())
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	vals, err := w.cache.FetchThenDelete(ctx, keys)
	if err != nil {
		return 0, err
	}

	now := w.now().UTC()
	var flushed int64
	for i, key := range keys {
		delta, err := strconv.ParseInt(vals[i], 10, 64)
		if err != nil || delta <= 0 {
			continue
		}
		code := cache.CodeFromHitKey(key)
		n, err := w.store.ApplyClickDelta(ctx, code, delta, now)
		if err != nil {
			log.Error().Err(err).Str("code", code).Int64("delta", delta).Msg("click delta not applied")
			continue
		}
		if n == 0 {
			// mapping is gone, drop the delta
			continue
		}
		flushed += delta
	}
	metrics.ClicksFlushed.Add(float64(flushed))
	return flushed, nil
}
