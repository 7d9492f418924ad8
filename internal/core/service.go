// Package core holds the cache-aside resolution/creation path, the click
// accumulator and the periodic flush that reconciles clicks into the
// database. The SQL store is the source of truth throughout; Redis only
// accelerates reads and buffers counters.
package core

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mbelik/shortly/internal/cache"
	"github.com/mbelik/shortly/internal/metrics"
	"github.com/mbelik/shortly/internal/shortid"
	"github.com/mbelik/shortly/internal/store"
)

const (
	maxCodeAttempts = 10
	maxTargetLen    = 2048
	minAliasLen     = 3
	maxAliasLen     = 32
)

// Params are the service knobs, split out from config.Config so tests can
// construct a Service without touching the environment.
type Params struct {
	CodeLength        int
	DefaultExpiryDays int
	CacheDefaultTTL   time.Duration // cache lifetime for mappings without expiry
	CacheTimeout      time.Duration // bound on each fast-store round-trip
}

type Service struct {
	store store.Store
	cache cache.FastStore
	p     Params
	now   func() time.Time
}

func NewService(s store.Store, c cache.FastStore, p Params) *Service {
	return &Service{store: s, cache: c, p: p, now: time.Now}
}

func normalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxTargetLen {
		return "", ErrInvalidTarget
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidTarget
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidTarget
	}
	if parsed.Host == "" {
		return "", ErrInvalidTarget
	}
	return parsed.String(), nil
}

func validateAlias(alias string) error {
	if len(alias) < minAliasLen || len(alias) > maxAliasLen {
		return ErrInvalidAlias
	}
	for i := 0; i < len(alias); i++ {
		c := alias[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return ErrInvalidAlias
		}
	}
	return nil
}

// computeExpiry turns a day count into an absolute expiry. nil falls back to
// the configured default; zero or negative disables expiry entirely.
func (s *Service) computeExpiry(expiresInDays *int) *time.Time {
	days := s.p.DefaultExpiryDays
	if expiresInDays != nil {
		days = *expiresInDays
	}
	if days <= 0 {
		return nil
	}
	t := s.now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	return &t
}

// cacheTTL aligns the cache entry's lifetime with the mapping's expiry so a
// stale destination can never outlive its link. Without expiry the TTL is
// purely a memory-pressure knob; a miss always falls back to the database.
func (s *Service) cacheTTL(expiresAt *time.Time) time.Duration {
	if expiresAt == nil {
		return s.p.CacheDefaultTTL
	}
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// warm writes the mapping into the cache, best effort.
func (s *Service) warm(ctx context.Context, code, target string, expiresAt *time.Time) {
	ctx, cancel := context.WithTimeout(ctx, s.p.CacheTimeout)
	defer cancel()
	if err := s.cache.SetWithTTL(ctx, cache.EntryKey(code), target, s.cacheTTL(expiresAt)); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("cache warm failed")
	}
}

// Register creates a mapping for target, under customAlias when given or a
// generated code otherwise, and warms the cache. The database's uniqueness
// constraint is the arbiter for races: a losing custom alias surfaces as
// ErrAliasTaken, a losing generated candidate is retried with a fresh one.
func (s *Service) Register(ctx context.Context, target, customAlias string, expiresInDays *int) (store.Mapping, error) {
	targetNorm, err := normalizeTarget(target)
	if err != nil {
		return store.Mapping{}, err
	}

	created := s.now().UTC()
	expiresAt := s.computeExpiry(expiresInDays)

	if customAlias != "" {
		if err := validateAlias(customAlias); err != nil {
			return store.Mapping{}, err
		}
		m := store.Mapping{Code: customAlias, Target: targetNorm, CreatedAt: created, ExpiresAt: expiresAt}
		if err := s.store.InsertIfAbsent(ctx, m); err != nil {
			if err == store.ErrConflict {
				return store.Mapping{}, ErrAliasTaken
			}
			return store.Mapping{}, err
		}
		s.warm(ctx, m.Code, m.Target, m.ExpiresAt)
		metrics.Shortens.Inc()
		return m, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		m := store.Mapping{
			Code:      shortid.Generate(s.p.CodeLength),
			Target:    targetNorm,
			CreatedAt: created,
			ExpiresAt: expiresAt,
		}
		err := s.store.InsertIfAbsent(ctx, m)
		if err == store.ErrConflict {
			continue
		}
		if err != nil {
			return store.Mapping{}, err
		}
		s.warm(ctx, m.Code, m.Target, m.ExpiresAt)
		metrics.Shortens.Inc()
		return m, nil
	}
	return store.Mapping{}, ErrCodeSpaceExhausted
}

// Resolve returns the destination for code: cache first, database on miss,
// warming the cache on the way out. Expired codes are indistinguishable from
// missing ones. A broken cache degrades latency, never correctness.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.p.CacheTimeout)
	target, err := s.cache.Get(cctx, cache.EntryKey(code))
	cancel()
	if err == nil {
		metrics.CacheHit.WithLabelValues("url").Inc()
		return target, nil
	}
	if err != cache.ErrMiss {
		log.Warn().Err(err).Str("code", code).Msg("cache read failed, falling back to db")
	}
	metrics.CacheMiss.WithLabelValues("url").Inc()

	m, err := s.store.GetByCode(ctx, code)
	if err == store.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if m.Expired(s.now()) {
		return "", ErrNotFound
	}
	s.warm(ctx, m.Code, m.Target, m.ExpiresAt)
	return m.Target, nil
}

// RecordHit bumps the pending click counter for code. Best effort: it never
// blocks past the cache timeout and never surfaces an error, a click lost to
// an unreachable fast store is accepted.
func (s *Service) RecordHit(ctx context.Context, code string) {
	ctx, cancel := context.WithTimeout(ctx, s.p.CacheTimeout)
	defer cancel()
	if _, err := s.cache.Incr(ctx, cache.HitKey(code)); err != nil {
		metrics.ClicksDropped.Inc()
		log.Warn().Err(err).Str("code", code).Msg("click dropped")
	}
}

// PendingCount reports clicks recorded but not yet flushed to the database.
// Absent or unreadable counters read as 0.
func (s *Service) PendingCount(ctx context.Context, code string) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.p.CacheTimeout)
	defer cancel()
	val, err := s.cache.Get(ctx, cache.HitKey(code))
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Stats returns the mapping with its click count topped up by any pending,
// not-yet-flushed clicks for a near-real-time total.
func (s *Service) Stats(ctx context.Context, code string) (store.Mapping, error) {
	m, err := s.store.GetByCode(ctx, code)
	if err == store.ErrNotFound {
		return store.Mapping{}, ErrNotFound
	}
	if err != nil {
		return store.Mapping{}, err
	}
	m.ClickCount += s.PendingCount(ctx, code)
	return m, nil
}
