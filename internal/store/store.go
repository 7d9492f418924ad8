package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means no row exists for the code.
	ErrNotFound = errors.New("not found")
	// ErrConflict means an insert lost to an existing row with the same code.
	ErrConflict = errors.New("code already exists")
)

// Mapping is the authoritative record for one short code.
type Mapping struct {
	Code           string     `json:"code"`
	Target         string     `json:"target"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ClickCount     int64      `json:"click_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// Expired reports whether the mapping's expiry, if any, lies at or before now.
func (m *Mapping) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// Store is the durable side of shortly. Uniqueness of codes is enforced
// here, not by callers: concurrent inserts of the same code are serialized
// by the database constraint and the losers see ErrConflict.
type Store interface {
	GetByCode(ctx context.Context, code string) (Mapping, error)

	// InsertIfAbsent creates the mapping unless a row with the same code
	// exists, in which case it returns ErrConflict and writes nothing.
	InsertIfAbsent(ctx context.Context, m Mapping) error

	// ApplyClickDelta adds delta to the mapping's click count and stamps
	// last_accessed_at. It returns the number of rows updated: 0 means the
	// code no longer exists and the delta is dropped.
	ApplyClickDelta(ctx context.Context, code string, delta int64, now time.Time) (int64, error)
}
