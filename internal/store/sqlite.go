package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) GetByCode(ctx context.Context, code string) (Mapping, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, target, created_at, expires_at, click_count, last_accessed_at
		FROM url_map WHERE code = ?`, code)

	var (
		m       Mapping
		expires sql.NullTime
		last    sql.NullTime
	)
	err := row.Scan(&m.Code, &m.Target, &m.CreatedAt, &expires, &m.ClickCount, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return Mapping{}, ErrNotFound
	}
	if err != nil {
		return Mapping{}, err
	}
	if expires.Valid {
		t := expires.Time.UTC()
		m.ExpiresAt = &t
	}
	if last.Valid {
		t := last.Time.UTC()
		m.LastAccessedAt = &t
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func (s *SQLite) InsertIfAbsent(ctx context.Context, m Mapping) error {
	var expires any
	if m.ExpiresAt != nil {
		expires = m.ExpiresAt.UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO url_map(code, target, created_at, expires_at, click_count)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(code) DO NOTHING`,
		m.Code, m.Target, m.CreatedAt.UTC(), expires, m.ClickCount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLite) ApplyClickDelta(ctx context.Context, code string, delta int64, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE url_map
		SET click_count = click_count + ?, last_accessed_at = ?
		WHERE code = ?`, delta, now.UTC(), code)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Migrate ensures schema exists
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS url_map (
			code TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME,
			click_count INTEGER NOT NULL DEFAULT 0,
			last_accessed_at DATETIME
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
