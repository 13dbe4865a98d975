// Copyright (C) 2025 Joshua Goldstein

// Package attempts records login attempts and decides when a login must
// wait before it may be tried again.
package attempts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Tier is one throttling rule: Limit failures within Window impose a
// cooldown of Window measured from the latest failure.
type Tier struct {
	Limit  int
	Window time.Duration
}

// Policy is evaluated strictest tier first.
type Policy struct {
	Tiers []Tier
}

// DefaultPolicy allows 3 failures per 30 seconds and 6 per 5 minutes.
func DefaultPolicy() Policy {
	return Policy{Tiers: []Tier{
		{Limit: 6, Window: 5 * time.Minute},
		{Limit: 3, Window: 30 * time.Second},
	}}
}

// Tracker stores attempts in SQLite.
type Tracker struct {
	db     *sql.DB
	policy Policy
	now    func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS login_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	login TEXT NOT NULL COLLATE NOCASE,
	ip_address TEXT NOT NULL,
	successful INTEGER NOT NULL DEFAULT 0,
	attempted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_login_attempts_login ON login_attempts(login, attempted_at);
`

// Open creates or opens the attempts database at path. The path ":memory:"
// keeps everything in memory.
func Open(path string, policy Policy) (*Tracker, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if len(policy.Tiers) == 0 {
		policy = DefaultPolicy()
	}
	return &Tracker{db: db, policy: policy, now: time.Now}, nil
}

func (t *Tracker) Close() error {
	return t.db.Close()
}

// Login builds the throttling key of a domain user.
func Login(domain, username string) string {
	return domain + "/" + username
}

// Record stores one attempt.
func (t *Tracker) Record(ctx context.Context, login, ip string, successful bool) error {
	_, err := t.db.ExecContext(ctx,
		"INSERT INTO login_attempts (login, ip_address, successful, attempted_at) VALUES (?, ?, ?, ?)",
		login, ip, successful, t.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// Limited reports whether login must wait and for how long.
func (t *Tracker) Limited(ctx context.Context, login string) (bool, time.Duration, error) {
	now := t.now()
	for _, tier := range t.policy.Tiers {
		var failed int
		err := t.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM login_attempts
			WHERE login = ? AND successful = 0 AND attempted_at > ?
		`, login, now.Add(-tier.Window).UnixNano()).Scan(&failed)
		if err != nil {
			return false, 0, fmt.Errorf("count login failures: %w", err)
		}
		if failed < tier.Limit {
			continue
		}

		var last int64
		err = t.db.QueryRowContext(ctx, `
			SELECT attempted_at FROM login_attempts
			WHERE login = ? AND successful = 0
			ORDER BY attempted_at DESC LIMIT 1
		`, login).Scan(&last)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, 0, fmt.Errorf("latest login failure: %w", err)
		}

		if left := tier.Window - now.Sub(time.Unix(0, last)); left > 0 {
			return true, left, nil
		}
	}
	return false, 0, nil
}

// Cleanup deletes attempts older than maxAge and returns how many went.
func (t *Tracker) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := t.db.ExecContext(ctx, "DELETE FROM login_attempts WHERE attempted_at <= ?", t.now().Add(-maxAge).UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cleanup login attempts: %w", err)
	}
	return res.RowsAffected()
}
