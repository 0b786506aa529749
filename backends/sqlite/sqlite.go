// Package sqlite provides a persistent storage backend on a local SQLite
// database. Useful for single-node deployments that need quota state to
// survive restarts without running a separate server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/classicmodels/throttle/backends"
)

// Backend stores values in the throttle_kv table. Expiry is tracked as
// Unix milliseconds; 0 means no expiration.
type Backend struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given DSN and initializes
// the schema. Use ":memory:" for an ephemeral in-memory database.
func New(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and
	// serializes writers, which the CAS transaction relies on.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS throttle_kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Backend{db: db}, nil
}

func expiresAtMillis(expiration time.Duration) int64 {
	if expiration <= 0 {
		return 0
	}
	return time.Now().Add(expiration).UnixMilli()
}

func expired(expiresAt int64) bool {
	return expiresAt != 0 && time.Now().UnixMilli() > expiresAt
}

func (s *Backend) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM throttle_kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get key %q: %w", key, err)
	}

	if expired(expiresAt) {
		return "", nil
	}
	return value, nil
}

func (s *Backend) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO throttle_kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, value, expiresAtMillis(expiration))
	if err != nil {
		return fmt.Errorf("set key %q: %w", key, err)
	}
	return nil
}

// CheckAndSet atomically sets key to newValue only if the current value
// matches oldValue. oldValue == "" means "only set if the key is absent";
// an expired row counts as absent. The read-compare-write runs in one
// transaction, which SQLite serializes against other writers.
func (s *Backend) CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	var expiresAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT value, expires_at FROM throttle_kv WHERE key = ?`, key,
	).Scan(&current, &expiresAt)

	exists := true
	if err == sql.ErrNoRows {
		exists = false
	} else if err != nil {
		return false, fmt.Errorf("read key %q: %w", key, err)
	} else if expired(expiresAt) {
		exists = false
	}

	if oldValue == "" {
		if exists {
			return false, nil
		}
	} else if !exists || current != oldValue {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO throttle_kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, newValue, expiresAtMillis(expiration)); err != nil {
		return false, fmt.Errorf("write key %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit key %q: %w", key, err)
	}
	return true, nil
}

func (s *Backend) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM throttle_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

// Len reports the number of unexpired rows.
func (s *Backend) Len() int {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM throttle_kv WHERE expires_at = 0 OR expires_at > ?`,
		time.Now().UnixMilli(),
	).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}

func (s *Backend) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite backend: %w", err)
	}
	return nil
}

var _ backends.Backend = (*Backend)(nil)
var _ backends.Sizer = (*Backend)(nil)
