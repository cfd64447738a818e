package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres stores keys in a single kv table. Used when attendance data
// should land in the site database instead of local files.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection with sane defaults and ensures the kv table exists.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pointage_kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: ensure kv table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close closes the underlying connection.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Get returns the stored value or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM pointage_kv WHERE key = $1`, key).Scan(&val)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kvstore: postgres get %s: %w", key, err)
	}
	return val, nil
}

// Set upserts value under key.
func (p *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pointage_kv (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("kvstore: postgres set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (p *Postgres) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM pointage_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("kvstore: postgres del %s: %w", key, err)
	}
	return nil
}
