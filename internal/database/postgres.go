package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS band_name_checks (
	id               BIGSERIAL PRIMARY KEY,
	checked_at       TIMESTAMPTZ NOT NULL,
	band_name        TEXT        NOT NULL,
	verdict          TEXT        NOT NULL,
	threshold        SMALLINT    NOT NULL,
	max_severity     SMALLINT    NOT NULL,
	response_time_ms BIGINT      NOT NULL,
	categories       JSONB       NOT NULL,
	override_rule    TEXT
);
CREATE INDEX IF NOT EXISTS band_name_checks_checked_at_idx ON band_name_checks (checked_at);`

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pgPool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{
		Pool: pgPool,
	}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// EnsureSchema creates the results table if it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
