package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool
type DB struct {
	*sql.DB
}

// New opens a connection pool and verifies it with a ping
func New(databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// HealthCheck verifies the database connection
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	uid          TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	color        TEXT NOT NULL DEFAULT '',
	position     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tasks (
	id              UUID PRIMARY KEY,
	collection_uid  TEXT NOT NULL REFERENCES collections(uid) ON DELETE CASCADE,
	title           TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	priority        INTEGER NOT NULL DEFAULT 0,
	start_at        TIMESTAMPTZ,
	start_date_only BOOLEAN NOT NULL DEFAULT FALSE,
	due_at          TIMESTAMPTZ,
	due_date_only   BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at    TIMESTAMPTZ,
	timezone        TEXT NOT NULL DEFAULT '',
	rrule           TEXT NOT NULL DEFAULT '',
	tags            TEXT[] NOT NULL DEFAULT '{}',
	ical            TEXT NOT NULL,
	last_modified   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS tasks_collection_due_idx ON tasks (collection_uid, due_at);

CREATE TABLE IF NOT EXISTS task_history (
	id             UUID PRIMARY KEY,
	task_id        UUID NOT NULL,
	collection_uid TEXT NOT NULL,
	event          TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	payload        JSONB NOT NULL DEFAULT '{}'
);
`

// Migrate creates the tables the repositories use
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
