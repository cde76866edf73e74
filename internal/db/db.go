// Package db provides SQLite persistence for chronline timelines.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database handle.
type DB struct {
	*sql.DB

	// Path is the database file path, or ":memory:".
	Path string
}

// defaultBusyTimeoutMs is how long SQLite waits on a locked database
// before surfacing SQLITE_BUSY.
const defaultBusyTimeoutMs = 5000

// Open opens (and creates if needed) the SQLite database at path.
// WAL mode and foreign keys are enabled and migrations run on open.
// busyTimeoutMs <= 0 selects the default.
func Open(path string, busyTimeoutMs int) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if busyTimeoutMs <= 0 {
		busyTimeoutMs = defaultBusyTimeoutMs
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs),
	}
	for _, pragma := range pragmas {
		if _, err := handle.Exec(pragma); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	db := &DB{DB: handle, Path: path}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Transaction runs fn inside a transaction, committing on nil error and
// rolling back otherwise.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. Statements are idempotent so re-running
// on an existing database is safe.
func (db *DB) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS timelines (
			id                 TEXT PRIMARY KEY,
			organization_scope TEXT NOT NULL DEFAULT '',
			created_at         TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lines (
			id          TEXT PRIMARY KEY,
			timeline_id TEXT NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			line_id     TEXT NOT NULL REFERENCES lines(id) ON DELETE CASCADE,
			icon        TEXT NOT NULL,
			date        TEXT NOT NULL,
			time        TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			position    TEXT NOT NULL CHECK (position IN ('top', 'bottom')),
			status      TEXT NOT NULL CHECK (status IN ('created', 'resolved', 'no_response')),
			ord         INTEGER NOT NULL,
			created_at  TEXT NOT NULL,
			UNIQUE (line_id, ord)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_timeline ON lines(timeline_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_events_line ON events(line_id, ord)`,
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
