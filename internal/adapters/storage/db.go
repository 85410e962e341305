package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// InitDB initializes the local database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// The local database holds only what must survive a restart: the offline
	// action queue. Everything else lives in the CRM.
	schema := `
	CREATE TABLE IF NOT EXISTS offline_queue (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		target_id INTEGER NOT NULL DEFAULT 0,
		thread_id INTEGER NOT NULL DEFAULT 0,
		queued_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_offline_queue_position ON offline_queue(position);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
