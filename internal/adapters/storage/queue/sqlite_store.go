package queue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/queue"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the queue Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new offline queue store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append adds an action to the end of the queue and persists it.
// PRE: action has been validated
// POST: Action is durable and ordered after every existing entry
func (s *SQLiteStore) Append(ctx context.Context, a domain.Action) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO offline_queue (id, position, action_type, payload, target_id, thread_id, queued_at)
		 VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM offline_queue), ?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.Payload, a.TargetID, a.ThreadID, a.QueuedAt.Format(dateLayout))
	return err
}

// List returns the whole queue in insertion order.
// PRE: none
// POST: Returns all pending actions, oldest first
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Action, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action_type, payload, target_id, thread_id, queued_at
		 FROM offline_queue ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActions(rows)
}

// Remove deletes the actions with the given ids. Entries appended after the
// caller's List snapshot are left untouched, so a drain can never discard an
// action it did not replay.
// PRE: ids came from a previous List
// POST: No action with a listed id remains; the rest keep their order
func (s *SQLiteStore) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM offline_queue WHERE id IN (`+placeholders+`)`, args...)
	return err
}

// Count returns the number of pending actions.
// PRE: none
// POST: Returns the queue length
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_queue`).Scan(&n)
	return n, err
}

// scanActions scans all rows into Actions.
func scanActions(rows *sql.Rows) ([]domain.Action, error) {
	var actions []domain.Action
	for rows.Next() {
		var a domain.Action
		var queuedAt string
		if err := rows.Scan(&a.ID, &a.Type, &a.Payload, &a.TargetID, &a.ThreadID, &queuedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(dateLayout, queuedAt)
		if err != nil {
			return nil, fmt.Errorf("queued action %s has invalid queued_at %q: %w", a.ID, queuedAt, err)
		}
		a.QueuedAt = t
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
