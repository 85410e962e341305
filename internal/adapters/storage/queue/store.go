package queue

import (
	"context"

	domain "coachdesk/internal/domain/queue"
)

// Store defines the interface for offline queue persistence. The queue logic
// never touches SQLite directly, so tests can inject an in-memory fake.
type Store interface {
	// Append adds an action to the end of the queue and persists it.
	// PRE: action has been validated
	// POST: Action is durable and ordered after every existing entry
	Append(ctx context.Context, a domain.Action) error

	// List returns the whole queue in insertion order.
	// PRE: none
	// POST: Returns all pending actions, oldest first
	List(ctx context.Context) ([]domain.Action, error)

	// Remove deletes the actions with the given ids. Drain uses this to
	// discard exactly the entries that replayed successfully; everything
	// else, including actions appended after the caller's List, is left
	// untouched in its original order.
	// PRE: ids came from a previous List
	// POST: No action with a listed id remains; the rest keep their order
	Remove(ctx context.Context, ids []string) error

	// Count returns the number of pending actions.
	// PRE: none
	// POST: Returns the queue length
	Count(ctx context.Context) (int, error)
}
