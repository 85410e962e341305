package projections

import (
	"context"
	"fmt"

	queueDomain "coachdesk/internal/domain/queue"
)

// GetQueueStore defines the queue store slice for inspection.
type GetQueueStore interface {
	List(ctx context.Context) ([]queueDomain.Action, error)
}

// GetQueueDeps holds dependencies for the queue inspection projection.
type GetQueueDeps struct {
	QueueStore GetQueueStore
}

// QueueView lists the pending offline actions in replay order.
type QueueView struct {
	Actions []queueDomain.Action
	Count   int
}

// QueryGetQueue returns the pending offline actions, oldest first.
// PRE: deps.QueueStore is non-nil
// POST: Actions are in the order they will replay
func QueryGetQueue(ctx context.Context, deps GetQueueDeps) (QueueView, error) {
	actions, err := deps.QueueStore.List(ctx)
	if err != nil {
		return QueueView{}, fmt.Errorf("list offline queue: %w", err)
	}
	return QueueView{Actions: actions, Count: len(actions)}, nil
}
