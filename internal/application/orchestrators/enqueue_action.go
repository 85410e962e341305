package orchestrators

import (
	"context"
	"log/slog"
	"time"

	queueDomain "coachdesk/internal/domain/queue"
)

// QueueStoreForEnqueue defines the store interface needed by the enqueue
// orchestrator.
type QueueStoreForEnqueue interface {
	Append(ctx context.Context, a queueDomain.Action) error
}

// EnqueueActionInput carries input for the enqueue orchestrator.
type EnqueueActionInput struct {
	Type     string
	Payload  string // JSON captured at form-submission time
	TargetID int64  // entity ID for update operations
	ThreadID int64  // thread ID for message operations
}

// EnqueueActionDeps holds dependencies for ExecuteEnqueueAction.
type EnqueueActionDeps struct {
	QueueStore QueueStoreForEnqueue
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteEnqueueAction records a mutation that could not be delivered while
// offline. Enqueue never rejects: a persistence failure (storage quota,
// corrupt file) is logged and swallowed, favoring eventual delivery over
// immediate feedback.
// PRE: input.Type and input.Payload are non-empty
// POST: The action is durable in the queue, or the failure is logged
func ExecuteEnqueueAction(ctx context.Context, input EnqueueActionInput, deps EnqueueActionDeps) (queueDomain.Action, error) {
	a := queueDomain.Action{
		ID:       deps.GenerateID(),
		Type:     input.Type,
		Payload:  input.Payload,
		TargetID: input.TargetID,
		ThreadID: input.ThreadID,
		QueuedAt: deps.Now(),
	}
	if err := a.Validate(); err != nil {
		return queueDomain.Action{}, err
	}

	if err := deps.QueueStore.Append(ctx, a); err != nil {
		slog.Error("queue_event", "event", "persist_failed", "action_id", a.ID, "type", a.Type, "error", err)
		return a, nil
	}

	slog.Info("queue_event", "event", "action_queued", "action_id", a.ID, "type", a.Type)
	return a, nil
}
