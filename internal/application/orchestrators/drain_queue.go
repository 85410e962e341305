package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"coachdesk/internal/adapters/notify"
	queueDomain "coachdesk/internal/domain/queue"
)

// QueueStoreForDrain defines the store interface needed by the drainer.
type QueueStoreForDrain interface {
	List(ctx context.Context) ([]queueDomain.Action, error)
	Remove(ctx context.Context, ids []string) error
}

// Executor replays one queued action against its remote operation.
type Executor interface {
	// Replay delivers the action.
	// PRE: action.Type matches this executor's registration
	// POST: Returns nil only when the remote operation confirmed success
	Replay(ctx context.Context, a queueDomain.Action) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, a queueDomain.Action) error

// Replay calls the function.
func (f ExecutorFunc) Replay(ctx context.Context, a queueDomain.Action) error { return f(ctx, a) }

// QueueReplayAPI is the slice of the CRM client the drain executors need.
type QueueReplayAPI interface {
	CreateClient(ctx context.Context, payload json.RawMessage) error
	UpdateClient(ctx context.Context, id int64, payload json.RawMessage) error
	CreateSessionRaw(ctx context.Context, payload json.RawMessage) error
	CreateMessage(ctx context.Context, threadID int64, payload json.RawMessage) error
	SendSMS(ctx context.Context, payload json.RawMessage) error
}

// CRMExecutors builds the executor registry covering every known action type.
// PRE: crm is non-nil
// POST: Returns one executor per recognized queue action type
func CRMExecutors(crm QueueReplayAPI) map[string]Executor {
	return map[string]Executor{
		queueDomain.TypeCreateClient: ExecutorFunc(func(ctx context.Context, a queueDomain.Action) error {
			return crm.CreateClient(ctx, json.RawMessage(a.Payload))
		}),
		queueDomain.TypeUpdateClient: ExecutorFunc(func(ctx context.Context, a queueDomain.Action) error {
			return crm.UpdateClient(ctx, a.TargetID, json.RawMessage(a.Payload))
		}),
		queueDomain.TypeCreateSession: ExecutorFunc(func(ctx context.Context, a queueDomain.Action) error {
			return crm.CreateSessionRaw(ctx, json.RawMessage(a.Payload))
		}),
		queueDomain.TypeCreateMessage: ExecutorFunc(func(ctx context.Context, a queueDomain.Action) error {
			return crm.CreateMessage(ctx, a.ThreadID, json.RawMessage(a.Payload))
		}),
		queueDomain.TypeSendSMS: ExecutorFunc(func(ctx context.Context, a queueDomain.Action) error {
			return crm.SendSMS(ctx, json.RawMessage(a.Payload))
		}),
	}
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Skipped   bool // another drain was already in progress
	Attempted int
	Succeeded int
	Failed    int
}

// QueueDrainer replays queued actions when connectivity returns. Drain is
// single-flight: if the online event and the eager startup check fire close
// together, the second call is a no-op rather than a double delivery.
type QueueDrainer struct {
	store     QueueStoreForDrain
	executors map[string]Executor
	notifier  notify.Notifier

	mu       sync.Mutex
	draining bool
}

// NewQueueDrainer creates a drainer over the given store and executors.
// PRE: store and executors are non-nil; notifier may be a NoopNotifier
// POST: Returns a ready drainer in the idle state
func NewQueueDrainer(store QueueStoreForDrain, executors map[string]Executor, notifier notify.Notifier) *QueueDrainer {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &QueueDrainer{store: store, executors: executors, notifier: notifier}
}

// Drain replays every queued action in insertion order and removes exactly
// the entries whose replay was confirmed. Failures keep their original
// relative order, unknown action types count as failures for their entry
// (dropping them would lose user data with no recovery path), and actions
// appended while the drain is running are left untouched for the next cycle.
// PRE: ctx is valid
// POST: Only actions with a confirmed successful replay are removed
func (d *QueueDrainer) Drain(ctx context.Context) (DrainResult, error) {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		slog.Debug("queue_event", "event", "drain_skipped_in_progress")
		return DrainResult{Skipped: true}, nil
	}
	d.draining = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.draining = false
		d.mu.Unlock()
	}()

	actions, err := d.store.List(ctx)
	if err != nil {
		return DrainResult{}, fmt.Errorf("list offline queue: %w", err)
	}
	if len(actions) == 0 {
		return DrainResult{}, nil
	}

	slog.Info("queue_event", "event", "drain_start", "count", len(actions))

	result := DrainResult{Attempted: len(actions)}
	var synced []string
	for _, a := range actions {
		executor, ok := d.executors[a.Type]
		if !ok {
			result.Failed++
			slog.Warn("queue_event", "event", "drain_unknown_type", "action_id", a.ID, "type", a.Type)
			continue
		}
		if err := executor.Replay(ctx, a); err != nil {
			result.Failed++
			slog.Warn("queue_event", "event", "drain_replay_failed", "action_id", a.ID, "type", a.Type, "error", err)
			continue
		}
		result.Succeeded++
		synced = append(synced, a.ID)
		slog.Info("queue_event", "event", "drain_replayed", "action_id", a.ID, "type", a.Type)
	}

	if len(synced) > 0 {
		if err := d.store.Remove(ctx, synced); err != nil {
			// The actions that synced will be retried next cycle; the server is
			// expected to tolerate the duplicates.
			slog.Error("queue_event", "event", "drain_persist_failed", "error", err)
		}
	}

	if result.Succeeded > 0 && d.notifier.Permitted() {
		body := fmt.Sprintf("%d offline action(s) synced", result.Succeeded)
		if err := d.notifier.Notify(ctx, "CoachDesk", body); err != nil {
			slog.Warn("queue_event", "event", "notify_failed", "error", err)
		}
	}

	slog.Info("queue_event", "event", "drain_complete",
		"attempted", result.Attempted, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}
