package queue

import (
	"errors"
	"time"
)

// Action type constants: the remote operations a queued mutation can replay.
const (
	TypeCreateClient  = "create_client"
	TypeUpdateClient  = "update_client"
	TypeCreateSession = "create_session"
	TypeCreateMessage = "create_message"
	TypeSendSMS       = "send_sms"
)

// Domain errors.
var (
	ErrEmptyType    = errors.New("action type is required")
	ErrEmptyPayload = errors.New("payload is required")
	ErrMissingID    = errors.New("action ID is required")
)

// Action is a durable record of a mutation that could not be delivered while
// the dashboard was offline. Queue order is insertion order; an action leaves
// the queue only on confirmed success.
type Action struct {
	ID       string // locally generated, unique
	Type     string // which remote operation to replay
	Payload  string // JSON payload for the operation
	TargetID int64  // entity ID for update operations, zero otherwise
	ThreadID int64  // message thread for message operations, zero otherwise
	QueuedAt time.Time
}

// Validate checks that the Action can be persisted and later replayed.
// PRE: Action struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Action) Validate() error {
	if a.ID == "" {
		return ErrMissingID
	}
	if a.Type == "" {
		return ErrEmptyType
	}
	if a.Payload == "" {
		return ErrEmptyPayload
	}
	if a.QueuedAt.IsZero() {
		return errors.New("queued_at must be set")
	}
	return nil
}

// KnownType reports whether the action's type tag is one the replayer
// understands. Unknown tags are kept in the queue on drain rather than
// dropped, since dropping would lose user data with no recovery path.
// PRE: Type field is set
// POST: Returns true only for a recognized type tag
func (a *Action) KnownType() bool {
	switch a.Type {
	case TypeCreateClient, TypeUpdateClient, TypeCreateSession, TypeCreateMessage, TypeSendSMS:
		return true
	}
	return false
}
