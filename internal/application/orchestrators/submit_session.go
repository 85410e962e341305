package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coachdesk/internal/adapters/api"
	queueDomain "coachdesk/internal/domain/queue"
	"coachdesk/internal/domain/recurrence"
	"coachdesk/internal/domain/session"
)

// Submit outcome kinds.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeRecurring = "recurring"
	OutcomeDeferred  = "deferred" // CRM unreachable; queued for the next drain
)

// SessionAPIForSubmit defines the CRM client slice needed by the submit
// orchestrator.
type SessionAPIForSubmit interface {
	CreateSession(ctx context.Context, s session.Session) (session.Session, error)
	UpdateSession(ctx context.Context, id int64, s session.Session) error
	CreateRecurringRule(ctx context.Context, r recurrence.Rule) (int, error)
}

// SubmitSessionInput carries the session form exactly as the user filled it:
// separate date and time fields, an optional recurring block, and the editing
// target when the modal was opened on an existing session.
type SubmitSessionInput struct {
	SessionID int64 // non-zero means editing one concrete occurrence

	TrainerID       int64
	ClientID        int64
	Date            string // YYYY-MM-DD
	Time            string // HH:MM or HH:MM:SS
	DurationMinutes int    // zero means the default
	Type            string
	Status          string // editing only; creation derives status from the actor role
	Location        string
	Notes           string
	ActorRole       string // admin, trainer, client

	Recurring bool
	Pattern   string
	Weekdays  []int  // empty means "let the server infer from the start date"
	EndDate   string // YYYY-MM-DD, optional
}

// SubmitSessionDeps holds dependencies for ExecuteSubmitSession.
type SubmitSessionDeps struct {
	CRM        SessionAPIForSubmit
	Queue      QueueStoreForEnqueue
	Location   *time.Location
	GenerateID func() string
	Now        func() time.Time
}

// SubmitSessionResult reports which path ran and what it produced.
type SubmitSessionResult struct {
	Outcome         string
	Session         session.Session // created/updated session
	SessionsCreated int             // recurring path: the expander's count, verbatim
	QueuedActionID  string          // deferred path
}

// ExecuteSubmitSession handles all three submission paths of the session
// form: editing one occurrence, creating a recurring rule, and creating a
// single session. Validation failures return before any network call. A
// scheduling conflict surfaces as an error matching api.ErrConflict so the
// caller can report it distinctly. When the CRM is unreachable, a plain
// create is queued for the next drain instead of failing.
// PRE: input comes straight from the form; deps are fully populated
// POST: On success the mutation is delivered or durably queued
func ExecuteSubmitSession(ctx context.Context, input SubmitSessionInput, deps SubmitSessionDeps) (SubmitSessionResult, error) {
	if input.Recurring && input.SessionID == 0 {
		return submitRecurring(ctx, input, deps)
	}

	s, err := buildSession(input, deps.Location)
	if err != nil {
		return SubmitSessionResult{}, err
	}

	if input.SessionID > 0 {
		if err := deps.CRM.UpdateSession(ctx, input.SessionID, s); err != nil {
			return SubmitSessionResult{}, fmt.Errorf("update session %d: %w", input.SessionID, err)
		}
		s.ID = input.SessionID
		slog.Info("session_event", "event", "session_updated", "session_id", s.ID)
		return SubmitSessionResult{Outcome: OutcomeUpdated, Session: s}, nil
	}

	created, err := deps.CRM.CreateSession(ctx, s)
	if err != nil {
		if errors.Is(err, api.ErrUnreachable) {
			return deferCreate(ctx, s, deps)
		}
		return SubmitSessionResult{}, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session_event", "event", "session_created", "session_id", created.ID)
	return SubmitSessionResult{Outcome: OutcomeCreated, Session: created}, nil
}

// buildSession combines the form fields into a validated domain session.
func buildSession(input SubmitSessionInput, loc *time.Location) (session.Session, error) {
	date, err := session.CombineDateTime(input.Date, input.Time, loc)
	if err != nil {
		return session.Session{}, err
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = session.DefaultDurationMinutes
	}

	status := input.Status
	if input.SessionID == 0 {
		// The UI always creates in requested or scheduled state depending on
		// who is asking; the server owns every later transition.
		status = session.StatusScheduled
		if input.ActorRole == "client" {
			status = session.StatusRequested
		}
	}

	s := session.Session{
		ID:              input.SessionID,
		TrainerID:       input.TrainerID,
		ClientID:        input.ClientID,
		SessionDate:     date,
		DurationMinutes: duration,
		Type:            input.Type,
		Status:          status,
		Location:        input.Location,
		Notes:           input.Notes,
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// submitRecurring builds and submits a recurrence rule to the server-side
// expander.
func submitRecurring(ctx context.Context, input SubmitSessionInput, deps SubmitSessionDeps) (SubmitSessionResult, error) {
	startDate, err := time.ParseInLocation("2006-01-02", input.Date, deps.Location)
	if err != nil {
		return SubmitSessionResult{}, recurrence.ErrMissingStartDate
	}
	var endDate time.Time
	if input.EndDate != "" {
		endDate, err = time.ParseInLocation("2006-01-02", input.EndDate, deps.Location)
		if err != nil {
			return SubmitSessionResult{}, fmt.Errorf("invalid end date %q", input.EndDate)
		}
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = session.DefaultDurationMinutes
	}
	pattern := input.Pattern
	if pattern == "" {
		pattern = recurrence.PatternWeekly
	}

	rule := recurrence.Rule{
		TrainerID:       input.TrainerID,
		ClientID:        input.ClientID,
		DurationMinutes: duration,
		Type:            input.Type,
		Location:        input.Location,
		Notes:           input.Notes,
		StartTime:       input.Time,
		StartDate:       startDate,
		EndDate:         endDate,
		Pattern:         pattern,
		Weekdays:        input.Weekdays,
	}
	if err := rule.Validate(); err != nil {
		return SubmitSessionResult{}, err
	}

	count, err := deps.CRM.CreateRecurringRule(ctx, rule)
	if err != nil {
		return SubmitSessionResult{}, fmt.Errorf("create recurring rule: %w", err)
	}
	slog.Info("session_event", "event", "recurring_rule_created", "sessions_created", count)
	return SubmitSessionResult{Outcome: OutcomeRecurring, SessionsCreated: count}, nil
}

// deferCreate queues a plain create for the next drain cycle. The queued
// payload is the CRM wire shape, replayed as-is later.
func deferCreate(ctx context.Context, s session.Session, deps SubmitSessionDeps) (SubmitSessionResult, error) {
	payload, err := json.Marshal(map[string]any{
		"trainer_id":   s.TrainerID,
		"client_id":    s.ClientID,
		"session_date": s.SessionDate.Format(time.RFC3339),
		"duration":     s.DurationMinutes,
		"session_type": s.Type,
		"status":       s.Status,
		"location":     s.Location,
		"notes":        s.Notes,
	})
	if err != nil {
		return SubmitSessionResult{}, fmt.Errorf("encode deferred session: %w", err)
	}

	action, err := ExecuteEnqueueAction(ctx, EnqueueActionInput{
		Type:    queueDomain.TypeCreateSession,
		Payload: string(payload),
	}, EnqueueActionDeps{
		QueueStore: deps.Queue,
		GenerateID: deps.GenerateID,
		Now:        deps.Now,
	})
	if err != nil {
		return SubmitSessionResult{}, err
	}
	slog.Info("session_event", "event", "session_deferred", "action_id", action.ID)
	return SubmitSessionResult{Outcome: OutcomeDeferred, Session: s, QueuedActionID: action.ID}, nil
}
