package session

import (
	"errors"
	"fmt"
	"time"
)

// Session status constants.
const (
	StatusRequested = "requested" // created by a client, awaiting trainer confirmation
	StatusScheduled = "scheduled" // confirmed on the calendar
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Session type constants.
const (
	TypePersonal     = "personal"
	TypeGroup        = "group"
	TypeAssessment   = "assessment"
	TypeConsultation = "consultation"
)

// DefaultDurationMinutes is used when a form leaves duration blank.
const DefaultDurationMinutes = 60

// Max length constants for user-editable fields.
const (
	MaxLocationLength = 200
	MaxNotesLength    = 2000
)

// ValidStatuses contains all statuses the dashboard understands.
var ValidStatuses = []string{StatusRequested, StatusScheduled, StatusCompleted, StatusCancelled}

// ValidTypes contains all session types the dashboard understands.
var ValidTypes = []string{TypePersonal, TypeGroup, TypeAssessment, TypeConsultation}

// Domain errors.
var (
	ErrMissingDate      = errors.New("session date is required")
	ErrInvalidDuration  = errors.New("session duration must be a positive number of minutes")
	ErrInvalidType      = errors.New("session type is not recognized")
	ErrInvalidStatus    = errors.New("session status is not recognized")
	ErrMissingTrainer   = errors.New("trainer is required")
	ErrMissingClient    = errors.New("client is required")
	ErrLocationTooLong  = errors.New("location cannot exceed 200 characters")
	ErrNotesTooLong     = errors.New("notes cannot exceed 2000 characters")
	ErrInvalidDateParts = errors.New("date and time must both be provided")
)

// Session represents one scheduled trainer/client appointment instance.
// The ID is assigned by the CRM server and stays zero until creation succeeds.
// INVARIANT: SessionDate is a single instant; DurationMinutes > 0.
type Session struct {
	ID              int64
	TrainerID       int64
	ClientID        int64
	SessionDate     time.Time
	DurationMinutes int
	Type            string // personal, group, assessment, consultation
	Status          string // requested, scheduled, completed, cancelled
	Location        string
	Notes           string
}

// Validate checks the session's client-side invariants.
// PRE: Session struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (s *Session) Validate() error {
	if s.SessionDate.IsZero() {
		return ErrMissingDate
	}
	if s.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if !isValidType(s.Type) {
		return ErrInvalidType
	}
	if !isValidStatus(s.Status) {
		return ErrInvalidStatus
	}
	if s.TrainerID <= 0 {
		return ErrMissingTrainer
	}
	if s.ClientID <= 0 {
		return ErrMissingClient
	}
	if len(s.Location) > MaxLocationLength {
		return ErrLocationTooLong
	}
	if len(s.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// End returns the instant the session finishes.
// PRE: DurationMinutes > 0
// POST: Returns SessionDate + duration
func (s *Session) End() time.Time {
	return s.SessionDate.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// CombineDateTime builds a single timestamp from separate date and time form
// fields using strict layouts. The time field may or may not carry a seconds
// component; both forms are accepted explicitly rather than guessed at.
// PRE: dateStr is YYYY-MM-DD; timeStr is HH:MM or HH:MM:SS; loc is non-nil
// POST: Returns the combined instant in loc, or an error if either part is malformed
func CombineDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if dateStr == "" || timeStr == "" {
		return time.Time{}, ErrInvalidDateParts
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, dateStr+" "+timeStr, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date/time %q %q", dateStr, timeStr)
}

// LocalDay truncates an instant to midnight of its calendar date in loc.
// Grid bucketing and today-highlighting compare calendar dates, never instants,
// so sessions near a timezone boundary land in the expected cell.
// PRE: loc is non-nil
// POST: Returns midnight of t's calendar date in loc
func LocalDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func isValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
