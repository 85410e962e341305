package recurrence

import (
	"errors"
	"time"

	"coachdesk/internal/domain/session"
)

// Recurrence pattern constants.
const (
	PatternWeekly   = "weekly"
	PatternBiweekly = "biweekly"
)

// ValidPatterns contains all patterns the dashboard understands.
var ValidPatterns = []string{PatternWeekly, PatternBiweekly}

// Domain errors.
var (
	ErrMissingTrainer   = errors.New("trainer is required")
	ErrMissingClient    = errors.New("client is required")
	ErrMissingStartDate = errors.New("start date is required")
	ErrMissingStartTime = errors.New("start time is required")
	ErrInvalidPattern   = errors.New("recurrence pattern is not recognized")
	ErrInvalidWeekday   = errors.New("weekdays must be between 0 (Sunday) and 6 (Saturday)")
	ErrEndBeforeStart   = errors.New("end date cannot be before start date")
	ErrInvalidDuration  = errors.New("duration must be a positive number of minutes")
	ErrInvalidType      = errors.New("session type is not recognized")
)

// Rule is a template that, when expanded by the CRM server, produces multiple
// concrete sessions. Expansion never happens client-side; the dashboard only
// submits the rule and reports the count the server says it generated.
// INVARIANT: Weekdays, when set, contains only values in [0,6].
// INVARIANT: StartDate <= EndDate when EndDate is set.
type Rule struct {
	TrainerID       int64
	ClientID        int64
	DurationMinutes int
	Type            string
	Location        string
	Notes           string
	StartTime       string // HH:MM
	StartDate       time.Time
	EndDate         time.Time // zero value means open-ended
	Pattern         string    // weekly, biweekly
	Weekdays        []int     // 0 = Sunday .. 6 = Saturday; empty defaults to StartDate's weekday
}

// Validate checks the rule's client-side invariants.
// PRE: Rule struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (r *Rule) Validate() error {
	if r.TrainerID <= 0 {
		return ErrMissingTrainer
	}
	if r.ClientID <= 0 {
		return ErrMissingClient
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if !validType(r.Type) {
		return ErrInvalidType
	}
	if r.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if r.StartTime == "" {
		return ErrMissingStartTime
	}
	if !validPattern(r.Pattern) {
		return ErrInvalidPattern
	}
	for _, d := range r.Weekdays {
		if d < 0 || d > 6 {
			return ErrInvalidWeekday
		}
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// EffectiveWeekdays returns the weekdays the rule will expand on: the explicit
// selection, or the weekday of StartDate when the user checked nothing. The
// wire payload always carries this explicit set so the expander never has to
// guess.
// PRE: StartDate is set
// POST: Returns a non-empty slice of weekday indices
func (r *Rule) EffectiveWeekdays() []int {
	if len(r.Weekdays) > 0 {
		return r.Weekdays
	}
	return []int{int(r.StartDate.Weekday())}
}

func validPattern(p string) bool {
	for _, v := range ValidPatterns {
		if v == p {
			return true
		}
	}
	return false
}

func validType(t string) bool {
	for _, v := range session.ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}
