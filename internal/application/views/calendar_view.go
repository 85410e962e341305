package views

import (
	"log/slog"
	"sync"
	"time"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/calendar"
)

// View states.
const (
	StateIdle     = "idle"
	StateLoading  = "loading"
	StateRendered = "rendered"
	StateFailed   = "failed"
)

// CalendarView holds the dashboard's calendar state: the visible month, the
// selected day, the active filters, and the most recently rendered month
// data. Navigation is instant and fetches are asynchronous, so every fetch is
// tagged with a sequence number and only the latest tag may apply its result.
// A stale response arriving after a newer navigation is discarded.
type CalendarView struct {
	mu sync.Mutex

	state        string
	year         int
	month        time.Month
	selectedDate time.Time
	filters      api.Filters
	loc          *time.Location

	seq      uint64
	rendered projections.CalendarMonthView
}

// Snapshot is a consistent read of the view for rendering.
type Snapshot struct {
	State        string
	Year         int
	Month        time.Month
	SelectedDate time.Time
	Filters      api.Filters
	Rendered     projections.CalendarMonthView
}

// NewCalendarView creates a view positioned on the current month with today
// selected.
// PRE: loc is non-nil
// POST: State is idle; no month data is rendered yet
func NewCalendarView(now time.Time, loc *time.Location) *CalendarView {
	local := now.In(loc)
	return &CalendarView{
		state:        StateIdle,
		year:         local.Year(),
		month:        local.Month(),
		selectedDate: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
		loc:          loc,
	}
}

// Snapshot returns a consistent copy of the current view state.
func (v *CalendarView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		State:        v.state,
		Year:         v.year,
		Month:        v.month,
		SelectedDate: v.selectedDate,
		Filters:      v.filters,
		Rendered:     v.rendered,
	}
}

// PrevMonth moves the visible month back one and starts a new fetch cycle.
// POST: Returns the token the caller must pass to Apply or Fail
func (v *CalendarView) PrevMonth() FetchToken {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.month--
	if v.month < time.January {
		v.month = time.December
		v.year--
	}
	return v.beginFetch()
}

// NextMonth moves the visible month forward one and starts a new fetch cycle.
// POST: Returns the token the caller must pass to Apply or Fail
func (v *CalendarView) NextMonth() FetchToken {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.month++
	if v.month > time.December {
		v.month = time.January
		v.year++
	}
	return v.beginFetch()
}

// GoToday snaps the view back to the current month and selects today.
// POST: Returns the token the caller must pass to Apply or Fail
func (v *CalendarView) GoToday(now time.Time) FetchToken {
	v.mu.Lock()
	defer v.mu.Unlock()
	local := now.In(v.loc)
	v.year = local.Year()
	v.month = local.Month()
	v.selectedDate = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, v.loc)
	return v.beginFetch()
}

// SetFilters replaces the active filters and starts a new fetch cycle.
// POST: Returns the token the caller must pass to Apply or Fail
func (v *CalendarView) SetFilters(f api.Filters) FetchToken {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = f
	return v.beginFetch()
}

// Refresh starts a new fetch cycle for the month already in view.
// POST: Returns the token the caller must pass to Apply or Fail
func (v *CalendarView) Refresh() FetchToken {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.beginFetch()
}

// SelectDate marks a day as selected without refetching.
// PRE: date is a calendar date in the view's location
func (v *CalendarView) SelectDate(date time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectedDate = date
}

// beginFetch bumps the sequence and flips to loading. Callers hold v.mu.
func (v *CalendarView) beginFetch() FetchToken {
	v.seq++
	v.state = StateLoading
	return FetchToken{
		Seq:     v.seq,
		Year:    v.year,
		Month:   v.month,
		Filters: v.filters,
	}
}

// FetchToken identifies one fetch cycle: the sequence tag plus the query the
// caller should run for it.
type FetchToken struct {
	Seq     uint64
	Year    int
	Month   time.Month
	Filters api.Filters
}

// Apply installs a fetched month if the token is still the latest. A stale
// token's data is dropped so an older response can never overwrite a newer
// month.
// PRE: token came from this view
// POST: Returns true only when the data was installed
func (v *CalendarView) Apply(token FetchToken, data projections.CalendarMonthView) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if token.Seq != v.seq {
		slog.Debug("calendar_event", "event", "stale_fetch_discarded", "seq", token.Seq, "latest", v.seq)
		return false
	}
	v.rendered = data
	v.state = StateRendered
	return true
}

// Fail marks the view failed if the token is still the latest. Rendered data
// is replaced with an empty grid for the requested month: a failed fetch never
// leaves session data from an earlier fetch on screen.
// PRE: token came from this view
// POST: Returns true only when the failure was recorded; Rendered carries no
// sessions afterwards
func (v *CalendarView) Fail(token FetchToken) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if token.Seq != v.seq {
		return false
	}
	v.state = StateFailed
	v.rendered = projections.CalendarMonthView{
		Year:  token.Year,
		Month: token.Month,
		Cells: calendar.MonthGrid(token.Year, token.Month, time.Time{}, v.loc),
	}
	return true
}
