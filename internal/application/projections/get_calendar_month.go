package projections

import (
	"context"
	"fmt"
	"time"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/domain/calendar"
	"coachdesk/internal/domain/session"
)

// GetCalendarMonthSessionAPI defines the CRM client slice for the month view.
type GetCalendarMonthSessionAPI interface {
	ListSessions(ctx context.Context, from, to time.Time, f api.Filters) ([]session.Session, error)
}

// GetCalendarMonthQuery carries query parameters.
type GetCalendarMonthQuery struct {
	Year    int
	Month   time.Month
	Filters api.Filters
}

// GetCalendarMonthDeps holds dependencies for the month view projection.
type GetCalendarMonthDeps struct {
	CRM      GetCalendarMonthSessionAPI
	Location *time.Location
	Now      func() time.Time
}

// CalendarMonthView is the fully assembled month view: the 6x7 grid with
// sessions bucketed per day, plus the upcoming side list.
type CalendarMonthView struct {
	Year     int
	Month    time.Month
	Cells    []calendar.Cell
	Upcoming []session.Session
	Total    int
}

// QueryGetCalendarMonth fetches one month of sessions and assembles the grid.
// A fetch failure returns an error with no partial view; the caller keeps
// showing whatever it already had.
// PRE: query.Month is 1-12; deps are fully populated
// POST: Returns a complete view or an error, never a partially filled grid
func QueryGetCalendarMonth(ctx context.Context, query GetCalendarMonthQuery, deps GetCalendarMonthDeps) (CalendarMonthView, error) {
	from, to := calendar.MonthRange(query.Year, query.Month, deps.Location)
	sessions, err := deps.CRM.ListSessions(ctx, from, to, query.Filters)
	if err != nil {
		return CalendarMonthView{}, fmt.Errorf("fetch %d-%02d sessions: %w", query.Year, query.Month, err)
	}

	now := deps.Now()
	cells := calendar.MonthGrid(query.Year, query.Month, now, deps.Location)
	calendar.BucketSessions(cells, sessions, deps.Location)

	return CalendarMonthView{
		Year:     query.Year,
		Month:    query.Month,
		Cells:    cells,
		Upcoming: calendar.Upcoming(sessions, now),
		Total:    len(sessions),
	}, nil
}
