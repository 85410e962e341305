package calendar

import (
	"sort"
	"time"

	"coachdesk/internal/domain/session"
)

// GridCells is the fixed size of the month view: six full weeks of seven days.
// Leading and trailing cells are borrowed from the adjacent months so every
// row renders full.
const GridCells = 42

// UpcomingLimit caps the upcoming-sessions side list.
const UpcomingLimit = 10

// Cell is one calendar day's slot in the month grid, addressable by its local
// calendar date.
type Cell struct {
	Date     time.Time // midnight of the cell's calendar date
	InMonth  bool      // false for leading/trailing adjacent-month days
	Today    bool
	Sessions []session.Session
}

// MonthGrid computes the 6x7 day grid for a month. Pure function of the
// month/year and today's date; never touches remote state.
// PRE: month is 1-12; loc is non-nil
// POST: Returns exactly GridCells cells; the cell matching today's calendar
// date in loc (if visible) is marked Today
func MonthGrid(year int, month time.Month, today time.Time, loc *time.Location) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Walk back to the Sunday that starts the first row.
	start := first.AddDate(0, 0, -int(first.Weekday()))
	todayDay := session.LocalDay(today, loc)

	cells := make([]Cell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		day := start.AddDate(0, 0, i)
		cells = append(cells, Cell{
			Date:    day,
			InMonth: day.Month() == month && day.Year() == year,
			Today:   day.Equal(todayDay),
		})
	}
	return cells
}

// MonthRange returns the inclusive query window for a visible month:
// first day 00:00:00 through last day 23:59:59.
// PRE: month is 1-12; loc is non-nil
// POST: from <= to, both within the given month
func MonthRange(year int, month time.Month, loc *time.Location) (from, to time.Time) {
	from = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to = from.AddDate(0, 1, 0).Add(-time.Second)
	return from, to
}

// BucketSessions assigns each session to exactly one grid cell by the
// session's local calendar date. Sessions outside the grid are ignored.
// PRE: cells came from MonthGrid; loc is non-nil
// POST: Each cell's Sessions are sorted ascending by SessionDate
func BucketSessions(cells []Cell, sessions []session.Session, loc *time.Location) {
	byDay := make(map[time.Time]int, len(cells))
	for i := range cells {
		cells[i].Sessions = nil
		byDay[cells[i].Date] = i
	}
	for _, s := range sessions {
		day := session.LocalDay(s.SessionDate, loc)
		if i, ok := byDay[day]; ok {
			cells[i].Sessions = append(cells[i].Sessions, s)
		}
	}
	for i := range cells {
		sort.Slice(cells[i].Sessions, func(a, b int) bool {
			return cells[i].Sessions[a].SessionDate.Before(cells[i].Sessions[b].SessionDate)
		})
	}
}

// Upcoming returns the side-list of sessions still ahead: status scheduled,
// starting at or after now, ascending, capped at UpcomingLimit.
// PRE: now is set
// POST: Result length <= UpcomingLimit; input slice is not mutated
func Upcoming(sessions []session.Session, now time.Time) []session.Session {
	var out []session.Session
	for _, s := range sessions {
		if s.Status == session.StatusScheduled && !s.SessionDate.Before(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].SessionDate.Before(out[b].SessionDate)
	})
	if len(out) > UpcomingLimit {
		out = out[:UpcomingLimit]
	}
	return out
}
