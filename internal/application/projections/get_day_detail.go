package projections

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/yuin/goldmark"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/domain/session"
)

// GetDayDetailQuery carries query parameters.
type GetDayDetailQuery struct {
	Date    string // YYYY-MM-DD
	Filters api.Filters
}

// DayDetailSession is one session in the day panel, with its notes rendered
// from Markdown for display.
type DayDetailSession struct {
	Session   session.Session
	NotesHTML string
}

// DayDetailView lists a single day's sessions in start-time order.
type DayDetailView struct {
	Date     time.Time
	Sessions []DayDetailSession
}

// GetDayDetailDeps holds dependencies for the day panel projection.
type GetDayDetailDeps struct {
	CRM      GetCalendarMonthSessionAPI
	Location *time.Location
}

// QueryGetDayDetail fetches one calendar day's sessions and renders each
// session's notes from Markdown. A note that fails to render falls back to
// the raw text rather than hiding the session.
// PRE: query.Date is YYYY-MM-DD
// POST: Sessions are in ascending start order
func QueryGetDayDetail(ctx context.Context, query GetDayDetailQuery, deps GetDayDetailDeps) (DayDetailView, error) {
	day, err := time.ParseInLocation("2006-01-02", query.Date, deps.Location)
	if err != nil {
		return DayDetailView{}, fmt.Errorf("invalid date %q", query.Date)
	}
	from := day
	to := day.AddDate(0, 0, 1).Add(-time.Second)

	sessions, err := deps.CRM.ListSessions(ctx, from, to, query.Filters)
	if err != nil {
		return DayDetailView{}, fmt.Errorf("fetch day %s: %w", query.Date, err)
	}

	sort.Slice(sessions, func(a, b int) bool {
		return sessions[a].SessionDate.Before(sessions[b].SessionDate)
	})

	view := DayDetailView{Date: day}
	for _, s := range sessions {
		view.Sessions = append(view.Sessions, DayDetailSession{
			Session:   s,
			NotesHTML: renderNotes(s),
		})
	}
	return view, nil
}

func renderNotes(s session.Session) string {
	if s.Notes == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s.Notes), &buf); err != nil {
		slog.Warn("calendar_event", "event", "notes_render_failed", "session_id", s.ID, "error", err)
		return s.Notes
	}
	return buf.String()
}
