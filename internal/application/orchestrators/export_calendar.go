package orchestrators

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/domain/calendar"
)

// SessionAPIForExport defines the CRM client slice needed by the export
// orchestrator.
type SessionAPIForExport interface {
	ExportSessions(ctx context.Context, from, to time.Time, f api.Filters) (io.ReadCloser, string, error)
}

// ExportCalendarInput selects the visible month and active filters.
type ExportCalendarInput struct {
	Year    int
	Month   time.Month
	Filters api.Filters
}

// ExportCalendarDeps holds dependencies for ExecuteExportCalendar.
type ExportCalendarDeps struct {
	CRM      SessionAPIForExport
	Location *time.Location
}

// ExecuteExportCalendar delegates the currently visible month plus filters to
// the CRM's calendar-export endpoint. Purely a pass-through; the caller
// streams the file to the user and owns closing it.
// PRE: input.Month is 1-12
// POST: Returns the export stream and its download filename
func ExecuteExportCalendar(ctx context.Context, input ExportCalendarInput, deps ExportCalendarDeps) (io.ReadCloser, string, error) {
	from, to := calendar.MonthRange(input.Year, input.Month, deps.Location)
	body, name, err := deps.CRM.ExportSessions(ctx, from, to, input.Filters)
	if err != nil {
		return nil, "", fmt.Errorf("export %d-%02d: %w", input.Year, input.Month, err)
	}
	slog.Info("calendar_event", "event", "export_started", "year", input.Year, "month", int(input.Month), "file", name)
	return body, name, nil
}
