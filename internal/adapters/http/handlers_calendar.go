package web

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/application/views"
)

// filtersFromQuery parses the optional filter query parameters.
func filtersFromQuery(r *http.Request) api.Filters {
	var f api.Filters
	if v := r.URL.Query().Get("trainer_id"); v != "" {
		f.TrainerID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("client_id"); v != "" {
		f.ClientID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		f.Status = v
	}
	return f
}

// runFetch executes the fetch cycle for a navigation token and responds with
// the resulting view snapshot. A stale result is silently dropped; the
// snapshot returned always reflects the latest navigation.
func runFetch(w http.ResponseWriter, r *http.Request, token views.FetchToken) {
	data, err := projections.QueryGetCalendarMonth(r.Context(), projections.GetCalendarMonthQuery{
		Year:    token.Year,
		Month:   token.Month,
		Filters: token.Filters,
	}, projections.GetCalendarMonthDeps{
		CRM:      deps.CRM,
		Location: deps.Location,
		Now:      timeNow,
	})
	if err != nil {
		deps.View.Fail(token)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":    "could not reach the CRM",
			"snapshot": deps.View.Snapshot(),
		})
		return
	}
	deps.View.Apply(token, data)
	writeJSON(w, http.StatusOK, deps.View.Snapshot())
}

// handleCalendar handles GET /api/calendar: refetch the month already in view.
func handleCalendar(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	runFetch(w, r, deps.View.Refresh())
}

// handleCalendarPrev handles POST /api/calendar/prev.
func handleCalendarPrev(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	runFetch(w, r, deps.View.PrevMonth())
}

// handleCalendarNext handles POST /api/calendar/next.
func handleCalendarNext(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	runFetch(w, r, deps.View.NextMonth())
}

// handleCalendarToday handles POST /api/calendar/today.
func handleCalendarToday(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	runFetch(w, r, deps.View.GoToday(timeNow()))
}

// handleCalendarFilters handles POST /api/calendar/filters. Filters arrive as
// query parameters so the endpoint composes with the navigation ones.
func handleCalendarFilters(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	runFetch(w, r, deps.View.SetFilters(filtersFromQuery(r)))
}

// handleCalendarDay handles GET /api/calendar/day?date=YYYY-MM-DD, the day
// detail panel with Markdown-rendered session notes.
func handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	view, err := projections.QueryGetDayDetail(r.Context(), projections.GetDayDetailQuery{
		Date:    r.URL.Query().Get("date"),
		Filters: filtersFromQuery(r),
	}, projections.GetDayDetailDeps{
		CRM:      deps.CRM,
		Location: deps.Location,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCalendarExport handles GET /api/calendar/export, streaming the CRM's
// calendar file for the visible month.
func handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	snap := deps.View.Snapshot()
	year, month := snap.Year, snap.Month
	if v := r.URL.Query().Get("year"); v != "" {
		year, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, _ := strconv.Atoi(v)
		month = time.Month(m)
	}

	body, name, err := orchestrators.ExecuteExportCalendar(r.Context(), orchestrators.ExportCalendarInput{
		Year:    year,
		Month:   month,
		Filters: snap.Filters,
	}, orchestrators.ExportCalendarDeps{
		CRM:      deps.CRM,
		Location: deps.Location,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	io.Copy(w, body)
}
