package views

import (
	"testing"
	"time"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/calendar"
	"coachdesk/internal/domain/session"
)

func newTestView() *CalendarView {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	return NewCalendarView(now, time.UTC)
}

func monthData(year int, month time.Month) projections.CalendarMonthView {
	return projections.CalendarMonthView{Year: year, Month: month}
}

func TestNewCalendarView(t *testing.T) {
	v := newTestView()
	snap := v.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("expected idle, got %q", snap.State)
	}
	if snap.Year != 2026 || snap.Month != time.March {
		t.Errorf("expected March 2026, got %d-%d", snap.Year, snap.Month)
	}
	if snap.SelectedDate.Day() != 10 {
		t.Errorf("expected today selected, got %v", snap.SelectedDate)
	}
}

func TestNavigation_YearBoundaries(t *testing.T) {
	v := NewCalendarView(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), time.UTC)

	token := v.PrevMonth()
	if token.Year != 2025 || token.Month != time.December {
		t.Fatalf("expected December 2025, got %d-%d", token.Year, token.Month)
	}
	if got := v.Snapshot().State; got != StateLoading {
		t.Errorf("expected loading after navigation, got %q", got)
	}

	v.NextMonth()
	token = v.NextMonth()
	if token.Year != 2026 || token.Month != time.February {
		t.Fatalf("expected February 2026, got %d-%d", token.Year, token.Month)
	}
}

func TestApply_LatestWins(t *testing.T) {
	v := newTestView()

	stale := v.NextMonth() // April
	fresh := v.NextMonth() // May

	// The newer fetch resolves first.
	if !v.Apply(fresh, monthData(2026, time.May)) {
		t.Fatal("latest token must apply")
	}
	// The older fetch resolves late and must be discarded.
	if v.Apply(stale, monthData(2026, time.April)) {
		t.Fatal("stale token must not apply")
	}

	snap := v.Snapshot()
	if snap.State != StateRendered || snap.Rendered.Month != time.May {
		t.Fatalf("expected May rendered, got %+v", snap)
	}
}

func TestFail_ClearsRenderedData(t *testing.T) {
	v := newTestView()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	march := monthData(2026, time.March)
	march.Total = 5
	march.Cells = calendar.MonthGrid(2026, time.March, now, time.UTC)
	march.Cells[9].Sessions = []session.Session{{ID: 7}}

	first := v.Refresh()
	v.Apply(first, march)

	second := v.NextMonth()
	if !v.Fail(second) {
		t.Fatal("latest token must record the failure")
	}

	snap := v.Snapshot()
	if snap.State != StateFailed {
		t.Errorf("expected failed state, got %q", snap.State)
	}
	if snap.Rendered.Month != time.April || snap.Rendered.Total != 0 {
		t.Fatalf("expected an empty April grid, got month %v with total %d",
			snap.Rendered.Month, snap.Rendered.Total)
	}
	if len(snap.Rendered.Cells) != calendar.GridCells {
		t.Fatalf("expected a full empty grid, got %d cells", len(snap.Rendered.Cells))
	}
	for _, c := range snap.Rendered.Cells {
		if len(c.Sessions) != 0 {
			t.Fatalf("a failed fetch must not keep earlier sessions, found some on %v", c.Date)
		}
	}
}

func TestFail_StaleIgnored(t *testing.T) {
	v := newTestView()

	stale := v.Refresh()
	fresh := v.Refresh()
	v.Apply(fresh, monthData(2026, time.March))

	if v.Fail(stale) {
		t.Fatal("stale failure must be ignored")
	}
	if got := v.Snapshot().State; got != StateRendered {
		t.Errorf("expected rendered, got %q", got)
	}
}

func TestSetFilters_TokenCarriesQuery(t *testing.T) {
	v := newTestView()
	token := v.SetFilters(api.Filters{TrainerID: 4, Status: "scheduled"})
	if token.Filters.TrainerID != 4 || token.Filters.Status != "scheduled" {
		t.Fatalf("token must carry the new filters, got %+v", token.Filters)
	}
	if token.Year != 2026 || token.Month != time.March {
		t.Fatalf("filter change must not move the month, got %d-%d", token.Year, token.Month)
	}
}

func TestGoToday(t *testing.T) {
	v := newTestView()
	v.NextMonth()
	v.NextMonth()

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	token := v.GoToday(now)
	if token.Year != 2026 || token.Month != time.March {
		t.Fatalf("expected March 2026, got %d-%d", token.Year, token.Month)
	}
	if got := v.Snapshot().SelectedDate.Day(); got != 10 {
		t.Errorf("expected today selected, got day %d", got)
	}
}
