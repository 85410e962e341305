package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coachdesk/internal/domain/recurrence"
	"coachdesk/internal/domain/session"
)

// TestListSessions tests query construction and response mapping.
func TestListSessions(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":7,"trainer_id":5,"client_id":12,"session_date":"2025-03-10T09:00:00Z","duration":60,"session_type":"personal","status":"scheduled","location":"Studio A"}]`)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	sessions, err := c.ListSessions(context.Background(), from, to, Filters{TrainerID: 5, Status: "scheduled"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["trainer_id"] != "5" {
		t.Errorf("expected trainer_id=5, got %q", gotQuery["trainer_id"])
	}
	if gotQuery["status"] != "scheduled" {
		t.Errorf("expected status=scheduled, got %q", gotQuery["status"])
	}
	if _, ok := gotQuery["client_id"]; ok {
		t.Error("client_id filter should be omitted when zero")
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.ID != 7 || s.TrainerID != 5 || s.DurationMinutes != 60 || s.Type != session.TypePersonal {
		t.Fatalf("unexpected session mapping: %+v", s)
	}
	if !s.SessionDate.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected session date: %v", s.SessionDate)
	}
}

// TestCreateSession tests that the server-assigned ID comes back.
func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p sessionPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		p.ID = 42
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	created, err := c.CreateSession(context.Background(), session.Session{
		TrainerID:       5,
		ClientID:        12,
		SessionDate:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Type:            session.TypePersonal,
		Status:          session.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 42 {
		t.Fatalf("expected server-assigned ID 42, got %d", created.ID)
	}
}

// TestUpdateSession_Conflict tests that a 409 is classified as ErrConflict
// and keeps the server's message.
func TestUpdateSession_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"error":"trainer already booked 09:00-10:00"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.UpdateSession(context.Background(), 7, session.Session{
		TrainerID:       5,
		ClientID:        12,
		SessionDate:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Type:            session.TypePersonal,
		Status:          session.StatusScheduled,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got: %v", err)
	}
	if apiErr.Message != "trainer already booked 09:00-10:00" {
		t.Fatalf("expected server message to survive, got %q", apiErr.Message)
	}
}

// TestServerMessage_Fallback tests the generic message when the server sends
// no detail.
func TestServerMessage_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.Ping(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got: %v", err)
	}
	if apiErr.Message != "Internal Server Error" {
		t.Fatalf("expected status-text fallback, got %q", apiErr.Message)
	}
	if errors.Is(err, ErrConflict) {
		t.Fatal("500 must not classify as conflict")
	}
}

// TestUnreachable tests that connectivity failures are classified as
// ErrUnreachable so callers fall back to queueing.
func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so dials fail

	c := New(srv.URL, "")
	err := c.Ping(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got: %v", err)
	}
}

// TestCreateRecurringRule tests rule encoding and count pass-through.
func TestCreateRecurringRule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p rulePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if p.StartDate != "2025-03-01" || p.EndDate != "2025-03-31" {
			t.Errorf("unexpected date range %q..%q", p.StartDate, p.EndDate)
		}
		if len(p.Weekdays) != 3 {
			t.Errorf("expected 3 weekdays, got %v", p.Weekdays)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"sessions_created":13}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	count, err := c.CreateRecurringRule(context.Background(), recurrence.Rule{
		TrainerID:       5,
		ClientID:        12,
		DurationMinutes: 60,
		Type:            session.TypePersonal,
		StartTime:       "09:00",
		StartDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Pattern:         recurrence.PatternWeekly,
		Weekdays:        []int{1, 3, 5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 13 {
		t.Fatalf("expected expander count 13 verbatim, got %d", count)
	}
}

// TestCreateRecurringRule_DefaultWeekday tests that an empty weekday selection
// is sent as the start date's weekday rather than omitted.
func TestCreateRecurringRule_DefaultWeekday(t *testing.T) {
	var got []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p rulePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		got = p.Weekdays
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"sessions_created":4}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	// 2025-03-01 is a Saturday.
	_, err := c.CreateRecurringRule(context.Background(), recurrence.Rule{
		TrainerID:       5,
		ClientID:        12,
		DurationMinutes: 60,
		Type:            session.TypePersonal,
		StartTime:       "09:00",
		StartDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Pattern:         recurrence.PatternWeekly,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != 6 {
		t.Fatalf("expected the start date's weekday [6], got %v", got)
	}
}

// TestDeleteRecurringRule tests the delete_future flag.
func TestDeleteRecurringRule(t *testing.T) {
	var gotPath, gotFlag string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFlag = r.URL.Query().Get("delete_future")
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if err := c.DeleteRecurringRule(context.Background(), 9, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/recurring-sessions/9" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotFlag != "true" {
		t.Fatalf("expected delete_future=true, got %q", gotFlag)
	}
}

// TestExportSessions tests the download stream and filename extraction.
func TestExportSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="march-2025.ics"`)
		io.WriteString(w, "BEGIN:VCALENDAR\nEND:VCALENDAR\n")
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	body, name, err := c.ExportSessions(context.Background(), from, to, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	if name != "march-2025.ics" {
		t.Fatalf("expected filename from Content-Disposition, got %q", name)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "BEGIN:VCALENDAR\nEND:VCALENDAR\n" {
		t.Fatalf("unexpected export body %q", data)
	}
}
