package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	queueDomain "coachdesk/internal/domain/queue"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requireUnlocked enforces the local passcode gate when one is configured.
func requireUnlocked(w http.ResponseWriter, r *http.Request) bool {
	if !deps.Lock.Enabled() {
		return true
	}
	if _, ok := middleware.GetUnlockFromContext(r.Context()); !ok {
		http.Error(w, "locked", http.StatusUnauthorized)
		return false
	}
	return true
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", handleStatus)
	mux.HandleFunc("GET /api/queue", handleQueueList)
	mux.HandleFunc("POST /api/queue", handleQueueEnqueue)
	mux.HandleFunc("POST /api/queue/drain", handleQueueDrain)

	mux.HandleFunc("GET /api/calendar", handleCalendar)
	mux.HandleFunc("POST /api/calendar/prev", handleCalendarPrev)
	mux.HandleFunc("POST /api/calendar/next", handleCalendarNext)
	mux.HandleFunc("POST /api/calendar/today", handleCalendarToday)
	mux.HandleFunc("POST /api/calendar/filters", handleCalendarFilters)
	mux.HandleFunc("GET /api/calendar/day", handleCalendarDay)
	mux.HandleFunc("GET /api/calendar/export", handleCalendarExport)

	mux.HandleFunc("POST /api/sessions", handleSubmitSession)
	mux.HandleFunc("DELETE /api/recurring/{id}", handleDeleteRecurring)

	mux.HandleFunc("GET /api/directories", handleDirectories)

	mux.HandleFunc("POST /api/unlock", handleUnlock)
	mux.HandleFunc("POST /api/lock", handleLock)
}

// handleStatus handles GET /api/status. It backs the offline banner and the
// queue badge, so it stays available even while locked.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := deps.Stores.QueueStore.Count(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"online":    deps.Monitor.Online(),
		"queue_len": count,
		"locked":    deps.Lock.Enabled(),
	})
}

// handleQueueList handles GET /api/queue.
func handleQueueList(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	view, err := projections.QueryGetQueue(r.Context(), projections.GetQueueDeps{
		QueueStore: deps.Stores.QueueStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleQueueEnqueue handles POST /api/queue. The client and messaging forms
// post here when a mutation could not be delivered: the captured payload is
// replayed verbatim against its CRM operation on the next drain.
func handleQueueEnqueue(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}

	var body struct {
		Type     string          `json:"type"`
		Payload  json.RawMessage `json:"payload"`
		TargetID int64           `json:"target_id,omitempty"`
		ThreadID int64           `json:"thread_id,omitempty"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if !(&queueDomain.Action{Type: body.Type}).KnownType() {
		http.Error(w, "unknown action type", http.StatusBadRequest)
		return
	}

	action, err := orchestrators.ExecuteEnqueueAction(r.Context(), orchestrators.EnqueueActionInput{
		Type:     body.Type,
		Payload:  string(body.Payload),
		TargetID: body.TargetID,
		ThreadID: body.ThreadID,
	}, orchestrators.EnqueueActionDeps{
		QueueStore: deps.Stores.QueueStore,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"action_id": action.ID})
}

// handleQueueDrain handles POST /api/queue/drain, the manual "sync now"
// button. A drain already in progress reports as skipped rather than queuing
// a second pass.
func handleQueueDrain(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	result, err := deps.Drainer.Drain(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDirectories handles GET /api/directories, populating the trainer and
// client filter dropdowns.
func handleDirectories(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	view, err := projections.QueryGetDirectories(r.Context(), projections.GetDirectoriesDeps{
		CRM: deps.CRM,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
