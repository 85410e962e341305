package web

import (
	"errors"
	"net/http"
	"strconv"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/application/orchestrators"
)

// sessionForm is the JSON body of POST /api/sessions, mirroring the session
// modal's fields.
type sessionForm struct {
	SessionID int64  `json:"session_id,omitempty"`
	TrainerID int64  `json:"trainer_id"`
	ClientID  int64  `json:"client_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration,omitempty"`
	Type      string `json:"session_type"`
	Status    string `json:"status,omitempty"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Recurring bool   `json:"recurring,omitempty"`
	Pattern   string `json:"recurrence_pattern,omitempty"`
	Weekdays  []int  `json:"recurrence_days,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// handleSubmitSession handles POST /api/sessions: create, edit and recurring
// submissions from the session modal. When the CRM is unreachable a plain
// create is queued and answered with 202.
func handleSubmitSession(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}

	var form sessionForm
	if err := strictDecode(r, &form); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteSubmitSession(r.Context(), orchestrators.SubmitSessionInput{
		SessionID:       form.SessionID,
		TrainerID:       form.TrainerID,
		ClientID:        form.ClientID,
		Date:            form.Date,
		Time:            form.Time,
		DurationMinutes: form.Duration,
		Type:            form.Type,
		Status:          form.Status,
		Location:        form.Location,
		Notes:           form.Notes,
		ActorRole:       deps.ActorRole,
		Recurring:       form.Recurring,
		Pattern:         form.Pattern,
		Weekdays:        form.Weekdays,
		EndDate:         form.EndDate,
	}, orchestrators.SubmitSessionDeps{
		CRM:        deps.CRM,
		Queue:      deps.Stores.QueueStore,
		Location:   deps.Location,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		var apiErr *api.APIError
		switch {
		case errors.Is(err, api.ErrConflict):
			// Scheduling overlap: reported distinctly so the modal can keep
			// the user's input and show the server's message.
			http.Error(w, conflictMessage(err), http.StatusConflict)
		case errors.As(err, &apiErr):
			http.Error(w, apiErr.Message, apiErr.Status)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	switch result.Outcome {
	case orchestrators.OutcomeCreated:
		writeJSON(w, http.StatusCreated, map[string]any{
			"outcome": result.Outcome,
			"session": result.Session,
		})
	case orchestrators.OutcomeUpdated:
		writeJSON(w, http.StatusOK, map[string]any{
			"outcome": result.Outcome,
			"session": result.Session,
		})
	case orchestrators.OutcomeRecurring:
		writeJSON(w, http.StatusCreated, map[string]any{
			"outcome":          result.Outcome,
			"sessions_created": result.SessionsCreated,
		})
	case orchestrators.OutcomeDeferred:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"outcome":   result.Outcome,
			"action_id": result.QueuedActionID,
		})
	}
}

// conflictMessage extracts the server's conflict explanation when present.
func conflictMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "scheduling conflict"
}

// handleDeleteRecurring handles DELETE /api/recurring/{id}. The optional
// delete_future flag cascades to the future sessions the rule generated.
func handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if !requireUnlocked(w, r) {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid rule id", http.StatusBadRequest)
		return
	}

	err = orchestrators.ExecuteDeleteRecurringSeries(r.Context(), orchestrators.DeleteRecurringSeriesInput{
		RuleID:       id,
		DeleteFuture: r.URL.Query().Get("delete_future") == "true",
	}, orchestrators.DeleteRecurringSeriesDeps{CRM: deps.CRM})
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			http.Error(w, apiErr.Message, apiErr.Status)
			return
		}
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
