package web

import (
	"errors"
	"log/slog"
	"net/http"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/domain/access"
)

// handleUnlock handles POST /api/unlock. A correct passcode sets the unlock
// cookie; a wrong one gets a flat 401 with no detail.
func handleUnlock(w http.ResponseWriter, r *http.Request) {
	if !deps.Lock.Enabled() {
		writeJSON(w, http.StatusOK, map[string]any{"unlocked": true})
		return
	}

	var body struct {
		Passcode string `json:"passcode"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if err := deps.Lock.CheckPasscode(body.Passcode); err != nil {
		if errors.Is(err, access.ErrWrongPasscode) {
			slog.Warn("access_event", "event", "unlock_rejected")
			http.Error(w, "incorrect passcode", http.StatusUnauthorized)
			return
		}
		internalError(w, err)
		return
	}

	token, err := sessions.Create()
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	slog.Info("access_event", "event", "unlocked")
	writeJSON(w, http.StatusOK, map[string]any{"unlocked": true})
}

// handleLock handles POST /api/lock, dropping the unlock session.
func handleLock(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("coachdesk_session"); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	slog.Info("access_event", "event", "locked")
	writeJSON(w, http.StatusOK, map[string]any{"unlocked": false})
}
