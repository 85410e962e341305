package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coachdesk/internal/domain/session"
)

// Filters narrow a session list query. Zero values mean "no filter".
type Filters struct {
	TrainerID int64
	ClientID  int64
	Status    string
}

// sessionPayload is the CRM wire shape for a session.
type sessionPayload struct {
	ID              int64  `json:"id,omitempty"`
	TrainerID       int64  `json:"trainer_id"`
	ClientID        int64  `json:"client_id"`
	SessionDate     string `json:"session_date"` // RFC 3339
	DurationMinutes int    `json:"duration"`
	Type            string `json:"session_type"`
	Status          string `json:"status"`
	Location        string `json:"location,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func toPayload(s session.Session) sessionPayload {
	return sessionPayload{
		ID:              s.ID,
		TrainerID:       s.TrainerID,
		ClientID:        s.ClientID,
		SessionDate:     s.SessionDate.Format(time.RFC3339),
		DurationMinutes: s.DurationMinutes,
		Type:            s.Type,
		Status:          s.Status,
		Location:        s.Location,
		Notes:           s.Notes,
	}
}

func (p sessionPayload) toDomain() (session.Session, error) {
	date, err := time.Parse(time.RFC3339, p.SessionDate)
	if err != nil {
		return session.Session{}, fmt.Errorf("session %d has invalid session_date %q: %w", p.ID, p.SessionDate, err)
	}
	return session.Session{
		ID:              p.ID,
		TrainerID:       p.TrainerID,
		ClientID:        p.ClientID,
		SessionDate:     date,
		DurationMinutes: p.DurationMinutes,
		Type:            p.Type,
		Status:          p.Status,
		Location:        p.Location,
		Notes:           p.Notes,
	}, nil
}

// ListSessions returns sessions whose session_date falls within [from, to],
// narrowed by the optional filters.
// PRE: from <= to
// POST: Returns the matching sessions, or an error with no partial result
func (c *Client) ListSessions(ctx context.Context, from, to time.Time, f Filters) ([]session.Session, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	if f.TrainerID > 0 {
		q.Set("trainer_id", strconv.FormatInt(f.TrainerID, 10))
	}
	if f.ClientID > 0 {
		q.Set("client_id", strconv.FormatInt(f.ClientID, 10))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}

	var payloads []sessionPayload
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions", q, nil, &payloads); err != nil {
		return nil, err
	}
	sessions := make([]session.Session, 0, len(payloads))
	for _, p := range payloads {
		s, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// GetSession fetches one session by ID.
// PRE: id > 0
// POST: Returns the session or an APIError (404 when unknown)
func (c *Client) GetSession(ctx context.Context, id int64) (session.Session, error) {
	var p sessionPayload
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%d", id), nil, nil, &p); err != nil {
		return session.Session{}, err
	}
	return p.toDomain()
}

// CreateSession creates a session and returns it with the server-assigned ID.
// PRE: s has been validated
// POST: Returned session carries a non-zero ID on success
func (c *Client) CreateSession(ctx context.Context, s session.Session) (session.Session, error) {
	var p sessionPayload
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions", nil, toPayload(s), &p); err != nil {
		return session.Session{}, err
	}
	return p.toDomain()
}

// CreateSessionRaw replays a queued create_session payload as-is. The payload
// was captured at form-submission time, so it is forwarded untouched.
// PRE: payload is the JSON captured when the action was queued
// POST: Session created remotely, or an error classifies the rejection
func (c *Client) CreateSessionRaw(ctx context.Context, payload json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/api/sessions", nil, payload, nil)
}

// UpdateSession updates an existing session by ID. A scheduling overlap comes
// back as an error matching ErrConflict.
// PRE: id > 0; s has been validated
// POST: Session is updated remotely, or an error classifies the rejection
func (c *Client) UpdateSession(ctx context.Context, id int64, s session.Session) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/sessions/%d", id), nil, toPayload(s), nil)
}

// ExportSessions streams the CRM's calendar-file export for a range plus
// filters. Purely a pass-through; the caller owns closing the reader.
// PRE: from <= to
// POST: Returns the file stream and its download filename
func (c *Client) ExportSessions(ctx context.Context, from, to time.Time, f Filters) (io.ReadCloser, string, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	if f.TrainerID > 0 {
		q.Set("trainer_id", strconv.FormatInt(f.TrainerID, 10))
	}
	if f.ClientID > 0 {
		q.Set("client_id", strconv.FormatInt(f.ClientID, 10))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return c.doStream(ctx, "/api/sessions/export", q)
}
