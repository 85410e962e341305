package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"coachdesk/internal/domain/recurrence"
)

// rulePayload is the CRM wire shape for a recurring session rule.
type rulePayload struct {
	TrainerID       int64  `json:"trainer_id"`
	ClientID        int64  `json:"client_id"`
	DurationMinutes int    `json:"duration"`
	Type            string `json:"session_type"`
	Location        string `json:"location,omitempty"`
	Notes           string `json:"notes,omitempty"`
	StartTime       string `json:"start_time"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date,omitempty"`
	Pattern         string `json:"recurrence_pattern"`
	Weekdays        []int  `json:"recurrence_days"`
}

// CreateRecurringRule submits a rule to the server-side expander, which
// materializes the concrete sessions. The count is reported verbatim to the
// user; no expansion happens client-side.
// PRE: r has been validated
// POST: Returns the number of sessions the expander generated
func (c *Client) CreateRecurringRule(ctx context.Context, r recurrence.Rule) (int, error) {
	p := rulePayload{
		TrainerID:       r.TrainerID,
		ClientID:        r.ClientID,
		DurationMinutes: r.DurationMinutes,
		Type:            r.Type,
		Location:        r.Location,
		Notes:           r.Notes,
		StartTime:       r.StartTime,
		StartDate:       r.StartDate.Format("2006-01-02"),
		Pattern:         r.Pattern,
		Weekdays:        r.EffectiveWeekdays(),
	}
	if !r.EndDate.IsZero() {
		p.EndDate = r.EndDate.Format("2006-01-02")
	}

	var resp struct {
		SessionsCreated int `json:"sessions_created"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/recurring-sessions", nil, p, &resp); err != nil {
		return 0, err
	}
	return resp.SessionsCreated, nil
}

// DeleteRecurringRule deletes a rule, optionally cascading to the future
// sessions it generated.
// PRE: ruleID > 0
// POST: Rule (and, when deleteFuture, its future sessions) removed remotely
func (c *Client) DeleteRecurringRule(ctx context.Context, ruleID int64, deleteFuture bool) error {
	q := url.Values{}
	if deleteFuture {
		q.Set("delete_future", "true")
	}
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/recurring-sessions/%d", ruleID), q, nil, nil)
}
