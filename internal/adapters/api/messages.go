package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CreateMessage replays a queued create_message payload into a thread.
// PRE: threadID > 0; payload is the JSON captured when the action was queued
// POST: Message posted remotely, or an error classifies the rejection
func (c *Client) CreateMessage(ctx context.Context, threadID int64, payload json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/messages/threads/%d", threadID), nil, payload, nil)
}

// SendSMS replays a queued send_sms payload. Delivery itself is owned by the
// CRM's SMS gateway; the dashboard only posts the request.
// PRE: payload is the JSON captured when the action was queued
// POST: SMS accepted for delivery remotely, or an error classifies the rejection
func (c *Client) SendSMS(ctx context.Context, payload json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/api/sms", nil, payload, nil)
}
