package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Trainer is a directory entry used to populate filter and assignment
// dropdowns. The CRM owns the full trainer record.
type Trainer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClientRecord is a directory entry for a CRM client (the person training,
// not this API client).
type ClientRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListTrainers returns the trainer directory.
// PRE: ctx is valid
// POST: Returns all trainers visible to the API token
func (c *Client) ListTrainers(ctx context.Context) ([]Trainer, error) {
	var out []Trainer
	if err := c.doJSON(ctx, http.MethodGet, "/api/trainers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListClients returns the client directory.
// PRE: ctx is valid
// POST: Returns all clients visible to the API token
func (c *Client) ListClients(ctx context.Context) ([]ClientRecord, error) {
	var out []ClientRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/clients", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClient replays a queued create_client payload as-is. The payload was
// captured at form-submission time, so it is forwarded untouched.
// PRE: payload is the JSON captured when the action was queued
// POST: Client record created remotely, or an error classifies the rejection
func (c *Client) CreateClient(ctx context.Context, payload json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/api/clients", nil, payload, nil)
}

// UpdateClient replays a queued update_client payload against a target ID.
// PRE: id > 0; payload is the JSON captured when the action was queued
// POST: Client record updated remotely, or an error classifies the rejection
func (c *Client) UpdateClient(ctx context.Context, id int64, payload json.RawMessage) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/clients/%d", id), nil, payload, nil)
}
