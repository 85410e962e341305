package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the remote CRM REST API. The wire contract is owned by the
// server; this adapter only shapes requests and classifies failures so the
// rest of the dashboard never sees raw HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests use this to point
// at a stub server with short timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a CRM API client.
// PRE: baseURL is a valid absolute URL; token authenticates against the CRM
// POST: Returns a ready-to-use client with a 30s default timeout
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping probes the CRM health endpoint. Used by the connectivity monitor; a nil
// return means the dashboard is online.
// PRE: ctx is valid
// POST: Returns nil when the CRM answered, ErrUnreachable-classified error otherwise
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// doJSON performs one API round trip: encodes body (if any), decodes the
// response into out (if non-nil), and classifies failures per the error
// taxonomy in errors.go.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	resp, err := c.send(ctx, method, path, query, reqBody, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// doStream performs a GET whose body the caller consumes as-is (calendar
// export). The caller owns closing the returned body.
func (c *Client) doStream(ctx context.Context, path string, query url.Values) (io.ReadCloser, string, error) {
	resp, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, "", err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, "", err
	}
	return resp.Body, exportFilename(resp), nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("crm_unreachable", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to the error taxonomy, carrying the
// server's most specific message when one is provided.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := serverMessage(resp)
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// serverMessage extracts {"error": ...} or {"message": ...} from an error
// body, falling back to the HTTP status text.
func serverMessage(resp *http.Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return http.StatusText(resp.StatusCode)
}

// exportFilename pulls the download filename from Content-Disposition, with a
// stable fallback.
func exportFilename(resp *http.Response) string {
	cd := resp.Header.Get("Content-Disposition")
	const marker = `filename="`
	if i := strings.Index(cd, marker); i >= 0 {
		rest := cd[i+len(marker):]
		if j := strings.Index(rest, `"`); j > 0 {
			return rest[:j]
		}
	}
	return "sessions.ics"
}
