// Package cli is gbctl's cobra command tree. It talks to the edge surface
// over plain HTTP rather than the teacher's Unix-socket gRPC client
// (internal/adapters/cli/*.go in the teacher), since the server here speaks
// the §6.1 JSON envelope over net/http instead of a local daemon socket —
// same split (thin client wrapping one call per subcommand), different wire.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Envelope is the generic request body every gbctl command sends: the §6.1
// fields plus whatever method-specific payload the caller merges in.
type Envelope map[string]any

// Response mirrors dispatcher.Response without importing the application
// layer into the CLI adapter.
type Response struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Client is gbctl's HTTP client for the edge surface.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

// Call posts body to /v1/{method} and decodes the response envelope.
func (c *Client) Call(ctx context.Context, method string, body Envelope) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/"+method, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("x-api-token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env Response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return &env, fmt.Errorf("%s failed: %s", method, env.Error)
	}
	return &env, nil
}

// Healthz hits the liveness endpoint directly, bypassing the envelope.
func (c *Client) Healthz(ctx context.Context) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
