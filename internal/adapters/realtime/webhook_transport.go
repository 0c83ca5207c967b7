// Package realtime implements events.Transport: a single outbound HTTP
// webhook call per envelope, throttled by a token bucket the way the
// teacher's api.Client throttles its outbound SpaceTraders calls
// (internal/adapters/api/client.go's rate.NewLimiter + rateLimiter.Wait).
// Retry on failure is EventBus's job (internal/domain/events/bus.go), so a
// single Publish call here either succeeds or returns the one error the bus
// will back off and retry against.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gradient-bang/server/internal/domain/events"
)

// WebhookTransport posts every envelope to a single configured URL as a JSON
// body, the realtime vendor's ingress for this deployment.
type WebhookTransport struct {
	url         string
	client      *http.Client
	rateLimiter *rate.Limiter
}

// NewWebhookTransport builds a transport throttled to ratePerSecond
// envelopes/second with the given burst allowance, mirroring the teacher's
// 2 req/sec, burst 2 client-side throttle.
func NewWebhookTransport(url string, ratePerSecond float64, burst int) *WebhookTransport {
	if ratePerSecond <= 0 {
		ratePerSecond = 20
	}
	if burst <= 0 {
		burst = 20
	}
	return &WebhookTransport{
		url:         url,
		client:      &http.Client{Timeout: 5 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Publish posts envelope as JSON, waiting on the rate limiter first.
func (t *WebhookTransport) Publish(ctx context.Context, envelope events.Envelope) error {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to realtime webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("realtime webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var _ events.Transport = (*WebhookTransport)(nil)
