package realtime

import (
	"context"

	"github.com/gradient-bang/server/internal/domain/events"
)

// NoopTransport discards every envelope. Used when no webhook URL is
// configured — local development and the godog suite, where nothing is
// listening for realtime broadcasts and the event log append is the only
// durable effect that matters.
type NoopTransport struct{}

func (NoopTransport) Publish(ctx context.Context, envelope events.Envelope) error { return nil }

var _ events.Transport = NoopTransport{}
