package events

import (
	"context"
	"fmt"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// RetryPolicy configures EventBus.Publish's linear back-off, grounded on
// EDGE_BROADCAST_RETRIES / EDGE_BROADCAST_RETRY_DELAY_MS.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 40 * time.Millisecond}
}

// Bus is EventBus (E): it appends events to the durable log (persistence
// precedes publication) and publishes broadcast envelopes to every topic the
// recipient set implies, retrying transient transport failures.
type Bus struct {
	log        LogRepository
	visibility *VisibilityResolver
	transport  Transport
	retry      RetryPolicy
	logger     shared.Logger
}

func NewBus(log LogRepository, visibility *VisibilityResolver, transport Transport, retry RetryPolicy, logger shared.Logger) *Bus {
	return &Bus{log: log, visibility: visibility, transport: transport, retry: retry, logger: logger}
}

// Emit resolves recipients for scope, appends the event plus its recipient
// rows to the log, and publishes to every implied topic. Broadcast-scope
// events skip the log append entirely (realtime-topic-only, per spec).
func (b *Bus) Emit(ctx context.Context, record *EventRecord, scope Scope) (int64, error) {
	recipients, err := b.visibility.Recipients(ctx, scope, record.Originator)
	if err != nil {
		return 0, fmt.Errorf("resolving recipients: %w", err)
	}

	if scope.Kind == ScopeBroadcast {
		for _, r := range recipients {
			_ = r // broadcast recipients are implied by the single broadcast topic, not persisted rows
		}
		return 0, b.publishWithRetry(ctx, Envelope{
			Topic:   "broadcast",
			Event:   record.Type,
			Payload: record.Payload,
		})
	}

	eventID, err := b.log.Append(ctx, record, recipients)
	if err != nil {
		return 0, fmt.Errorf("appending event: %w", err)
	}

	topics := map[string]bool{}
	for _, r := range recipients {
		topics[CharacterTopic(r.CharacterID)] = true
	}
	if scope.Kind == ScopeSector && scope.SectorID != nil {
		topics[SectorTopic(*scope.SectorID)] = true
		observerTopics, err := b.visibility.ObserverTopics(ctx, *scope.SectorID)
		if err != nil {
			b.logf(ctx, "observer topics lookup failed for sector %d: %v", *scope.SectorID, err)
		} else {
			for _, t := range observerTopics {
				topics[t] = true
			}
		}
	}

	for topic := range topics {
		envelope := Envelope{Topic: topic, Event: record.Type, Payload: record.Payload, EventID: eventID}
		if err := b.publishWithRetry(ctx, envelope); err != nil {
			return eventID, fmt.Errorf("publishing to %s: %w", topic, err)
		}
	}

	return eventID, nil
}

func (b *Bus) publishWithRetry(ctx context.Context, envelope Envelope) error {
	attempts := b.retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := b.transport.Publish(ctx, envelope)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retry.Delay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("transport publish failed after %d attempts: %w", attempts, lastErr)
}

func (b *Bus) logf(ctx context.Context, format string, args ...any) {
	if b.logger == nil {
		return
	}
	b.logger.Log("warn", fmt.Sprintf(format, args...), nil)
}
