package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// recordingLog captures appended events in memory and allocates ids
// monotonically, tracking call order against the transport via sequence.
type recordingLog struct {
	nextID   int64
	appends  []*events.EventRecord
	byEvent  map[int64][]events.Recipient
	sequence *[]string
}

func (l *recordingLog) Append(ctx context.Context, record *events.EventRecord, recipients []events.Recipient) (int64, error) {
	l.nextID++
	l.appends = append(l.appends, record)
	if l.byEvent == nil {
		l.byEvent = map[int64][]events.Recipient{}
	}
	l.byEvent[l.nextID] = recipients
	if l.sequence != nil {
		*l.sequence = append(*l.sequence, "append")
	}
	return l.nextID, nil
}

func (l *recordingLog) Query(ctx context.Context, filter events.QueryFilter) ([]*events.EventRecord, error) {
	return l.appends, nil
}

// flakyTransport fails the first failures publishes, then succeeds.
type flakyTransport struct {
	failures  int
	published []events.Envelope
	sequence  *[]string
}

func (tr *flakyTransport) Publish(ctx context.Context, envelope events.Envelope) error {
	if tr.sequence != nil {
		*tr.sequence = append(*tr.sequence, "publish")
	}
	if tr.failures > 0 {
		tr.failures--
		return errors.New("transport unavailable")
	}
	tr.published = append(tr.published, envelope)
	return nil
}

func newBus(log events.LogRepository, transport events.Transport, retry events.RetryPolicy) *events.Bus {
	resolver := newResolver(&fakeWorld{}, time.Minute)
	return events.NewBus(log, resolver, transport, retry, nil)
}

func directRecord(target shared.ID) (*events.EventRecord, events.Scope) {
	record := &events.EventRecord{
		Type:      "status.update",
		Payload:   map[string]any{"character_id": target.String()},
		Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		RequestID: "req-1",
	}
	scope := events.Scope{Kind: events.ScopeCharacter, CharacterID: &target}
	return record, scope
}

func TestEmit_AppendPrecedesPublish(t *testing.T) {
	var sequence []string
	log := &recordingLog{sequence: &sequence}
	transport := &flakyTransport{sequence: &sequence}
	bus := newBus(log, transport, events.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond})

	record, scope := directRecord(shared.NewID())
	eventID, err := bus.Emit(context.Background(), record, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), eventID)

	require.Equal(t, []string{"append", "publish"}, sequence,
		"the log append is the source of truth and must land before any broadcast")
}

func TestEmit_EnvelopeCarriesTopicAndEventID(t *testing.T) {
	log := &recordingLog{}
	transport := &flakyTransport{}
	bus := newBus(log, transport, events.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond})

	target := shared.NewID()
	record, scope := directRecord(target)
	eventID, err := bus.Emit(context.Background(), record, scope)
	require.NoError(t, err)

	require.Len(t, transport.published, 1)
	envelope := transport.published[0]
	assert.Equal(t, events.CharacterTopic(target), envelope.Topic)
	assert.Equal(t, "status.update", envelope.Event)
	assert.Equal(t, eventID, envelope.EventID)
}

func TestEmit_RetriesTransientFailuresThenSucceeds(t *testing.T) {
	var sequence []string
	log := &recordingLog{sequence: &sequence}
	transport := &flakyTransport{failures: 2, sequence: &sequence}
	bus := newBus(log, transport, events.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond})

	record, scope := directRecord(shared.NewID())
	_, err := bus.Emit(context.Background(), record, scope)
	require.NoError(t, err)

	publishes := 0
	for _, step := range sequence {
		if step == "publish" {
			publishes++
		}
	}
	assert.Equal(t, 3, publishes, "two failures plus the succeeding attempt")
	assert.Len(t, transport.published, 1)
}

func TestEmit_ExhaustedRetriesSurfaceErrorButKeepLogRow(t *testing.T) {
	log := &recordingLog{}
	transport := &flakyTransport{failures: 10}
	bus := newBus(log, transport, events.RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond})

	record, scope := directRecord(shared.NewID())
	eventID, err := bus.Emit(context.Background(), record, scope)

	require.Error(t, err)
	assert.Equal(t, int64(1), eventID, "the persisted log row is not rolled back (at-least-once delivery)")
	assert.Len(t, log.appends, 1)
}

func TestEmit_BroadcastScopeSkipsLogAppend(t *testing.T) {
	log := &recordingLog{}
	transport := &flakyTransport{}
	resolver := newResolver(&fakeWorld{online: []shared.ID{shared.NewID()}}, time.Minute)
	bus := events.NewBus(log, resolver, transport, events.DefaultRetryPolicy(), nil)

	origin := shared.NewID()
	eventID, err := bus.Emit(context.Background(), &events.EventRecord{
		Type:       "chat.message",
		Payload:    map[string]any{"content": "hello"},
		Timestamp:  time.Unix(1_700_000_000, 0).UTC(),
		Originator: &origin,
	}, events.Scope{Kind: events.ScopeBroadcast})
	require.NoError(t, err)

	assert.Zero(t, eventID)
	assert.Empty(t, log.appends, "broadcast chat is realtime-topic-only, never persisted per character")
	require.Len(t, transport.published, 1)
	assert.Equal(t, "broadcast", transport.published[0].Topic)
}

func TestEmit_SectorScopePublishesSectorTopic(t *testing.T) {
	pilot := shared.NewID()
	w := &fakeWorld{present: map[int][]shared.ID{12: {pilot}}, channels: map[int][]string{12: {"ops"}}}
	resolver := events.NewVisibilityResolver(w, w, w, w, time.Minute)

	log := &recordingLog{}
	transport := &flakyTransport{}
	bus := events.NewBus(log, resolver, transport, events.DefaultRetryPolicy(), nil)

	sector := 12
	_, err := bus.Emit(context.Background(), &events.EventRecord{
		Type:      "sector.update",
		Payload:   map[string]any{"sector_id": sector},
		Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		SectorID:  &sector,
	}, events.Scope{Kind: events.ScopeSector, SectorID: &sector})
	require.NoError(t, err)

	topics := map[string]bool{}
	for _, envelope := range transport.published {
		topics[envelope.Topic] = true
	}
	assert.True(t, topics[events.CharacterTopic(pilot)])
	assert.True(t, topics[events.SectorTopic(sector)])
	assert.True(t, topics[events.ObserverTopic("ops")])
}
