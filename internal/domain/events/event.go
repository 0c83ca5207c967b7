// Package events is EventBus (E) plus VisibilityResolver (V): computing who
// receives a given event, persisting the append-only log, and publishing
// broadcast envelopes to the realtime transport with retry.
package events

import (
	"strconv"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// Direction distinguishes an inbound request-triggering event from an
// outbound notification derived from it.
type Direction string

const (
	DirectionIn  Direction = "event_in"
	DirectionOut Direction = "event_out"
)

// RecipientReason tags why a given character received a given event.
type RecipientReason string

const (
	ReasonSelf      RecipientReason = "self"
	ReasonSender    RecipientReason = "sender"
	ReasonRecipient RecipientReason = "recipient"
	ReasonSector    RecipientReason = "sector"
	ReasonCorp      RecipientReason = "corp"
	ReasonObserver  RecipientReason = "observer"
)

// Source is injected by the originating endpoint into every event payload.
type Source struct {
	Type      string `json:"type"`
	Method    string `json:"method"`
	RequestID string `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Scope tells the VisibilityResolver how to compute recipients for an event
// before it is appended.
type Scope struct {
	Kind        ScopeKind
	CharacterID *shared.ID // ScopeCharacter
	SectorID    *int       // ScopeSector
	CorpID      *shared.ID // ScopeCorp
	IncludeSelf bool       // when true, originator is included in sector scope
}

type ScopeKind string

const (
	ScopeCharacter ScopeKind = "character"
	ScopeSector    ScopeKind = "sector"
	ScopeCorp      ScopeKind = "corp"
	ScopeBroadcast ScopeKind = "broadcast"
)

// EventRecord is a single entry in the append-only event log.
type EventRecord struct {
	ID          int64
	Direction   Direction
	Type        string
	Payload     map[string]any
	Timestamp   time.Time
	Originator  *shared.ID
	SectorID    *int
	ShipID      *shared.ID
	RequestID   string
	Meta        map[string]any
}

// Recipient is one (event, recipient) row persisted alongside the log.
type Recipient struct {
	EventID     int64
	CharacterID shared.ID
	Reason      RecipientReason
}

// Envelope is the broadcast payload posted to the realtime transport.
type Envelope struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	EventID int64          `json:"__event_id,omitempty"`
}

// CharacterTopic and SectorTopic/ObserverTopic name the realtime topics a
// recipient set implies.
func CharacterTopic(id shared.ID) string   { return "character:" + id.String() }
func SectorTopic(sectorID int) string      { return "sector:" + strconv.Itoa(sectorID) }
func ObserverTopic(channel string) string  { return "observer:" + channel }
