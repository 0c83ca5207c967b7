// Package dispatcher is Dispatcher (D): thin request/response wrappers over
// WorldStore, CombatCore, EventBus, and SectorGraph. Every handler here is a
// common.RequestHandler registered on the mediator; cross-cutting concerns
// (auth, rate limiting, logging) live in application/common middleware.
package dispatcher

import (
	"time"

	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/ledger"
	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// Base is embedded in every request struct so common.AuthMiddleware's
// reflection-based field lookup (CharacterID/ActorCharacterID/AdminOverride)
// resolves via Go's promoted fields, and so every endpoint accepts the same
// envelope fields spec'd in §6.1.
type Base struct {
	CharacterID      string `json:"character_id"`
	RequestID        string `json:"request_id,omitempty"`
	ActorCharacterID string `json:"actor_character_id,omitempty"`
	AdminOverride    bool   `json:"admin_override,omitempty"`
	AdminPassword    string `json:"admin_password,omitempty"`
	Healthcheck      bool   `json:"healthcheck,omitempty"`
}

// IsHealthcheck and GetRequestID let the HTTP adapter recognize the
// envelope's optional healthcheck probe and echo request_id without
// importing every concrete request type — every request embeds Base, so
// these promote onto all of them.
func (b Base) IsHealthcheck() bool  { return b.Healthcheck }
func (b Base) GetRequestID() string { return b.RequestID }

// Response is the common JSON envelope every handler returns (§6.1).
type Response struct {
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func ok(requestID string, data map[string]any) *Response {
	return &Response{Success: true, RequestID: requestID, Data: data}
}

// Deps bundles every domain-layer dependency a dispatcher handler may need.
// Individual handler files only touch the fields relevant to their
// endpoints; registry.go wires them all from one instance.
type Deps struct {
	Store      *world.Store
	Graph      *sectorgraph.Graph
	Bus        *events.Bus
	EventLog   events.LogRepository
	Combat     *combat.Service
	Encounters combat.EncounterRepository
	Ledger     ledger.TransactionRepository
	Admin      world.AdminStore
	Clock      shared.Clock

	// MoveDelay computes hyperspace transit latency from a warp cost, per
	// MOVE_DELAY_SECONDS_PER_TURN × MOVE_DELAY_SCALE (§6.5).
	MoveDelay func(warpCost int) time.Duration

	// ScheduleArrival runs fn after delay without blocking the request —
	// the dispatcher's hook into the process's arrival scheduler (cmd/server
	// wires this to a simple time.AfterFunc in-process, matching the
	// single-node deployment model).
	ScheduleArrival func(delay time.Duration, fn func())
}

func statusEvent(characterID shared.ID, requestID string, now time.Time) *events.EventRecord {
	return &events.EventRecord{
		Type:       "status.update",
		Payload:    map[string]any{"character_id": characterID.String()},
		Timestamp:  now,
		Originator: &characterID,
		RequestID:  requestID,
	}
}

func characterScope(characterID shared.ID) events.Scope {
	return events.Scope{Kind: events.ScopeCharacter, CharacterID: &characterID, IncludeSelf: true}
}

func sectorScope(sectorID int, includeSelf bool) events.Scope {
	return events.Scope{Kind: events.ScopeSector, SectorID: &sectorID, IncludeSelf: includeSelf}
}
