package events

import (
	"context"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// LogRepository persists the append-only event log and its recipient rows.
type LogRepository interface {
	// Append allocates a monotonic id, persists the record and its recipient
	// rows in one transaction, and returns the allocated id.
	Append(ctx context.Context, record *EventRecord, recipients []Recipient) (int64, error)

	// Query supports event_query: events delivered to filter.CharacterID
	// (every event when AdminNoScope is set), optionally narrowed by sector,
	// by originators in a corporation, and by ids after Since; newest first,
	// bounded by limit.
	Query(ctx context.Context, filter QueryFilter) ([]*EventRecord, error)
}

// QueryFilter narrows an event_query request.
type QueryFilter struct {
	CharacterID  shared.ID // required: the querying actor, whose recipient rows scope the result
	SectorID     *int
	CorpID       *shared.ID
	Since        *int64 // event id, exclusive
	Limit        int
	AdminNoScope bool // admin queries bypass recipient scoping entirely
}

// Transport delivers a broadcast envelope to the realtime vendor.
type Transport interface {
	Publish(ctx context.Context, envelope Envelope) error
}

// SectorOccupancy answers the VisibilityResolver's question of who is
// currently co-located (not in transit) in a sector, and which corporations
// hold an active garrison there. Implemented by an adapter over world.Store
// so the events package doesn't import world directly.
type SectorOccupancy interface {
	CharactersInSector(ctx context.Context, sectorID int) ([]shared.ID, error)
	GarrisonCorporationsInSector(ctx context.Context, sectorID int) ([]shared.ID, error)
}

// CorpMembership resolves a corporation's active member list.
type CorpMembership interface {
	Members(ctx context.Context, corpID shared.ID) ([]shared.ID, error)
	IsMember(ctx context.Context, corpID shared.ID, characterID shared.ID) (bool, error)
}

// OnlineRoster answers broadcast scope: every character currently online in
// any sector.
type OnlineRoster interface {
	OnlineCharacters(ctx context.Context) ([]shared.ID, error)
}

// ObserverChannelSource supplies the registered observer channels for a
// sector, read through the VisibilityResolver's TTL cache.
type ObserverChannelSource interface {
	ObserverChannels(ctx context.Context, sectorID int) ([]string, error)
}
