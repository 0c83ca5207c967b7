package world

import (
	"context"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// CharacterRepository defines persistence operations for characters.
type CharacterRepository interface {
	Create(ctx context.Context, c *Character) error
	FindByID(ctx context.Context, id shared.ID) (*Character, error)
	FindByDisplayName(ctx context.Context, displayName string) (*Character, error) // case-insensitive
	Save(ctx context.Context, c *Character) error
	Delete(ctx context.Context, id shared.ID) error

	// FindActiveSince lists characters whose LastActive is at or after
	// since — the OnlineRoster adapter's source for broadcast-scope
	// recipients (§4.4).
	FindActiveSince(ctx context.Context, since time.Time) ([]*Character, error)
}

// ShipRepository defines persistence operations for ship instances.
type ShipRepository interface {
	Create(ctx context.Context, s *Ship) error
	FindByID(ctx context.Context, id shared.ID) (*Ship, error)
	FindBySector(ctx context.Context, sectorID int) ([]*Ship, error)
	FindByOwnerCharacter(ctx context.Context, characterID shared.ID) ([]*Ship, error)
	Save(ctx context.Context, s *Ship) error
	Delete(ctx context.Context, id shared.ID) error

	// CompareAndStartTransit implements the conditional update
	// `where in_transit=false and current_sector=origin` that prevents
	// double-dispatch of a hyperspace jump (§5). Returns false (no error)
	// if the precondition no longer held.
	CompareAndStartTransit(ctx context.Context, shipID shared.ID, expectedSector int, destination, warpCost int, eta time.Time) (bool, error)

	// CompareAndArrive resumes an overdue ship on startup or tick: only
	// transitions a ship that is still in_transit with an eta ≤ now.
	CompareAndArrive(ctx context.Context, shipID shared.ID) (bool, error)

	// FindDueArrivals lists ships in transit whose eta has passed, for the
	// arrival resumer task.
	FindDueArrivals(ctx context.Context, now time.Time, limit int) ([]*Ship, error)
}

// ShipDefinitionRepository defines read access to ship type templates.
type ShipDefinitionRepository interface {
	FindByTypeID(ctx context.Context, typeID string) (*ShipDefinition, error)
	List(ctx context.Context) ([]*ShipDefinition, error)
}

// SectorRepository defines read access to the warp graph's nodes.
type SectorRepository interface {
	FindByID(ctx context.Context, id int) (*Sector, error)
	List(ctx context.Context) ([]*Sector, error)
}

// PortRepository defines persistence operations for ports.
type PortRepository interface {
	FindBySector(ctx context.Context, sectorID int) (*Port, error)
	Save(ctx context.Context, p *Port) error
}

// GarrisonRepository defines persistence operations for garrisons.
type GarrisonRepository interface {
	FindBySector(ctx context.Context, sectorID int) ([]*Garrison, error)
	FindByKey(ctx context.Context, sectorID int, owner shared.ID) (*Garrison, error)

	// FindByOwner lists every garrison a character has deployed anywhere —
	// the character_delete cascade's source, since a pilot need not keep a
	// ship in a sector they garrisoned.
	FindByOwner(ctx context.Context, owner shared.ID) ([]*Garrison, error)

	Save(ctx context.Context, g *Garrison) error
	Delete(ctx context.Context, sectorID int, owner shared.ID) error
}

// SalvageRepository defines persistence operations for salvage entries.
type SalvageRepository interface {
	FindBySector(ctx context.Context, sectorID int) ([]*Salvage, error)
	FindByID(ctx context.Context, id shared.ID) (*Salvage, error)
	Save(ctx context.Context, s *Salvage) error
	Delete(ctx context.Context, id shared.ID) error
}

// SectorContentsRepository defines persistence operations for the per-sector
// bundle (observer channels, active combat reference).
type SectorContentsRepository interface {
	FindBySector(ctx context.Context, sectorID int) (*SectorContents, error)
	Save(ctx context.Context, c *SectorContents) error
}

// CorporationRepository defines persistence operations for corporations.
type CorporationRepository interface {
	FindByID(ctx context.Context, id shared.ID) (*Corporation, error)
	Save(ctx context.Context, c *Corporation) error
	Delete(ctx context.Context, id shared.ID) error
}

// AdminStore groups the destructive, world-wide operations that only the
// test_reset endpoint and cmd/gbctl's admin commands reach for: wiping every
// table and re-seeding the static universe from fixtures.
type AdminStore interface {
	// TruncateAll clears every mutable table (characters, ships, garrisons,
	// salvage, corporations, events, transactions, rate limits) but leaves
	// the static universe (sectors, ship definitions) untouched.
	TruncateAll(ctx context.Context) error

	// SeedFixtures loads the starter character-independent world state
	// (ports, sector contents) from the configured JSON fixture set.
	SeedFixtures(ctx context.Context) error
}
