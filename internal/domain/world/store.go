package world

import (
	"context"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// Store is WorldStore (W): the durable substrate, exposing the CRUD
// repositories plus the two compound reads used ubiquitously across the
// dispatcher — SectorSnapshot and StatusPayload.
type Store struct {
	Characters     CharacterRepository
	Ships          ShipRepository
	ShipDefs       ShipDefinitionRepository
	Sectors        SectorRepository
	Ports          PortRepository
	Garrisons      GarrisonRepository
	Salvage        SalvageRepository
	SectorContents SectorContentsRepository
	Corporations   CorporationRepository
}

func NewStore(
	characters CharacterRepository,
	ships ShipRepository,
	shipDefs ShipDefinitionRepository,
	sectors SectorRepository,
	ports PortRepository,
	garrisons GarrisonRepository,
	salvage SalvageRepository,
	sectorContents SectorContentsRepository,
	corporations CorporationRepository,
) *Store {
	return &Store{
		Characters: characters, Ships: ships, ShipDefs: shipDefs, Sectors: sectors,
		Ports: ports, Garrisons: garrisons, Salvage: salvage,
		SectorContents: sectorContents, Corporations: corporations,
	}
}

// PortView is the rendered, human-readable port quote embedded in a
// SectorSnapshot.
type PortView struct {
	Code   string
	Prices []Price
}

// CharacterView is a rendered, human-readable character reference.
type CharacterView struct {
	ID          shared.ID
	DisplayName string
}

// GarrisonView is a rendered, human-readable garrison reference.
type GarrisonView struct {
	OwnerCharacterID shared.ID
	OwnerDisplayName string
	Fighters         int
	Mode             GarrisonMode
}

// ShipView is a rendered, human-readable unowned-ship reference.
type ShipView struct {
	ID          shared.ID
	TypeID      string
	DisplayName string
}

// SectorSnapshot is the sector's adjacency, position, port (with computed
// prices), co-located characters, garrisons, salvage, and unowned ships.
// Names are rendered, not raw ids.
type SectorSnapshot struct {
	SectorID     int
	X, Y         int
	Region       string
	Edges        []WarpEdge
	Port         *PortView
	Characters   []CharacterView
	Garrisons    []GarrisonView
	Salvage      []*Salvage
	UnownedShips []ShipView
	ActiveCombat *shared.ID
}

// SectorSnapshot builds the compound read for a sector, excluding viewer (if
// set) from the co-located characters list.
func (s *Store) SectorSnapshot(ctx context.Context, sectorID int, viewer *shared.ID) (*SectorSnapshot, error) {
	sector, err := s.Sectors.FindByID(ctx, sectorID)
	if err != nil {
		return nil, err
	}

	snap := &SectorSnapshot{
		SectorID: sector.ID,
		X:        sector.X,
		Y:        sector.Y,
		Region:   sector.Region,
		Edges:    sector.Edges,
	}

	if port, err := s.Ports.FindBySector(ctx, sectorID); err == nil && port != nil {
		snap.Port = &PortView{Code: port.CodeString(), Prices: port.Quote()}
	}

	ships, err := s.Ships.FindBySector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	for _, ship := range ships {
		if ship.InTransit() {
			continue
		}
		switch ship.Owner().Kind {
		case OwnerCharacter, OwnerCorporation:
			if ship.Owner().Kind != OwnerCharacter {
				continue
			}
			charID := *ship.Owner().ID
			if viewer != nil && charID.Equals(*viewer) {
				continue
			}
			ch, err := s.Characters.FindByID(ctx, charID)
			if err != nil {
				continue
			}
			snap.Characters = append(snap.Characters, CharacterView{ID: ch.ID(), DisplayName: ch.DisplayName()})
		case OwnerUnowned:
			snap.UnownedShips = append(snap.UnownedShips, ShipView{ID: ship.ID(), TypeID: ship.TypeID(), DisplayName: ship.DisplayName()})
		}
	}

	garrisons, err := s.Garrisons.FindBySector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	for _, g := range garrisons {
		name := g.OwnerCharacter.String()
		if owner, err := s.Characters.FindByID(ctx, g.OwnerCharacter); err == nil {
			name = owner.DisplayName()
		}
		snap.Garrisons = append(snap.Garrisons, GarrisonView{
			OwnerCharacterID: g.OwnerCharacter,
			OwnerDisplayName: name,
			Fighters:         g.Fighters,
			Mode:             g.Mode,
		})
	}

	if salvage, err := s.Salvage.FindBySector(ctx, sectorID); err == nil {
		snap.Salvage = salvage
	}

	if contents, err := s.SectorContents.FindBySector(ctx, sectorID); err == nil && contents != nil {
		snap.ActiveCombat = contents.ActiveCombatID
	}

	return snap, nil
}

// StatusPayload is the full self-view for a pilot: character fields, ship
// fields, current sector snapshot, and a map-knowledge summary.
type StatusPayload struct {
	Character        *Character
	Ship             *Ship
	Sector           *SectorSnapshot
	TotalVisited     int
	CurrentSectorKnown bool
}

// StatusPayload builds the compound self-view read for `my_status` and
// every endpoint that echoes a status update.
func (s *Store) StatusPayload(ctx context.Context, characterID shared.ID) (*StatusPayload, error) {
	character, err := s.Characters.FindByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if character.CurrentShipID() == nil {
		return nil, shared.NewConflictError("character has no current ship")
	}
	ship, err := s.Ships.FindByID(ctx, *character.CurrentShipID())
	if err != nil {
		return nil, err
	}

	payload := &StatusPayload{
		Character:    character,
		Ship:         ship,
		TotalVisited: character.Knowledge().TotalVisited,
	}

	if ship.CurrentSector() != nil {
		snap, err := s.SectorSnapshot(ctx, *ship.CurrentSector(), &characterID)
		if err != nil {
			return nil, err
		}
		payload.Sector = snap
		payload.CurrentSectorKnown = character.Knowledge().IsVisited(*ship.CurrentSector())
	}

	return payload, nil
}
