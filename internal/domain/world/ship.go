package world

import (
	"fmt"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// OwnerKind is a closed tagged variant over ship ownership.
type OwnerKind string

const (
	OwnerCharacter   OwnerKind = "character"
	OwnerCorporation OwnerKind = "corporation"
	OwnerUnowned     OwnerKind = "unowned"
)

func (k OwnerKind) IsValid() bool {
	switch k {
	case OwnerCharacter, OwnerCorporation, OwnerUnowned:
		return true
	default:
		return false
	}
}

// Owner is the tagged variant describing who a ship belongs to.
type Owner struct {
	Kind OwnerKind
	ID   *shared.ID // nil when Kind == OwnerUnowned
}

func (o Owner) IsValid() bool { return o.Kind.IsValid() }

func CharacterOwner(id shared.ID) Owner   { return Owner{Kind: OwnerCharacter, ID: &id} }
func CorporationOwner(id shared.ID) Owner { return Owner{Kind: OwnerCorporation, ID: &id} }
func UnownedOwner() Owner                 { return Owner{Kind: OwnerUnowned} }

// Ship is a player's (or nobody's) spacecraft.
//
// Invariants (§8):
// - 0 ≤ fighters ≤ max_fighters, 0 ≤ shields ≤ max_shields, 0 ≤ warp_power ≤ capacity
// - Σ cargo ≤ cargo_holds
// - owner_character_id == character.id unless corporation-owned
//
// Modeled after the teacher's navigation.Ship: private fields, a validated
// constructor, a Reconstruct factory for repository loads, and explicit
// state-transition methods rather than open setters.
type Ship struct {
	id          shared.ID
	typeID      string
	displayName string
	owner       Owner

	currentSector *int // nil while in transit
	inTransit     bool
	transitDest   *int
	transitETA    *time.Time

	credits     int
	cargo       *shared.Cargo
	warpPower   int
	warpCapacity int
	shields     int
	maxShields  int
	fighters    int
	maxFighters int
	isEscapePod bool
}

// NewShip creates a new Ship entity with validation.
func NewShip(id shared.ID, typeID, displayName string, owner Owner, sector int, def *ShipDefinition) (*Ship, error) {
	if typeID == "" {
		return nil, shared.NewValidationError("ship_type", "cannot be empty")
	}
	if !owner.IsValid() {
		return nil, shared.NewValidationError("owner", "invalid owner kind")
	}
	s := &Ship{
		id:           id,
		typeID:       typeID,
		displayName:  displayName,
		owner:        owner,
		currentSector: &sector,
		cargo:        shared.EmptyCargo(def.CargoHolds),
		warpPower:    def.WarpCapacity,
		warpCapacity: def.WarpCapacity,
		shields:      def.ShieldCapacity,
		maxShields:   def.ShieldCapacity,
		fighters:     def.FighterCapacity,
		maxFighters:  def.FighterCapacity,
		isEscapePod:  def.IsEscapePod,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReconstructShip rebuilds a Ship from persisted state.
func ReconstructShip(
	id shared.ID, typeID, displayName string, owner Owner,
	currentSector *int, inTransit bool, transitDest *int, transitETA *time.Time,
	credits int, cargo *shared.Cargo,
	warpPower, warpCapacity, shields, maxShields, fighters, maxFighters int,
	isEscapePod bool,
) (*Ship, error) {
	s := &Ship{
		id: id, typeID: typeID, displayName: displayName, owner: owner,
		currentSector: currentSector, inTransit: inTransit, transitDest: transitDest, transitETA: transitETA,
		credits: credits, cargo: cargo,
		warpPower: warpPower, warpCapacity: warpCapacity,
		shields: shields, maxShields: maxShields,
		fighters: fighters, maxFighters: maxFighters,
		isEscapePod: isEscapePod,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Ship) validate() error {
	if !s.owner.IsValid() {
		return shared.NewValidationError("owner", "invalid owner kind")
	}
	if s.owner.Kind != OwnerUnowned && s.owner.ID == nil {
		return shared.NewValidationError("owner", "owner id required for character/corporation ownership")
	}
	if s.fighters < 0 || s.fighters > s.maxFighters {
		return shared.NewValidationError("fighters", "must be within [0, max_fighters]")
	}
	if s.shields < 0 || s.shields > s.maxShields {
		return shared.NewValidationError("shields", "must be within [0, max_shields]")
	}
	if s.warpPower < 0 || s.warpPower > s.warpCapacity {
		return shared.NewValidationError("warp_power", "must be within [0, capacity]")
	}
	if s.cargo == nil {
		return shared.NewValidationError("cargo", "cannot be nil")
	}
	if s.credits < 0 {
		return shared.NewValidationError("credits", "cannot be negative")
	}
	return nil
}

// Getters

func (s *Ship) ID() shared.ID           { return s.id }
func (s *Ship) TypeID() string          { return s.typeID }
func (s *Ship) DisplayName() string     { return s.displayName }
func (s *Ship) Owner() Owner            { return s.owner }
func (s *Ship) CurrentSector() *int     { return s.currentSector }
func (s *Ship) InTransit() bool         { return s.inTransit }
func (s *Ship) TransitDestination() *int { return s.transitDest }
func (s *Ship) TransitETA() *time.Time  { return s.transitETA }
func (s *Ship) Credits() int            { return s.credits }
func (s *Ship) Cargo() *shared.Cargo    { return s.cargo }
func (s *Ship) WarpPower() int          { return s.warpPower }
func (s *Ship) WarpCapacity() int       { return s.warpCapacity }
func (s *Ship) Shields() int            { return s.shields }
func (s *Ship) MaxShields() int         { return s.maxShields }
func (s *Ship) Fighters() int           { return s.fighters }
func (s *Ship) MaxFighters() int        { return s.maxFighters }
func (s *Ship) IsEscapePod() bool       { return s.isEscapePod }

// IsOwnedByCharacter reports whether this ship belongs to the given character
// directly (not via corporation).
func (s *Ship) IsOwnedByCharacter(characterID shared.ID) bool {
	return s.owner.Kind == OwnerCharacter && s.owner.ID != nil && s.owner.ID.Equals(characterID)
}

// IsOwnedByCorporation reports whether this ship belongs to the given
// corporation.
func (s *Ship) IsOwnedByCorporation(corpID shared.ID) bool {
	return s.owner.Kind == OwnerCorporation && s.owner.ID != nil && s.owner.ID.Equals(corpID)
}

// TransferTo changes ownership (trade-in, corporation purchase, death
// reowning).
func (s *Ship) TransferTo(owner Owner) error {
	if !owner.IsValid() {
		return shared.NewValidationError("owner", "invalid owner kind")
	}
	s.owner = owner
	return nil
}

// Navigation

// StartTransit begins a hyperspace jump: deducts warp power, marks in
// transit, and records destination + eta. Requires the ship not already be
// in transit and hold sufficient warp power.
func (s *Ship) StartTransit(destination int, warpCost int, eta time.Time) error {
	if s.inTransit {
		return shared.NewConflictError("ship is already in transit")
	}
	if s.warpPower < warpCost {
		return shared.NewInsufficientResourceError("warp_power", warpCost, s.warpPower)
	}
	s.warpPower -= warpCost
	s.inTransit = true
	s.currentSector = nil
	s.transitDest = &destination
	s.transitETA = &eta
	return nil
}

// Arrive completes a hyperspace jump: the ship lands in its destination
// sector.
func (s *Ship) Arrive() error {
	if !s.inTransit || s.transitDest == nil {
		return shared.NewConflictError("ship is not in transit")
	}
	dest := *s.transitDest
	s.currentSector = &dest
	s.inTransit = false
	s.transitDest = nil
	s.transitETA = nil
	return nil
}

// TeleportTo relocates the ship immediately (successful flee during combat).
func (s *Ship) TeleportTo(sector int) {
	s.currentSector = &sector
	s.inTransit = false
	s.transitDest = nil
	s.transitETA = nil
}

// Resources

// DeductWarpPower spends warp power outside of transit bookkeeping (e.g.
// transfer_warp_power).
func (s *Ship) DeductWarpPower(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	if s.warpPower < amount {
		return shared.NewInsufficientResourceError("warp_power", amount, s.warpPower)
	}
	s.warpPower -= amount
	return nil
}

// AddWarpPower adds warp power, clamped to capacity.
func (s *Ship) AddWarpPower(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	s.warpPower += amount
	if s.warpPower > s.warpCapacity {
		s.warpPower = s.warpCapacity
	}
	return nil
}

// DeductCredits spends ship-local credits.
func (s *Ship) DeductCredits(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	if s.credits < amount {
		return shared.NewInsufficientResourceError("credits", amount, s.credits)
	}
	s.credits -= amount
	return nil
}

// AddCredits adds ship-local credits.
func (s *Ship) AddCredits(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	s.credits += amount
	return nil
}

// SetCargo replaces the ship's cargo manifest (repository reconstruction,
// dump_cargo, salvage_collect).
func (s *Ship) SetCargo(c *shared.Cargo) {
	s.cargo = c
}

// Combat application

// ApplyDamage reduces shields by shieldDamage and fighters by fighterDamage,
// each floored at 0; shield damage beyond the current shields is not carried
// over to fighters. Returns fighters and shields actually lost.
func (s *Ship) ApplyDamage(shieldDamage, fighterDamage int) (fightersLost, shieldLoss int) {
	if shieldDamage > 0 {
		shieldLoss = shieldDamage
		if shieldLoss > s.shields {
			shieldLoss = s.shields
		}
		s.shields -= shieldLoss
	}
	if fighterDamage > 0 {
		fightersLost = fighterDamage
		if fightersLost > s.fighters {
			fightersLost = s.fighters
		}
		s.fighters -= fightersLost
	}
	return fightersLost, shieldLoss
}

// AddFighters adds n fighters (purchase_fighters), failing if that would
// exceed max_fighters.
func (s *Ship) AddFighters(n int) error {
	if n < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	if s.fighters+n > s.maxFighters {
		return shared.NewInsufficientResourceError("fighter_capacity", n, s.maxFighters-s.fighters)
	}
	s.fighters += n
	return nil
}

// LoseFighters removes n fighters (attacker attrition), floored at 0.
func (s *Ship) LoseFighters(n int) int {
	if n > s.fighters {
		n = s.fighters
	}
	s.fighters -= n
	return n
}

// IsDestroyed reports whether the ship has no fighters and no shields left —
// the destroyed_all criterion for a non-escape-pod ship.
func (s *Ship) IsDestroyed() bool {
	return s.fighters <= 0 && s.shields <= 0
}

func (s *Ship) String() string {
	return fmt.Sprintf("Ship(%s type=%s owner=%s sector=%v fighters=%d/%d shields=%d/%d)",
		s.id, s.typeID, s.owner.Kind, s.currentSector, s.fighters, s.maxFighters, s.shields, s.maxShields)
}
