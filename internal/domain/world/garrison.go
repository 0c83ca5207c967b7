package world

import (
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// GarrisonMode is a closed tagged variant over a garrison's stance.
type GarrisonMode string

const (
	GarrisonOffensive GarrisonMode = "offensive"
	GarrisonDefensive GarrisonMode = "defensive"
	GarrisonToll      GarrisonMode = "toll"
)

func (m GarrisonMode) IsValid() bool {
	switch m {
	case GarrisonOffensive, GarrisonDefensive, GarrisonToll:
		return true
	default:
		return false
	}
}

// Garrison is a sector-anchored fighter stack owned by a character, keyed by
// (sector, owner-character).
type Garrison struct {
	SectorID        int
	OwnerCharacter  shared.ID
	Fighters        int
	Mode            GarrisonMode
	TollAmount      int
	TollBalance     int
	DeployedAt      time.Time
}

// NewGarrison validates and constructs a Garrison.
func NewGarrison(sectorID int, owner shared.ID, fighters int, mode GarrisonMode, tollAmount int, deployedAt time.Time) (*Garrison, error) {
	if owner.IsZero() {
		return nil, shared.NewValidationError("owner_character_id", "cannot be zero")
	}
	if fighters < 0 {
		return nil, shared.NewValidationError("fighters", "cannot be negative")
	}
	if !mode.IsValid() {
		return nil, shared.NewValidationError("mode", "must be offensive, defensive, or toll")
	}
	if tollAmount < 0 {
		return nil, shared.NewValidationError("toll_amount", "cannot be negative")
	}
	return &Garrison{
		SectorID:       sectorID,
		OwnerCharacter: owner,
		Fighters:       fighters,
		Mode:           mode,
		TollAmount:     tollAmount,
		DeployedAt:     deployedAt,
	}, nil
}

// ReceiveToll credits amount to the toll balance (the finalize hook for
// combat_action{action:pay}).
func (g *Garrison) ReceiveToll(amount int) {
	g.TollBalance += amount
}
