package world

import (
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// Salvage is a container dropped by destruction or deliberate dump: cargo,
// scrap (bonus material), and credits.
type Salvage struct {
	ID        shared.ID
	SectorID  int
	Cargo     map[shared.CommodityCode]int
	Scrap     int
	Credits   int
	CreatedAt time.Time
	ExpiresAt time.Time
	Claimed   bool
}

// NewSalvage validates and constructs a Salvage entry.
func NewSalvage(sectorID int, cargo map[shared.CommodityCode]int, scrap, credits int, createdAt, expiresAt time.Time) (*Salvage, error) {
	if scrap < 0 || credits < 0 {
		return nil, shared.NewValidationError("salvage", "scrap and credits must be non-negative")
	}
	if !expiresAt.After(createdAt) {
		return nil, shared.NewValidationError("salvage", "expires_at must be after created_at")
	}
	normalized := make(map[shared.CommodityCode]int, 3)
	for _, code := range shared.Commodities() {
		if n := cargo[code]; n > 0 {
			normalized[code] = n
		}
	}
	return &Salvage{
		ID:        shared.NewID(),
		SectorID:  sectorID,
		Cargo:     normalized,
		Scrap:     scrap,
		Credits:   credits,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// IsExpired reports whether the salvage has expired as of now and was never
// claimed.
func (s *Salvage) IsExpired(now time.Time) bool {
	return !s.Claimed && now.After(s.ExpiresAt)
}

// Claim marks the salvage as collected. Not idempotent: claiming an already
// claimed entry is a conflict, since salvage is destroyed when fully
// collected.
func (s *Salvage) Claim() error {
	if s.Claimed {
		return shared.NewConflictError("salvage already claimed")
	}
	s.Claimed = true
	return nil
}
