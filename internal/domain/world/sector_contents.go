package world

import "github.com/gradient-bang/server/internal/domain/shared"

// SectorContents is the mutable per-sector bundle: an optional port, the
// salvage sitting in the sector, the observer channels registered for it, and
// the id of any active combat encounter.
type SectorContents struct {
	SectorID       int
	Port           *Port
	Salvage        []*Salvage
	ObserverChannels []string
	ActiveCombatID *shared.ID
}

// NewSectorContents constructs an empty contents bundle for a sector.
func NewSectorContents(sectorID int) *SectorContents {
	return &SectorContents{SectorID: sectorID}
}

// RegisterObserver adds an observer channel if not already present.
func (c *SectorContents) RegisterObserver(channel string) {
	for _, existing := range c.ObserverChannels {
		if existing == channel {
			return
		}
	}
	c.ObserverChannels = append(c.ObserverChannels, channel)
}

// AddSalvage appends a salvage entry to the sector.
func (c *SectorContents) AddSalvage(s *Salvage) {
	c.Salvage = append(c.Salvage, s)
}

// RemoveExpiredOrClaimed drops salvage entries that are claimed, leaving the
// rest in c.Salvage. Expired but unclaimed entries are kept.
func (c *SectorContents) RemoveExpiredOrClaimed() {
	kept := c.Salvage[:0]
	for _, s := range c.Salvage {
		if !s.Claimed {
			kept = append(kept, s)
		}
	}
	c.Salvage = kept
}

// HasActiveCombat reports whether combat is ongoing in this sector.
func (c *SectorContents) HasActiveCombat() bool {
	return c.ActiveCombatID != nil
}
