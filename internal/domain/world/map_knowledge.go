package world

import "time"

// PortObservation is the last-seen port quote a character recorded for a
// sector, carried in their map knowledge rather than re-derived live.
type PortObservation struct {
	Code     string
	Capacity [3]int
	Stock    [3]int
}

// SectorKnowledge is what one character knows about one sector: its
// adjacency and position as last observed, when it was last visited, and
// (if present) the port last seen there.
type SectorKnowledge struct {
	SectorID        int
	AdjacentSectors []int
	X, Y            int
	LastVisited     time.Time
	Port            *PortObservation
}

// MapKnowledge is the per-character visited-sector memory that drives what a
// player can see (§3, §4.2).
type MapKnowledge struct {
	CharacterID   string
	Sectors       map[int]*SectorKnowledge
	CurrentSector int
	TotalVisited  int
}

// NewMapKnowledge constructs empty map knowledge for a character.
func NewMapKnowledge(characterID string) *MapKnowledge {
	return &MapKnowledge{
		CharacterID: characterID,
		Sectors:     make(map[int]*SectorKnowledge),
	}
}

// IsVisited reports whether the character has ever recorded this sector.
func (m *MapKnowledge) IsVisited(sectorID int) bool {
	_, ok := m.Sectors[sectorID]
	return ok
}

// VisitedSectorIDs returns every sector id the character has recorded,
// unordered.
func (m *MapKnowledge) VisitedSectorIDs() []int {
	out := make([]int, 0, len(m.Sectors))
	for id := range m.Sectors {
		out = append(out, id)
	}
	return out
}

// Upsert idempotently records a visit to sector, updating adjacency,
// position, last-visited timestamp, and port observation. It increments
// TotalVisited only the first time the sector is recorded, and returns
// firstVisit so callers can trigger first-visit bonuses. Calling Upsert
// again with identical arguments leaves TotalVisited and firstVisit (false)
// unchanged — the idempotence required by §8.
func (m *MapKnowledge) Upsert(sectorID int, adjacent []int, x, y int, timestamp time.Time, port *PortObservation) bool {
	existing, ok := m.Sectors[sectorID]
	firstVisit := !ok
	if firstVisit {
		m.TotalVisited++
	}

	adjCopy := make([]int, len(adjacent))
	copy(adjCopy, adjacent)

	if existing == nil {
		existing = &SectorKnowledge{SectorID: sectorID}
		m.Sectors[sectorID] = existing
	}
	existing.AdjacentSectors = adjCopy
	existing.X, existing.Y = x, y
	existing.LastVisited = timestamp
	if port != nil {
		existing.Port = port
	}

	m.CurrentSector = sectorID
	return firstVisit
}
