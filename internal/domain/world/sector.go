package world

import "github.com/gradient-bang/server/internal/domain/shared"

// WarpEdge is one directed connection out of a Sector's adjacency list.
type WarpEdge struct {
	To       int
	TwoWay   bool
	Hyperlane bool
}

// Sector is a node in the warp graph — the coarsest unit of spatial presence.
//
// Invariant: for every edge (a→b, two_way=true) an edge (b→a) exists. Neither
// Sector (a single sector cannot see its neighbors' edges) nor sectorgraph
// checks it: it is assumed of the stored sector data, and graph traversal
// follows only each sector's own outgoing edges.
type Sector struct {
	ID       int
	X, Y     int
	Region   string
	Edges    []WarpEdge
}

// NewSector validates and constructs a Sector.
func NewSector(id, x, y int, region string, edges []WarpEdge) (*Sector, error) {
	if id < 0 {
		return nil, shared.NewValidationError("sector_id", "must be non-negative")
	}
	return &Sector{ID: id, X: x, Y: y, Region: region, Edges: edges}, nil
}

// Neighbors returns the destination sector ids reachable by a single warp
// edge from this sector.
func (s *Sector) Neighbors() []int {
	out := make([]int, 0, len(s.Edges))
	for _, e := range s.Edges {
		out = append(out, e.To)
	}
	return out
}

// HasEdgeTo reports whether this sector has a direct warp edge to dest.
func (s *Sector) HasEdgeTo(dest int) bool {
	for _, e := range s.Edges {
		if e.To == dest {
			return true
		}
	}
	return false
}
