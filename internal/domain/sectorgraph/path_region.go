package sectorgraph

import (
	"context"
	"sort"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// PathRegionEntry is one sector entry in a PathRegionPayload result.
type PathRegionEntry struct {
	SectorID int
	Hops     int
	OnPath   bool
	Visited  bool

	// Visited fields: a full compound read, the same one returned for the
	// character's own current sector.
	Snapshot *world.SectorSnapshot

	// Unvisited fields: which visited sectors this one was observed from.
	SeenFrom []int

	// Non-path visited sectors only: which path nodes this sector directly
	// neighbors, so a client can draw the route without re-deriving adjacency.
	AdjacentToPathNodes []int
}

// PathRegionPayload anchors every sector on path at hop distance 0, then BFS
// outward through visited sectors within regionHops. Visited sectors embed a
// full SectorSnapshot; unvisited sectors emit only seen-from metadata.
// Non-path visited sectors that neighbor a path node record that adjacency.
// Result is sorted ascending by sector id and capped at maxSectors entries.
func PathRegionPayload(
	ctx context.Context,
	store *world.Store,
	knowledge *world.MapKnowledge,
	path []int,
	regionHops, maxSectors int,
	viewer *shared.ID,
) ([]PathRegionEntry, error) {
	onPath := make(map[int]bool, len(path))
	for _, id := range path {
		onPath[id] = true
	}

	type queued struct{ id, hops int }

	hopsOf := map[int]int{}
	seenFrom := map[int]map[int]bool{}
	order := []int{}
	queue := []queued{}

	for _, id := range path {
		if _, ok := hopsOf[id]; !ok {
			hopsOf[id] = 0
			order = append(order, id)
			queue = append(queue, queued{id, 0})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		sk := knowledge.Sectors[cur.id]
		if sk == nil || cur.hops >= regionHops {
			continue
		}
		for _, adj := range sk.AdjacentSectors {
			if knowledge.IsVisited(adj) {
				if _, ok := hopsOf[adj]; !ok {
					hopsOf[adj] = cur.hops + 1
					order = append(order, adj)
					queue = append(queue, queued{adj, cur.hops + 1})
				}
			} else {
				if seenFrom[adj] == nil {
					seenFrom[adj] = map[int]bool{}
					order = append(order, adj)
				}
				seenFrom[adj][cur.id] = true
			}
		}
	}

	adjToPath := map[int]map[int]bool{}
	for _, pid := range path {
		sk := knowledge.Sectors[pid]
		if sk == nil {
			continue
		}
		for _, adj := range sk.AdjacentSectors {
			if onPath[adj] || !knowledge.IsVisited(adj) {
				continue
			}
			if adjToPath[adj] == nil {
				adjToPath[adj] = map[int]bool{}
			}
			adjToPath[adj][pid] = true
		}
	}

	sort.Ints(order)
	if len(order) > maxSectors {
		order = order[:maxSectors]
	}

	entries := make([]PathRegionEntry, 0, len(order))
	for _, id := range order {
		if hops, ok := hopsOf[id]; ok {
			snap, err := store.SectorSnapshot(ctx, id, viewer)
			if err != nil {
				return nil, err
			}
			entry := PathRegionEntry{
				SectorID: id,
				Hops:     hops,
				OnPath:   onPath[id],
				Visited:  true,
				Snapshot: snap,
			}
			if !onPath[id] && adjToPath[id] != nil {
				adj := make([]int, 0, len(adjToPath[id]))
				for pid := range adjToPath[id] {
					adj = append(adj, pid)
				}
				sort.Ints(adj)
				entry.AdjacentToPathNodes = adj
			}
			entries = append(entries, entry)
		} else {
			from := make([]int, 0, len(seenFrom[id]))
			for f := range seenFrom[id] {
				from = append(from, f)
			}
			sort.Ints(from)
			entries = append(entries, PathRegionEntry{SectorID: id, Visited: false, SeenFrom: from})
		}
	}

	return entries, nil
}
