package sectorgraph

import (
	"sort"

	"github.com/gradient-bang/server/internal/domain/world"
)

// RegionNode is one sector entry in a LocalMapRegion result: either a
// visited sector (hop count known, full knowledge embedded) or a
// "seen-from" stub for an unvisited neighbor of a visited sector.
type RegionNode struct {
	SectorID int
	Hops     int
	Visited  bool

	// Visited fields
	AdjacentSectors []int
	X, Y            int

	// Seen-from fields (unvisited neighbor stubs)
	SeenFrom []int
}

// LocalMapRegion runs BFS from center, traversing only sectors the character
// has visited (per knowledge), up to maxHops. Unvisited neighbors of visited
// nodes are included as seen-from stubs carrying only the visited sectors
// they were observed adjacent to, with no port data. The result is hard
// capped at maxNodes total emitted nodes and sorted ascending by sector id.
func LocalMapRegion(knowledge *world.MapKnowledge, center, maxHops, maxNodes int) []RegionNode {
	if !knowledge.IsVisited(center) {
		return nil
	}

	type queued struct {
		id, hops int
	}

	visitedHops := map[int]int{center: 0}
	seenFrom := map[int]map[int]bool{}
	order := []int{center}
	queue := []queued{{center, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		sk := knowledge.Sectors[cur.id]
		if sk == nil {
			continue
		}
		if cur.hops >= maxHops {
			continue
		}
		for _, adj := range sk.AdjacentSectors {
			if knowledge.IsVisited(adj) {
				if _, ok := visitedHops[adj]; !ok {
					visitedHops[adj] = cur.hops + 1
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

	nodes := make([]RegionNode, 0, len(order))
	for _, id := range order {
		if hops, ok := visitedHops[id]; ok {
			sk := knowledge.Sectors[id]
			nodes = append(nodes, RegionNode{
				SectorID:        id,
				Hops:            hops,
				Visited:         true,
				AdjacentSectors: append([]int(nil), sk.AdjacentSectors...),
				X:               sk.X,
				Y:               sk.Y,
			})
		} else {
			from := make([]int, 0, len(seenFrom[id]))
			for f := range seenFrom[id] {
				from = append(from, f)
			}
			sort.Ints(from)
			nodes = append(nodes, RegionNode{SectorID: id, Visited: false, SeenFrom: from})
		}
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].SectorID < nodes[j].SectorID })

	if len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}
	return nodes
}
