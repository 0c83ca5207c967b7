// Package sectorgraph is SectorGraph (S): a pure algorithmic layer over
// WorldStore's sector adjacency plus per-character map knowledge. It computes
// shortest paths, BFS-bounded local-map regions, and path-anchored region
// payloads; map-knowledge itself lives in world.MapKnowledge.
package sectorgraph

import (
	"context"
	"sort"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// AdjacencyFetcher abstracts sector adjacency lookup so the graph algorithms
// don't depend on the full WorldStore.
type AdjacencyFetcher interface {
	FindByID(ctx context.Context, id int) (*world.Sector, error)
}

// Graph wraps an AdjacencyFetcher with a per-call adjacency cache, since a
// single path/region computation may revisit the same sector many times.
type Graph struct {
	fetcher AdjacencyFetcher
	cache   map[int]*world.Sector
}

func NewGraph(fetcher AdjacencyFetcher) *Graph {
	return &Graph{fetcher: fetcher, cache: make(map[int]*world.Sector)}
}

func (g *Graph) sector(ctx context.Context, id int) (*world.Sector, error) {
	if s, ok := g.cache[id]; ok {
		return s, nil
	}
	s, err := g.fetcher.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.cache[id] = s
	return s, nil
}

// neighbors returns the sector's adjacent sector ids, sorted ascending so
// traversal order is deterministic and ties break on the smaller id.
func (g *Graph) neighbors(ctx context.Context, id int) ([]int, error) {
	s, err := g.sector(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := s.Neighbors()
	sort.Ints(ids)
	return ids, nil
}

// ErrPathNotFound is returned by ShortestPath when to is unreachable from
// from.
var ErrPathNotFound = shared.NewNotFoundError("path", "unreachable")

// ShortestPath runs BFS over sector warp edges (undirected when the edge is
// two_way) from `from` to `to`, breaking ties by numerically smaller
// neighbor id. Returns the ordered path (inclusive of both endpoints) and its
// distance in hops.
func (g *Graph) ShortestPath(ctx context.Context, from, to int) ([]int, int, error) {
	if from == to {
		return []int{from}, 0, nil
	}

	visited := map[int]bool{from: true}
	parent := map[int]int{}
	queue := []int{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		neighbors, err := g.neighbors(ctx, current)
		if err != nil {
			return nil, 0, err
		}
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			parent[n] = current
			if n == to {
				return reconstructPath(parent, from, to), pathLen(parent, from, to), nil
			}
			queue = append(queue, n)
		}
	}

	return nil, 0, ErrPathNotFound
}

func reconstructPath(parent map[int]int, from, to int) []int {
	path := []int{to}
	current := to
	for current != from {
		current = parent[current]
		path = append([]int{current}, path...)
	}
	return path
}

func pathLen(parent map[int]int, from, to int) int {
	n := 0
	current := to
	for current != from {
		current = parent[current]
		n++
	}
	return n
}
