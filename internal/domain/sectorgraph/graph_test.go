package sectorgraph_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

func zeroTime() time.Time { return time.Unix(0, 0).UTC() }

// fakeFetcher is an in-memory AdjacencyFetcher backing a small, fixed warp
// graph so ShortestPath can be exercised without a database.
type fakeFetcher struct {
	sectors map[int]*world.Sector
}

func (f *fakeFetcher) FindByID(ctx context.Context, id int) (*world.Sector, error) {
	s, ok := f.sectors[id]
	if !ok {
		return nil, shared.NewNotFoundError("sector", strconv.Itoa(id))
	}
	return s, nil
}

// newLineGraph builds sectors 1-2-3-4-5 in a straight two-way chain, plus a
// shortcut edge 1->5 so ShortestPath has more than one candidate route to
// verify against.
func newLineGraph(t *testing.T) *fakeFetcher {
	t.Helper()

	edges := func(to ...int) []world.WarpEdge {
		out := make([]world.WarpEdge, 0, len(to))
		for _, id := range to {
			out = append(out, world.WarpEdge{To: id, TwoWay: true})
		}
		return out
	}

	mk := func(id int, to ...int) *world.Sector {
		s, err := world.NewSector(id, 0, 0, "core", edges(to...))
		require.NoError(t, err)
		return s
	}

	return &fakeFetcher{sectors: map[int]*world.Sector{
		1: mk(1, 2, 5),
		2: mk(2, 1, 3),
		3: mk(3, 2, 4),
		4: mk(4, 3, 5),
		5: mk(5, 4, 1),
	}}
}

func TestShortestPath_SameSectorIsZeroHops(t *testing.T) {
	graph := sectorgraph.NewGraph(newLineGraph(t))

	path, hops, err := graph.ShortestPath(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, hops)
	assert.Equal(t, []int{3}, path)
}

func TestShortestPath_TakesTheShortcutEdge(t *testing.T) {
	graph := sectorgraph.NewGraph(newLineGraph(t))

	path, hops, err := graph.ShortestPath(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, hops, "1->5 shortcut edge must win over the 1->2->3->4->5 chain")
	assert.Equal(t, []int{1, 5}, path)
}

func TestShortestPath_LongerRouteWithoutShortcut(t *testing.T) {
	graph := sectorgraph.NewGraph(newLineGraph(t))

	path, hops, err := graph.ShortestPath(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, hops)
	assert.Equal(t, []int{2, 3, 4}, path)
}

func TestShortestPath_UnreachableSectorReturnsNotFound(t *testing.T) {
	fetcher := newLineGraph(t)
	isolated, err := world.NewSector(99, 0, 0, "rim", nil)
	require.NoError(t, err)
	fetcher.sectors[99] = isolated

	graph := sectorgraph.NewGraph(fetcher)

	_, _, err = graph.ShortestPath(context.Background(), 1, 99)
	assert.ErrorIs(t, err, sectorgraph.ErrPathNotFound)
}

func TestLocalMapRegion_UnvisitedCenterReturnsNil(t *testing.T) {
	knowledge := world.NewMapKnowledge("character-1")
	nodes := sectorgraph.LocalMapRegion(knowledge, 1, 2, 50)
	assert.Nil(t, nodes)
}

func TestLocalMapRegion_IncludesVisitedHopsAndSeenFromStubs(t *testing.T) {
	knowledge := world.NewMapKnowledge("character-1")
	knowledge.Upsert(1, []int{2, 5}, 0, 0, zeroTime(), nil)
	knowledge.Upsert(2, []int{1, 3}, 1, 0, zeroTime(), nil)
	// 3 and 5 are known only as neighbors, never actually visited.

	nodes := sectorgraph.LocalMapRegion(knowledge, 1, 5, 50)

	byID := map[int]sectorgraph.RegionNode{}
	for _, n := range nodes {
		byID[n.SectorID] = n
	}

	require.Contains(t, byID, 1)
	assert.True(t, byID[1].Visited)
	assert.Equal(t, 0, byID[1].Hops)

	require.Contains(t, byID, 2)
	assert.True(t, byID[2].Visited)
	assert.Equal(t, 1, byID[2].Hops)

	require.Contains(t, byID, 3)
	assert.False(t, byID[3].Visited)
	assert.Contains(t, byID[3].SeenFrom, 2)

	require.Contains(t, byID, 5)
	assert.False(t, byID[5].Visited)
	assert.Contains(t, byID[5].SeenFrom, 1)
}

func TestLocalMapRegion_RespectsMaxHops(t *testing.T) {
	knowledge := world.NewMapKnowledge("character-1")
	knowledge.Upsert(1, []int{2}, 0, 0, zeroTime(), nil)
	knowledge.Upsert(2, []int{1, 3}, 1, 0, zeroTime(), nil)
	knowledge.Upsert(3, []int{2, 4}, 2, 0, zeroTime(), nil)
	knowledge.Upsert(4, []int{3}, 3, 0, zeroTime(), nil)

	nodes := sectorgraph.LocalMapRegion(knowledge, 1, 1, 50)

	ids := make([]int, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.SectorID)
	}
	assert.NotContains(t, ids, 4, "sector 4 is two visited hops beyond maxHops=1 and must be excluded")
}
