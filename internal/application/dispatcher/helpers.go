package dispatcher

import (
	"context"
	"time"

	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/world"
)

// maxLocalMapHops/maxLocalMapNodes bound the map.local payload emitted on
// join/move; list_known_ports shares the node cap but allows up to
// maxKnownPortsHops hops (§4.2).
const (
	maxLocalMapHops  = 5
	maxLocalMapNodes = 200
)

// recordVisit upserts a character's map knowledge for sectorID, pulling
// adjacency/position from the sector graph and the port quote (if any) so
// join/move always leave TotalVisited and the sector's cached port
// observation consistent with what was actually seen.
func recordVisit(ctx context.Context, d *Deps, character *world.Character, sectorID int, now time.Time) error {
	sector, err := d.Store.Sectors.FindByID(ctx, sectorID)
	if err != nil {
		return err
	}

	var portObs *world.PortObservation
	if port, err := d.Store.Ports.FindBySector(ctx, sectorID); err == nil && port != nil {
		portObs = &world.PortObservation{Code: port.CodeString(), Capacity: port.Capacity, Stock: port.Stock}
	}

	character.Knowledge().Upsert(sectorID, sector.Neighbors(), sector.X, sector.Y, now, portObs)
	return nil
}

// renderLocalMap builds the map.local payload: the character's visited-sector
// BFS region around sectorID.
func renderLocalMap(character *world.Character, sectorID int) map[string]any {
	nodes := sectorgraph.LocalMapRegion(character.Knowledge(), sectorID, maxLocalMapHops, maxLocalMapNodes)
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		entry := map[string]any{"sector_id": n.SectorID, "visited": n.Visited}
		if n.Visited {
			entry["hops"] = n.Hops
			entry["adjacent_sectors"] = n.AdjacentSectors
			entry["x"] = n.X
			entry["y"] = n.Y
		} else {
			entry["seen_from"] = n.SeenFrom
		}
		out = append(out, entry)
	}
	return map[string]any{"center": sectorID, "nodes": out}
}
