package dispatcher

import (
	"context"
	"sort"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// MoveRequest requests transit to an adjacent sector.
type MoveRequest struct {
	Base
	Destination int `json:"destination"`
}

type MoveHandler struct{ Deps *Deps }

func (h *MoveHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*MoveRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	character, err := h.Deps.Store.Characters.FindByID(ctx, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if character.CurrentShipID() == nil {
		return nil, shared.NewConflictError("character has no current ship")
	}
	ship, err := h.Deps.Store.Ships.FindByID(ctx, *character.CurrentShipID())
	if err != nil {
		return nil, err
	}
	if ship.InTransit() || ship.CurrentSector() == nil {
		return nil, shared.NewConflictError("ship must be stationary to move")
	}
	origin := *ship.CurrentSector()

	sector, err := h.Deps.Store.Sectors.FindByID(ctx, origin)
	if err != nil {
		return nil, err
	}
	if !sector.HasEdgeTo(req.Destination) {
		return nil, shared.NewValidationError("destination", "not adjacent to the current sector")
	}

	def, err := h.Deps.Store.ShipDefs.FindByTypeID(ctx, ship.TypeID())
	if err != nil {
		return nil, err
	}
	warpCost := def.WarpCost
	if ship.WarpPower() < warpCost {
		return nil, shared.NewInsufficientResourceError("warp_power", warpCost, ship.WarpPower())
	}

	delay := h.Deps.MoveDelay(warpCost)
	eta := now.Add(delay)

	started, err := h.Deps.Store.Ships.CompareAndStartTransit(ctx, ship.ID(), origin, req.Destination, warpCost, eta)
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, shared.NewConflictError("ship state changed before transit could start")
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "movement.start",
			Payload:    map[string]any{"ship_id": ship.ID().String(), "destination": req.Destination, "eta": eta},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &origin,
			RequestID:  req.RequestID,
		}, characterScope(resolved.CharacterID))

		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "character.moved",
			Payload:    map[string]any{"character_id": resolved.CharacterID.String(), "movement": "depart", "destination": req.Destination},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &origin,
			RequestID:  req.RequestID,
		}, sectorScope(origin, false))
	}

	if h.Deps.ScheduleArrival != nil {
		characterID := resolved.CharacterID
		shipID := ship.ID()
		destination := req.Destination
		requestID := req.RequestID
		h.Deps.ScheduleArrival(delay, func() {
			h.resolveArrival(context.Background(), characterID, shipID, destination, requestID)
		})
	}

	return ok(req.RequestID, map[string]any{"destination": req.Destination, "eta": eta, "warp_cost": warpCost}), nil
}

// ResumeOverdueArrivals recovers ships left in_transit past their eta by a
// process restart (the in-process ScheduleArrival timer that would have
// completed them doesn't survive a crash). The tick loop calls this once per
// pass alongside combat resolution. Returns the number of ships resumed.
func ResumeOverdueArrivals(ctx context.Context, deps *Deps, limit int) (int, error) {
	now := deps.Clock.Now()
	due, err := deps.Store.Ships.FindDueArrivals(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	h := &MoveHandler{Deps: deps}
	resumed := 0
	for _, ship := range due {
		owner := ship.Owner()
		if owner.Kind != world.OwnerCharacter || owner.ID == nil {
			continue
		}
		destination := ship.TransitDestination()
		if destination == nil {
			continue
		}
		h.resolveArrival(ctx, *owner.ID, ship.ID(), *destination, "")
		resumed++
	}
	return resumed, nil
}

// resolveArrival completes a scheduled hyperspace jump: CompareAndArrive is a
// conditional update, so a jump already resolved by a tick-loop resumer (on
// restart) is a silent no-op here.
func (h *MoveHandler) resolveArrival(ctx context.Context, characterID, shipID shared.ID, destination int, requestID string) {
	arrived, err := h.Deps.Store.Ships.CompareAndArrive(ctx, shipID)
	if err != nil || !arrived {
		return
	}
	now := h.Deps.Clock.Now()

	character, err := h.Deps.Store.Characters.FindByID(ctx, characterID)
	if err != nil {
		return
	}
	_ = recordVisit(ctx, h.Deps, character, destination, now)
	_ = h.Deps.Store.Characters.Save(ctx, character)

	if h.Deps.Bus == nil {
		return
	}
	_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
		Type:       "movement.complete",
		Payload:    map[string]any{"ship_id": shipID.String(), "sector_id": destination},
		Timestamp:  now,
		Originator: &characterID,
		SectorID:   &destination,
		RequestID:  requestID,
	}, characterScope(characterID))

	_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
		Type:       "map.local",
		Payload:    renderLocalMap(character, destination),
		Timestamp:  now,
		Originator: &characterID,
		SectorID:   &destination,
		RequestID:  requestID,
	}, characterScope(characterID))

	_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
		Type:       "character.moved",
		Payload:    map[string]any{"character_id": characterID.String(), "movement": "arrive"},
		Timestamp:  now,
		Originator: &characterID,
		SectorID:   &destination,
		RequestID:  requestID,
	}, sectorScope(destination, false))

	h.autoInitiateGarrisonCombat(ctx, characterID, destination)
}

// autoInitiateGarrisonCombat opens an encounter when an arriving pilot lands
// in a sector holding someone else's offensive or toll garrison — the
// garrison demands or attacks without waiting for either side to call
// combat_initiate.
func (h *MoveHandler) autoInitiateGarrisonCombat(ctx context.Context, characterID shared.ID, sectorID int) {
	if h.Deps.Combat == nil {
		return
	}
	garrisons, err := h.Deps.Store.Garrisons.FindBySector(ctx, sectorID)
	if err != nil {
		return
	}
	for _, g := range garrisons {
		if g.OwnerCharacter.Equals(characterID) || g.Fighters <= 0 {
			continue
		}
		if g.Mode == world.GarrisonOffensive || g.Mode == world.GarrisonToll {
			_, _ = h.Deps.Combat.Initiate(ctx, characterID, h.Deps.Clock.Now())
			return
		}
	}
}

// ListKnownPortsRequest is the BFS-bounded port directory query.
type ListKnownPortsRequest struct {
	Base
	MaxHops       int      `json:"max_hops"`
	Commodity     string   `json:"commodity,omitempty"`
	TradeType     string   `json:"trade_type,omitempty"` // "buy" | "sell", player's perspective
	PortCodeLike  string   `json:"port_code,omitempty"`
}

type ListKnownPortsHandler struct{ Deps *Deps }

const maxKnownPortsHops = 10

func (h *ListKnownPortsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*ListKnownPortsRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)

	// max_hops=0 is meaningful (the start sector only); only negative or
	// over-cap values fall back to the ceiling.
	maxHops := req.MaxHops
	if maxHops < 0 || maxHops > maxKnownPortsHops {
		maxHops = maxKnownPortsHops
	}

	character, err := h.Deps.Store.Characters.FindByID(ctx, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	center := character.Knowledge().CurrentSector

	var commodity shared.CommodityCode
	if req.Commodity != "" {
		commodity, err = shared.ParseCommodityCode(req.Commodity)
		if err != nil {
			return nil, err
		}
	}

	nodes := sectorgraph.LocalMapRegion(character.Knowledge(), center, maxHops, maxLocalMapNodes)

	type portEntry struct {
		SectorID int              `json:"sector_id"`
		Hops     int              `json:"hops"`
		Code     string           `json:"code"`
		Prices   []map[string]any `json:"prices"`
	}
	var results []portEntry
	for _, n := range nodes {
		if !n.Visited {
			continue
		}
		port, err := h.Deps.Store.Ports.FindBySector(ctx, n.SectorID)
		if err != nil || port == nil {
			continue
		}
		quote := port.Quote()
		var prices []map[string]any
		for _, price := range quote {
			if !price.Available {
				continue
			}
			if commodity != "" && price.Commodity != commodity {
				continue
			}
			if req.TradeType != "" && !matchesTradeType(req.TradeType, price.Action) {
				continue
			}
			prices = append(prices, map[string]any{
				"commodity": string(price.Commodity),
				"action":    string(price.Action),
				"price":     price.Price,
			})
		}
		if req.PortCodeLike != "" && port.CodeString() != req.PortCodeLike {
			continue
		}
		if (commodity != "" || req.TradeType != "") && len(prices) == 0 {
			continue
		}
		results = append(results, portEntry{SectorID: n.SectorID, Hops: n.Hops, Code: port.CodeString(), Prices: prices})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Hops < results[j].Hops })

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{"sector_id": r.SectorID, "hops": r.Hops, "code": r.Code, "prices": r.Prices})
	}

	return ok(req.RequestID, map[string]any{"ports": out}), nil
}

// matchesTradeType maps the player's trade_type onto the port's PortAction:
// a player "sell" (sells to the port) is satisfied by a port that buys
// (PortBuy); a player "buy" is satisfied by a port that sells (PortSell).
func matchesTradeType(tradeType string, action world.PortAction) bool {
	switch tradeType {
	case "sell":
		return action == world.PortBuy
	case "buy":
		return action == world.PortSell
	default:
		return true
	}
}
