package dispatcher

import (
	"context"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// JoinRequest binds a character to a ship and starting sector, creating the
// character on first contact. ShipTypeID and StartSector are only consulted
// the first time a given character id is seen.
type JoinRequest struct {
	Base
	DisplayName string `json:"display_name,omitempty"`
	ShipTypeID  string `json:"ship_type_id"`
	StartSector int    `json:"start_sector"`
}

type JoinHandler struct{ Deps *Deps }

func (h *JoinHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*JoinRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	character, err := h.Deps.Store.Characters.FindByID(ctx, resolved.CharacterID)
	if err != nil {
		if shared.KindOf(err) != shared.KindNotFound {
			return nil, err
		}
		displayName := req.DisplayName
		if displayName == "" {
			displayName = req.CharacterID
		}
		character, err = world.NewCharacter(resolved.CharacterID, displayName, false, now)
		if err != nil {
			return nil, err
		}
		if err := h.Deps.Store.Characters.Create(ctx, character); err != nil {
			return nil, err
		}
	}

	if character.CurrentShipID() == nil {
		def, err := h.Deps.Store.ShipDefs.FindByTypeID(ctx, req.ShipTypeID)
		if err != nil {
			return nil, err
		}
		ship, err := world.NewShip(shared.NewID(), def.TypeID, character.DisplayName()+"'s "+def.DisplayName,
			world.CharacterOwner(resolved.CharacterID), req.StartSector, def)
		if err != nil {
			return nil, err
		}
		if err := h.Deps.Store.Ships.Create(ctx, ship); err != nil {
			return nil, err
		}
		character.AssignShip(ship.ID())
		if err := recordVisit(ctx, h.Deps, character, *ship.CurrentSector(), now); err != nil {
			return nil, err
		}
		if err := h.Deps.Store.Characters.Save(ctx, character); err != nil {
			return nil, err
		}
	}
	character.Touch(now)
	if err := h.Deps.Store.Characters.Save(ctx, character); err != nil {
		return nil, err
	}

	payload, err := h.Deps.Store.StatusPayload(ctx, character.ID())
	if err != nil {
		return nil, err
	}

	data := map[string]any{"status": renderStatus(payload)}
	if payload.Sector != nil {
		data["map_local"] = renderLocalMap(character, payload.Sector.SectorID)
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, statusEvent(character.ID(), req.RequestID, now), characterScope(character.ID()))
	}

	return ok(req.RequestID, data), nil
}

// MyStatusRequest asks for the caller's own status.snapshot.
type MyStatusRequest struct {
	Base
}

type MyStatusHandler struct{ Deps *Deps }

func (h *MyStatusHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*MyStatusRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)

	payload, err := h.Deps.Store.StatusPayload(ctx, resolved.CharacterID)
	if err != nil {
		return nil, err
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "status.snapshot",
			Payload:    map[string]any{"status": renderStatus(payload)},
			Timestamp:  h.Deps.Clock.Now(),
			Originator: &resolved.CharacterID,
			RequestID:  req.RequestID,
		}, characterScope(resolved.CharacterID))
	}

	return ok(req.RequestID, map[string]any{"status": renderStatus(payload)}), nil
}

// renderStatus flattens a world.StatusPayload into the wire shape, naming
// only rendered/human fields (never internal repository handles).
func renderStatus(p *world.StatusPayload) map[string]any {
	out := map[string]any{
		"character_id":   p.Character.ID().String(),
		"display_name":   p.Character.DisplayName(),
		"bank_balance":   p.Character.BankBalance(),
		"total_visited":  p.TotalVisited,
		"sector_known":   p.CurrentSectorKnown,
	}
	if p.Ship != nil {
		out["ship"] = map[string]any{
			"id":            p.Ship.ID().String(),
			"type_id":       p.Ship.TypeID(),
			"display_name":  p.Ship.DisplayName(),
			"credits":       p.Ship.Credits(),
			"warp_power":    p.Ship.WarpPower(),
			"warp_capacity": p.Ship.WarpCapacity(),
			"shields":       p.Ship.Shields(),
			"max_shields":   p.Ship.MaxShields(),
			"fighters":      p.Ship.Fighters(),
			"max_fighters":  p.Ship.MaxFighters(),
			"cargo":         p.Ship.Cargo().Snapshot(),
			"in_transit":    p.Ship.InTransit(),
		}
		if p.Ship.TransitETA() != nil {
			out["ship"].(map[string]any)["transit_eta"] = p.Ship.TransitETA()
		}
	}
	if p.Sector != nil {
		out["sector"] = renderSector(p.Sector)
	}
	return out
}

func renderSector(s *world.SectorSnapshot) map[string]any {
	out := map[string]any{
		"sector_id": s.SectorID,
		"x":         s.X,
		"y":         s.Y,
		"region":    s.Region,
	}
	if s.Port != nil {
		out["port"] = renderPort(s.Port)
	}
	if s.ActiveCombat != nil {
		out["active_combat_id"] = s.ActiveCombat.String()
	}
	chars := make([]map[string]any, 0, len(s.Characters))
	for _, c := range s.Characters {
		chars = append(chars, map[string]any{"character_id": c.ID.String(), "display_name": c.DisplayName})
	}
	out["characters"] = chars
	garrisons := make([]map[string]any, 0, len(s.Garrisons))
	for _, g := range s.Garrisons {
		garrisons = append(garrisons, map[string]any{
			"owner_character_id": g.OwnerCharacterID.String(),
			"owner_display_name": g.OwnerDisplayName,
			"fighters":           g.Fighters,
			"mode":               string(g.Mode),
		})
	}
	out["garrisons"] = garrisons
	return out
}

func renderPort(p *world.PortView) map[string]any {
	prices := make([]map[string]any, 0, len(p.Prices))
	for _, price := range p.Prices {
		prices = append(prices, map[string]any{
			"commodity": string(price.Commodity),
			"action":    string(price.Action),
			"price":     price.Price,
			"available": price.Available,
		})
	}
	return map[string]any{"code": p.Code, "prices": prices}
}

