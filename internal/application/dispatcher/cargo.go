package dispatcher

import (
	"context"

	"time"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// salvageDumpTTL is the expiry window for salvage dropped by dump_cargo
// (death salvage carries its own expiry computed at finalization time).
const salvageDumpTTL = 30 * time.Minute

// DumpCargoRequest jettisons units of Commodity from the caller's ship into
// a new sector salvage entry.
type DumpCargoRequest struct {
	Base
	Commodity string `json:"commodity"`
	Quantity  int    `json:"quantity"`
}

type DumpCargoHandler struct{ Deps *Deps }

func (h *DumpCargoHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*DumpCargoRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	commodity, err := shared.ParseCommodityCode(req.Commodity)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive")
	}

	_, ship, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if ship.CurrentSector() == nil {
		return nil, shared.NewConflictError("ship must be stationary to dump cargo")
	}
	sectorID := *ship.CurrentSector()

	newCargo, err := ship.Cargo().Remove(commodity, req.Quantity)
	if err != nil {
		return nil, err
	}
	ship.SetCargo(newCargo)
	if err := h.Deps.Store.Ships.Save(ctx, ship); err != nil {
		return nil, err
	}

	entry, err := world.NewSalvage(sectorID, map[shared.CommodityCode]int{commodity: req.Quantity}, 0, 0, now, now.Add(salvageDumpTTL))
	if err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Salvage.Save(ctx, entry); err != nil {
		return nil, err
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "salvage.dropped",
			Payload:    map[string]any{"salvage_id": entry.ID.String(), "cargo": entry.Cargo},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &sectorID,
			RequestID:  req.RequestID,
		}, sectorScope(sectorID, true))
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "sector.update",
			Payload:    map[string]any{"sector_id": sectorID},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &sectorID,
			RequestID:  req.RequestID,
		}, sectorScope(sectorID, true))
	}

	return ok(req.RequestID, map[string]any{"salvage_id": entry.ID.String(), "cargo": ship.Cargo().Snapshot()}), nil
}

// SalvageCollectRequest claims a sector salvage entry into the caller's
// cargo/credits.
type SalvageCollectRequest struct {
	Base
	SalvageID string `json:"salvage_id"`
}

type SalvageCollectHandler struct{ Deps *Deps }

func (h *SalvageCollectHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*SalvageCollectRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	salvageID, err := shared.ParseID(req.SalvageID)
	if err != nil {
		return nil, err
	}

	_, ship, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if ship.CurrentSector() == nil {
		return nil, shared.NewConflictError("ship must be stationary to collect salvage")
	}
	sectorID := *ship.CurrentSector()

	entry, err := h.Deps.Store.Salvage.FindByID(ctx, salvageID)
	if err != nil {
		return nil, err
	}
	if entry.SectorID != sectorID {
		return nil, shared.NewConflictError("salvage is not in this sector")
	}
	if entry.IsExpired(now) {
		return nil, shared.NewConflictError("salvage has expired")
	}
	if err := entry.Claim(); err != nil {
		return nil, err
	}

	cargo := ship.Cargo()
	for _, code := range shared.Commodities() {
		units := entry.Cargo[code]
		if units == 0 {
			continue
		}
		next, err := cargo.Add(code, units)
		if err != nil {
			return nil, err
		}
		cargo = next
	}
	ship.SetCargo(cargo)
	if err := ship.AddCredits(entry.Credits); err != nil {
		return nil, err
	}

	if err := h.Deps.Store.Ships.Save(ctx, ship); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Salvage.Delete(ctx, entry.ID); err != nil {
		return nil, err
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "salvage.collected",
			Payload:    map[string]any{"salvage_id": entry.ID.String(), "collected_by": resolved.CharacterID.String(), "scrap": entry.Scrap, "credits": entry.Credits},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &sectorID,
			RequestID:  req.RequestID,
		}, sectorScope(sectorID, true))
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "sector.update",
			Payload:    map[string]any{"sector_id": sectorID},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &sectorID,
			RequestID:  req.RequestID,
		}, sectorScope(sectorID, true))
	}

	return ok(req.RequestID, map[string]any{"cargo": ship.Cargo().Snapshot(), "credits_collected": entry.Credits, "ship_credits": ship.Credits()}), nil
}
