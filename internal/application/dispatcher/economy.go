package dispatcher

import (
	"context"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/ledger"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// sector0 is the single bank/shipyard hub (§6.2: bank_transfer, purchase_fighters
// are sector-0-only).
const sector0 = 0

// fighterUnitCost is the credits-per-fighter rate for purchase_fighters and
// the trade-in refund basis for ship_purchase; the spec leaves the constant
// unspecified (§6.2), so it is fixed here rather than left to a magic number
// scattered across handlers.
const fighterUnitCost = 5

func requireSector0(ship *world.Ship) error {
	if ship.CurrentSector() == nil || *ship.CurrentSector() != sector0 {
		return shared.NewConflictError("this operation is only available at sector 0")
	}
	return nil
}

func actorShip(ctx context.Context, d *Deps, characterID shared.ID) (*world.Character, *world.Ship, error) {
	character, err := d.Store.Characters.FindByID(ctx, characterID)
	if err != nil {
		return nil, nil, err
	}
	if character.CurrentShipID() == nil {
		return nil, nil, shared.NewConflictError("character has no current ship")
	}
	ship, err := d.Store.Ships.FindByID(ctx, *character.CurrentShipID())
	if err != nil {
		return nil, nil, err
	}
	return character, ship, nil
}

// BankTransferRequest deposits (positive Amount) or withdraws (negative) at
// sector 0.
type BankTransferRequest struct {
	Base
	Amount int `json:"amount"`
}

type BankTransferHandler struct{ Deps *Deps }

func (h *BankTransferHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*BankTransferRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	character, ship, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if err := requireSector0(ship); err != nil {
		return nil, err
	}

	before := character.BankBalance()
	switch {
	case req.Amount > 0:
		if err := ship.DeductCredits(req.Amount); err != nil {
			return nil, err
		}
		if err := character.Deposit(req.Amount); err != nil {
			return nil, err
		}
	case req.Amount < 0:
		withdraw := -req.Amount
		if err := character.Withdraw(withdraw); err != nil {
			return nil, err
		}
		if err := ship.AddCredits(withdraw); err != nil {
			return nil, err
		}
	default:
		return nil, shared.NewValidationError("amount", "cannot be zero")
	}

	if err := h.Deps.Store.Ships.Save(ctx, ship); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Characters.Save(ctx, character); err != nil {
		return nil, err
	}

	if h.Deps.Ledger != nil {
		txn, err := ledger.NewTransaction(resolved.CharacterID, now, ledger.TransactionTypeBankTransfer,
			req.Amount, before, character.BankBalance(), "bank_transfer", nil, "character", resolved.CharacterID.String(), "bank")
		if err == nil {
			_ = h.Deps.Ledger.Create(ctx, txn)
		}
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "bank.transaction",
			Payload:    map[string]any{"amount": req.Amount, "bank_balance": character.BankBalance(), "ship_credits": ship.Credits()},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			RequestID:  req.RequestID,
		}, characterScope(resolved.CharacterID))
		_, _ = h.Deps.Bus.Emit(ctx, statusEvent(resolved.CharacterID, req.RequestID, now), characterScope(resolved.CharacterID))
	}

	return ok(req.RequestID, map[string]any{"bank_balance": character.BankBalance(), "ship_credits": ship.Credits()}), nil
}

// TransferCreditsRequest moves ship-local credits from the caller to ToCharacterID,
// both parties required to be in the same sector.
type TransferCreditsRequest struct {
	Base
	ToCharacterID string `json:"to_character_id"`
	Amount        int    `json:"amount"`
}

type TransferCreditsHandler struct{ Deps *Deps }

func (h *TransferCreditsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*TransferCreditsRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	if req.Amount <= 0 {
		return nil, shared.NewValidationError("amount", "must be positive")
	}

	toID, err := shared.ParseID(req.ToCharacterID)
	if err != nil {
		return nil, err
	}

	_, fromShip, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	_, toShip, err := actorShip(ctx, h.Deps, toID)
	if err != nil {
		return nil, err
	}
	if fromShip.CurrentSector() == nil || toShip.CurrentSector() == nil || *fromShip.CurrentSector() != *toShip.CurrentSector() {
		return nil, shared.NewConflictError("both pilots must be in the same sector")
	}

	beforeFrom := fromShip.Credits()
	if err := fromShip.DeductCredits(req.Amount); err != nil {
		return nil, err
	}
	if err := toShip.AddCredits(req.Amount); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Save(ctx, fromShip); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Save(ctx, toShip); err != nil {
		return nil, err
	}

	if h.Deps.Ledger != nil {
		txn, err := ledger.NewTransaction(resolved.CharacterID, now, ledger.TransactionTypeTransferCredits,
			-req.Amount, beforeFrom, fromShip.Credits(), "transfer_credits", nil, "character", toID.String(), "peer_transfer")
		if err == nil {
			_ = h.Deps.Ledger.Create(ctx, txn)
		}
	}

	if h.Deps.Bus != nil {
		payload := map[string]any{"from": resolved.CharacterID.String(), "to": toID.String(), "amount": req.Amount}
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{Type: "credits.transfer", Payload: payload, Timestamp: now, Originator: &resolved.CharacterID, RequestID: req.RequestID}, characterScope(resolved.CharacterID))
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{Type: "credits.transfer", Payload: payload, Timestamp: now, Originator: &resolved.CharacterID, RequestID: req.RequestID}, characterScope(toID))
	}

	return ok(req.RequestID, map[string]any{"from_credits": fromShip.Credits(), "to_credits": toShip.Credits()}), nil
}

// TransferWarpPowerRequest moves warp power between two co-located ships.
type TransferWarpPowerRequest struct {
	Base
	ToCharacterID string `json:"to_character_id"`
	Amount        int    `json:"amount"`
}

type TransferWarpPowerHandler struct{ Deps *Deps }

func (h *TransferWarpPowerHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*TransferWarpPowerRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	if req.Amount <= 0 {
		return nil, shared.NewValidationError("amount", "must be positive")
	}

	toID, err := shared.ParseID(req.ToCharacterID)
	if err != nil {
		return nil, err
	}

	_, fromShip, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	_, toShip, err := actorShip(ctx, h.Deps, toID)
	if err != nil {
		return nil, err
	}
	if fromShip.CurrentSector() == nil || toShip.CurrentSector() == nil || *fromShip.CurrentSector() != *toShip.CurrentSector() {
		return nil, shared.NewConflictError("both pilots must be in the same sector")
	}

	if err := fromShip.DeductWarpPower(req.Amount); err != nil {
		return nil, err
	}
	if err := toShip.AddWarpPower(req.Amount); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Save(ctx, fromShip); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Save(ctx, toShip); err != nil {
		return nil, err
	}

	if h.Deps.Bus != nil {
		payload := map[string]any{"from": resolved.CharacterID.String(), "to": toID.String(), "amount": req.Amount}
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{Type: "warp.transfer", Payload: payload, Timestamp: now, Originator: &resolved.CharacterID, RequestID: req.RequestID}, characterScope(resolved.CharacterID))
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{Type: "warp.transfer", Payload: payload, Timestamp: now, Originator: &resolved.CharacterID, RequestID: req.RequestID}, characterScope(toID))
	}

	return ok(req.RequestID, map[string]any{"from_warp_power": fromShip.WarpPower(), "to_warp_power": toShip.WarpPower()}), nil
}

// PurchaseFightersRequest buys Quantity fighters at sector 0, paid from ship
// credits.
type PurchaseFightersRequest struct {
	Base
	Quantity int `json:"quantity"`
}

type PurchaseFightersHandler struct{ Deps *Deps }

func (h *PurchaseFightersHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*PurchaseFightersRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive")
	}

_, ship, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if err := requireSector0(ship); err != nil {
		return nil, err
	}

	cost := req.Quantity * fighterUnitCost
	if err := ship.DeductCredits(cost); err != nil {
		return nil, err
	}
	if err := ship.AddFighters(req.Quantity); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Save(ctx, ship); err != nil {
		return nil, err
	}

	if h.Deps.Ledger != nil {
		txn, err := ledger.NewTransaction(resolved.CharacterID, now, ledger.TransactionTypePurchaseFighters,
			-cost, ship.Credits()+cost, ship.Credits(), "purchase_fighters", nil, "ship", ship.ID().String(), "shipyard")
		if err == nil {
			_ = h.Deps.Ledger.Create(ctx, txn)
		}
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{Type: "fighter.purchase", Payload: map[string]any{"quantity": req.Quantity, "cost": cost, "fighters": ship.Fighters()}, Timestamp: now, Originator: &resolved.CharacterID, RequestID: req.RequestID}, characterScope(resolved.CharacterID))
		_, _ = h.Deps.Bus.Emit(ctx, statusEvent(resolved.CharacterID, req.RequestID, now), characterScope(resolved.CharacterID))
	}

	return ok(req.RequestID, map[string]any{"fighters": ship.Fighters(), "ship_credits": ship.Credits()}), nil
}

// ShipPurchaseRequest trades the caller's current ship in for a new type at a
// net cost of max(0, new hull price − fighter_refund) (§6.2), paid from ship
// credits; a fighter refund larger than the price is not paid out.
// With as_corporation set, the net cost is drawn from the caller's
// corporation treasury instead and the new hull is corporation-owned.
type ShipPurchaseRequest struct {
	Base
	ShipTypeID    string `json:"ship_type_id"`
	AsCorporation bool   `json:"as_corporation,omitempty"`
}

type ShipPurchaseHandler struct{ Deps *Deps }

func (h *ShipPurchaseHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*ShipPurchaseRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	character, oldShip, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if err := requireSector0(oldShip); err != nil {
		return nil, err
	}
	if oldShip.InTransit() {
		return nil, shared.NewConflictError("cannot trade in a ship that is in transit")
	}

	newDef, err := h.Deps.Store.ShipDefs.FindByTypeID(ctx, req.ShipTypeID)
	if err != nil {
		return nil, err
	}

	fighterRefund := oldShip.Fighters() * fighterUnitCost
	netCost := newDef.PurchasePrice - fighterRefund
	if netCost < 0 {
		netCost = 0
	}

	// Personal purchases pay from the ship's wallet and carry the surplus
	// over; corporation purchases draw on the treasury and keep the wallet
	// intact for the pilot.
	var corp *world.Corporation
	owner := world.CharacterOwner(resolved.CharacterID)
	carriedCredits := oldShip.Credits()
	balanceBefore := oldShip.Credits()
	if req.AsCorporation {
		corpID := character.CorporationID()
		if corpID == nil {
			return nil, shared.NewConflictError("character does not belong to a corporation")
		}
		corp, err = h.Deps.Store.Corporations.FindByID(ctx, *corpID)
		if err != nil {
			return nil, err
		}
		balanceBefore = corp.Balance
		if err := corp.Withdraw(netCost); err != nil {
			return nil, err
		}
		owner = world.CorporationOwner(*corpID)
	} else {
		if oldShip.Credits() < netCost {
			return nil, shared.NewInsufficientResourceError("credits", netCost, oldShip.Credits())
		}
		carriedCredits = oldShip.Credits() - netCost
	}

	sector := sector0
	newShip, err := world.NewShip(shared.NewID(), newDef.TypeID, character.DisplayName()+"'s "+newDef.DisplayName,
		owner, sector, newDef)
	if err != nil {
		return nil, err
	}
	if err := newShip.AddCredits(carriedCredits); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Create(ctx, newShip); err != nil {
		return nil, err
	}
	if err := h.Deps.Store.Ships.Delete(ctx, oldShip.ID()); err != nil {
		return nil, err
	}
	if corp != nil {
		if err := h.Deps.Store.Corporations.Save(ctx, corp); err != nil {
			return nil, err
		}
	}

	character.AssignShip(newShip.ID())
	if err := h.Deps.Store.Characters.Save(ctx, character); err != nil {
		return nil, err
	}

	if h.Deps.Ledger != nil {
		balanceAfter := newShip.Credits()
		if corp != nil {
			balanceAfter = corp.Balance
		}
		txn, err := ledger.NewTransaction(resolved.CharacterID, now, ledger.TransactionTypeShipPurchase,
			-netCost, balanceBefore, balanceAfter, "ship_purchase", map[string]interface{}{"ship_type": req.ShipTypeID, "as_corporation": req.AsCorporation}, "ship", newShip.ID().String(), "shipyard")
		if err == nil {
			_ = h.Deps.Ledger.Create(ctx, txn)
		}
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{Type: "ship.purchase", Payload: map[string]any{"ship_type_id": req.ShipTypeID, "net_cost": netCost, "new_ship_id": newShip.ID().String(), "as_corporation": req.AsCorporation}, Timestamp: now, Originator: &resolved.CharacterID, RequestID: req.RequestID}, characterScope(resolved.CharacterID))
		_, _ = h.Deps.Bus.Emit(ctx, statusEvent(resolved.CharacterID, req.RequestID, now), characterScope(resolved.CharacterID))
	}

	data := map[string]any{"ship_id": newShip.ID().String(), "net_cost": netCost, "ship_credits": newShip.Credits()}
	if corp != nil {
		data["corporation_balance"] = corp.Balance
	}
	return ok(req.RequestID, data), nil
}
