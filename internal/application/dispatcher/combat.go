package dispatcher

import (
	"context"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// CombatInitiateRequest starts or joins the single active encounter in the
// actor's sector.
type CombatInitiateRequest struct {
	Base
}

type CombatInitiateHandler struct{ Deps *Deps }

func (h *CombatInitiateHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*CombatInitiateRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	encounter, err := h.Deps.Combat.Initiate(ctx, resolved.CharacterID, now)
	if err != nil {
		return nil, err
	}

	return ok(req.RequestID, renderEncounter(encounter)), nil
}

// CombatActionRequest submits the actor's action for the current round of an
// encounter it already participates in.
type CombatActionRequest struct {
	Base
	CombatID    string `json:"combat_id"`
	Action      string `json:"action"` // attack | brace | flee | pay
	Commit      int    `json:"commit,omitempty"`
	TargetID    string `json:"target_id,omitempty"`
	Destination *int   `json:"destination,omitempty"`
}

type CombatActionHandler struct{ Deps *Deps }

func (h *CombatActionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*CombatActionRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	combatID, err := shared.ParseID(req.CombatID)
	if err != nil {
		return nil, err
	}
	action := combat.ActionKind(req.Action)
	switch action {
	case combat.ActionAttack, combat.ActionBrace, combat.ActionFlee, combat.ActionPay:
	default:
		return nil, shared.NewValidationError("action", "must be attack, brace, flee, or pay")
	}

	var target *shared.ID
	if req.TargetID != "" {
		id, err := shared.ParseID(req.TargetID)
		if err != nil {
			return nil, err
		}
		target = &id
	}

	encounter, outcome, err := h.Deps.Combat.SubmitAction(ctx, combatID, resolved.CharacterID, action, req.Commit, target, req.Destination, now)
	if err != nil {
		return nil, err
	}

	data := renderEncounter(encounter)
	if outcome != nil {
		data["outcome"] = renderOutcome(outcome)
	}
	return ok(req.RequestID, data), nil
}

// CombatTickRequest forces resolution of an encounter whose deadline has
// already passed; used by admin tooling and the BDD harness to avoid
// waiting on the background tick loop.
type CombatTickRequest struct {
	Base
	CombatID string `json:"combat_id"`
}

type CombatTickHandler struct{ Deps *Deps }

func (h *CombatTickHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*CombatTickRequest)
	now := h.Deps.Clock.Now()

	combatID, err := shared.ParseID(req.CombatID)
	if err != nil {
		return nil, err
	}
	encounter, err := h.Deps.Encounters.FindByID(ctx, combatID)
	if err != nil {
		return nil, err
	}

	outcome, err := h.Deps.Combat.TickResolve(ctx, encounter, now)
	if err != nil {
		return nil, err
	}

	data := renderEncounter(encounter)
	if outcome != nil {
		data["outcome"] = renderOutcome(outcome)
	}
	return ok(req.RequestID, data), nil
}

// CombatLeaveFightersRequest deploys a garrison stack from the actor's ship
// into the current sector.
type CombatLeaveFightersRequest struct {
	Base
	Quantity   int    `json:"quantity"`
	Mode       string `json:"mode"`
	TollAmount int    `json:"toll_amount,omitempty"`
}

type CombatLeaveFightersHandler struct{ Deps *Deps }

func (h *CombatLeaveFightersHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*CombatLeaveFightersRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive")
	}
	mode := world.GarrisonMode(req.Mode)
	if !mode.IsValid() {
		return nil, shared.NewValidationError("mode", "must be offensive, defensive, or toll")
	}

	_, ship, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if ship.CurrentSector() == nil {
		return nil, shared.NewConflictError("ship must be stationary to leave fighters")
	}
	sectorID := *ship.CurrentSector()

	lost := ship.LoseFighters(req.Quantity)
	if lost < req.Quantity {
		ship.AddFighters(req.Quantity - lost) // restore: insufficient fighters aboard
		return nil, shared.NewInsufficientResourceError("fighters", req.Quantity, lost)
	}
	if err := h.Deps.Store.Ships.Save(ctx, ship); err != nil {
		return nil, err
	}

	existing, err := h.Deps.Store.Garrisons.FindByKey(ctx, sectorID, resolved.CharacterID)
	if err != nil && shared.KindOf(err) != shared.KindNotFound {
		return nil, err
	}
	var garrison *world.Garrison
	if existing != nil {
		existing.Fighters += req.Quantity
		existing.Mode = mode
		existing.TollAmount = req.TollAmount
		garrison = existing
	} else {
		garrison, err = world.NewGarrison(sectorID, resolved.CharacterID, req.Quantity, mode, req.TollAmount, now)
		if err != nil {
			return nil, err
		}
	}
	if err := h.Deps.Store.Garrisons.Save(ctx, garrison); err != nil {
		return nil, err
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "garrison.deployed",
			Payload:    map[string]any{"sector_id": sectorID, "fighters": garrison.Fighters, "mode": string(garrison.Mode)},
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			SectorID:   &sectorID,
			RequestID:  req.RequestID,
		}, sectorScope(sectorID, true))
	}

	return ok(req.RequestID, map[string]any{
		"sector_id":    sectorID,
		"fighters":     garrison.Fighters,
		"mode":         string(garrison.Mode),
		"ship_fighters": ship.Fighters(),
	}), nil
}

// CombatSetGarrisonModeRequest changes the stance of an existing garrison
// owned by the actor.
type CombatSetGarrisonModeRequest struct {
	Base
	Mode       string `json:"mode"`
	TollAmount int    `json:"toll_amount,omitempty"`
}

type CombatSetGarrisonModeHandler struct{ Deps *Deps }

func (h *CombatSetGarrisonModeHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*CombatSetGarrisonModeRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)

	mode := world.GarrisonMode(req.Mode)
	if !mode.IsValid() {
		return nil, shared.NewValidationError("mode", "must be offensive, defensive, or toll")
	}

	_, ship, err := actorShip(ctx, h.Deps, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	if ship.CurrentSector() == nil {
		return nil, shared.NewConflictError("ship must be stationary to manage a garrison")
	}
	sectorID := *ship.CurrentSector()

	garrison, err := h.Deps.Store.Garrisons.FindByKey(ctx, sectorID, resolved.CharacterID)
	if err != nil {
		return nil, err
	}
	garrison.Mode = mode
	garrison.TollAmount = req.TollAmount
	if err := h.Deps.Store.Garrisons.Save(ctx, garrison); err != nil {
		return nil, err
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "garrison.mode_changed",
			Payload:    map[string]any{"sector_id": sectorID, "mode": string(garrison.Mode), "toll_amount": garrison.TollAmount},
			Timestamp:  h.Deps.Clock.Now(),
			Originator: &resolved.CharacterID,
			SectorID:   &sectorID,
			RequestID:  req.RequestID,
		}, sectorScope(sectorID, true))
	}

	return ok(req.RequestID, map[string]any{"sector_id": sectorID, "mode": string(garrison.Mode), "toll_amount": garrison.TollAmount}), nil
}

func renderEncounter(e *combat.Encounter) map[string]any {
	participants := make([]map[string]any, 0, len(e.Participants))
	for _, c := range e.Participants {
		participants = append(participants, map[string]any{
			"id":           c.ID.String(),
			"kind":         string(c.Kind),
			"display_name": c.DisplayName,
			"fighters":     c.Fighters,
			"shields":      c.Shields,
		})
	}
	var deadline *string
	if e.Deadline != nil {
		s := e.Deadline.Format("2006-01-02T15:04:05.000Z07:00")
		deadline = &s
	}
	return map[string]any{
		"combat_id":    e.CombatID.String(),
		"sector_id":    e.SectorID,
		"round":        e.Round,
		"deadline":     deadline,
		"participants": participants,
		"ended":        e.Ended,
		"end_state":    string(e.EndState),
	}
}

func renderOutcome(o *combat.Outcome) map[string]any {
	fled := make(map[string]int, len(o.Fled))
	for id, dest := range o.Fled {
		fled[id.String()] = dest
	}
	destroyed := make([]string, 0, len(o.Destroyed))
	for _, c := range o.Destroyed {
		destroyed = append(destroyed, c.ID.String())
	}
	return map[string]any{
		"round":    o.Log.RoundNumber,
		"result":   string(o.Log.Result),
		"fled":     fled,
		"destroyed": destroyed,
	}
}
