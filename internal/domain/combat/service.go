package combat

import (
	"context"
	"fmt"
	"time"

	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/ledger"
	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// Service is CombatCore (C): it composes WorldStore, SectorGraph, and
// EventBus to turn dispatcher-level intents (initiate, submit action, tick)
// into encounter state transitions and their broadcast events.
type Service struct {
	encounters   EncounterRepository
	store        *world.Store
	graph        *sectorgraph.Graph
	bus          *events.Bus
	finalizer    *Finalizer
	ledger       ledger.TransactionRepository
	roundTimeout time.Duration
}

func NewService(encounters EncounterRepository, store *world.Store, graph *sectorgraph.Graph, bus *events.Bus, finalizer *Finalizer, transactions ledger.TransactionRepository, roundTimeout time.Duration) *Service {
	return &Service{encounters: encounters, store: store, graph: graph, bus: bus, finalizer: finalizer, ledger: transactions, roundTimeout: roundTimeout}
}

// Initiate implements CombatInitiate: load the actor's sector, gather
// participants, and either join an existing un-ended encounter or create
// one. Requires at least two distinct participants.
func (s *Service) Initiate(ctx context.Context, actorCharacterID shared.ID, now time.Time) (*Encounter, error) {
	actor, err := s.store.Characters.FindByID(ctx, actorCharacterID)
	if err != nil {
		return nil, err
	}
	if actor.CurrentShipID() == nil {
		return nil, shared.NewConflictError("character has no current ship")
	}
	actorShip, err := s.store.Ships.FindByID(ctx, *actor.CurrentShipID())
	if err != nil {
		return nil, err
	}
	if actorShip.InTransit() || actorShip.CurrentSector() == nil {
		return nil, shared.NewConflictError("ship must be stationary in a sector to initiate combat")
	}
	sectorID := *actorShip.CurrentSector()

	existing, err := s.encounters.FindActiveBySector(ctx, sectorID)
	if err != nil && shared.KindOf(err) != shared.KindNotFound {
		return nil, err
	}

	if existing != nil && !existing.Ended {
		actorState, err := s.combatantFromShip(ctx, actorShip, actor)
		if err != nil {
			return nil, err
		}
		if err := existing.AddParticipant(actorState); err != nil {
			return nil, err
		}
		if err := s.encounters.Save(ctx, existing, existing.Round); err != nil {
			return nil, err
		}
		s.emitRoundWaiting(ctx, existing, actorCharacterID, now)
		return existing, nil
	}

	participants, garrisonSources, err := s.gatherParticipants(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	if len(participants) < 2 {
		return nil, shared.NewValidationError("participants", "combat requires at least two distinct participants")
	}

	encounter, err := NewEncounter(shared.NewID(), sectorID, participants, actorCharacterID, garrisonSources, now, s.roundTimeout)
	if err != nil {
		return nil, err
	}
	if err := s.encounters.Create(ctx, encounter); err != nil {
		return nil, err
	}
	s.emitRoundWaiting(ctx, encounter, actorCharacterID, now)
	return encounter, nil
}

// SubmitAction implements CombatAction: validates and records actor's
// action, then resolves immediately if every combat-capable character
// participant is now ready.
func (s *Service) SubmitAction(ctx context.Context, combatID shared.ID, actorCharacterID shared.ID, action ActionKind, commit int, target *shared.ID, destination *int, now time.Time) (*Encounter, *Outcome, error) {
	encounter, err := s.encounters.FindByID(ctx, combatID)
	if err != nil {
		return nil, nil, err
	}

	combatant := encounter.CombatantOfCharacter(actorCharacterID)
	if combatant == nil {
		return nil, nil, shared.NewConflictError("actor is not a character participant in this encounter")
	}

	if action == ActionPay {
		if err := s.payToll(ctx, encounter, combatant, now); err != nil {
			return nil, nil, err
		}
	}

	adjacent := func(dest int) bool {
		_, _, err := s.graph.ShortestPath(ctx, encounter.SectorID, dest)
		if err != nil {
			return false
		}
		neighbors, _ := s.neighborsOf(ctx, encounter.SectorID)
		for _, n := range neighbors {
			if n == dest {
				return true
			}
		}
		return false
	}

	expectedRound := encounter.Round
	ready, err := encounter.SubmitAction(combatant.ID, action, commit, target, destination, now, adjacent)
	if err != nil {
		return nil, nil, err
	}
	if err := s.encounters.Save(ctx, encounter, expectedRound); err != nil {
		return nil, nil, err
	}

	if !ready && !encounter.DeadlinePassed(now) {
		return encounter, nil, nil
	}

	outcome, err := s.resolveAndPersist(ctx, encounter, now)
	if err != nil {
		return encounter, nil, err
	}
	return encounter, outcome, nil
}

// TickResolve is invoked by the background tick loop for one overdue
// encounter. If a concurrent request already advanced the round, the save
// fails with ErrRoundAdvanced and the tick silently drops its work.
func (s *Service) TickResolve(ctx context.Context, encounter *Encounter, now time.Time) (*Outcome, error) {
	if !encounter.DeadlinePassed(now) || encounter.Ended {
		return nil, nil
	}
	outcome, err := s.resolveAndPersist(ctx, encounter, now)
	if shared.KindOf(err) == shared.KindConflict {
		return nil, nil
	}
	return outcome, err
}

func (s *Service) resolveAndPersist(ctx context.Context, encounter *Encounter, now time.Time) (*Outcome, error) {
	corpOf, err := s.corpMap(ctx, encounter)
	if err != nil {
		return nil, err
	}
	garrisons, err := s.garrisonInputs(ctx, encounter)
	if err != nil {
		return nil, err
	}
	neighborsOf := func(sectorID int) []int {
		n, _ := s.neighborsOf(ctx, sectorID)
		return n
	}

	expectedRound := encounter.Round
	outcome, err := encounter.Resolve(now, corpOf, garrisons, neighborsOf, s.roundTimeout)
	if err != nil {
		return nil, err
	}
	if err := s.encounters.Save(ctx, encounter, expectedRound); err != nil {
		return nil, err
	}

	s.emitRoundResolved(ctx, encounter, outcome, now)

	if encounter.Ended {
		if s.finalizer != nil {
			if err := s.finalizer.Finalize(ctx, encounter, outcome, now); err != nil {
				return outcome, fmt.Errorf("finalizing encounter %s: %w", encounter.CombatID.String(), err)
			}
		}
		s.emitEnded(ctx, encounter, outcome, now)
	} else {
		s.emitRoundWaiting(ctx, encounter, shared.ID{}, now)
	}

	return outcome, nil
}

// payToll settles every unpaid toll demand aimed at combatant: the toll
// amount moves from the paying ship's credits to the garrison owner's bank
// and the garrison's toll balance, and the registry entry is marked paid for
// the current round so the resolver can classify toll_satisfied.
func (s *Service) payToll(ctx context.Context, e *Encounter, combatant *CombatantState, now time.Time) error {
	garrisons, err := s.store.Garrisons.FindBySector(ctx, e.SectorID)
	if err != nil {
		return err
	}

	for _, g := range e.GarrisonParticipants() {
		demand, ok := e.Context.TollRegistry[g.ID]
		if !ok || demand.Paid || !demand.TargetID.Equals(combatant.ID) {
			continue
		}

		var source *world.Garrison
		for _, wg := range garrisons {
			if g.OwnerCharacterID != nil && wg.OwnerCharacter.Equals(*g.OwnerCharacterID) {
				source = wg
				break
			}
		}
		if source == nil || source.TollAmount <= 0 {
			MarkTollPaid(e, g.ID, e.Round)
			continue
		}

		ship, err := s.store.Ships.FindByID(ctx, combatant.ID)
		if err != nil {
			return err
		}
		if err := ship.DeductCredits(source.TollAmount); err != nil {
			return err
		}
		if err := s.store.Ships.Save(ctx, ship); err != nil {
			return err
		}

		if owner, err := s.store.Characters.FindByID(ctx, source.OwnerCharacter); err == nil {
			if err := owner.Deposit(source.TollAmount); err == nil {
				_ = s.store.Characters.Save(ctx, owner)
			}
		}

		source.ReceiveToll(source.TollAmount)
		if err := s.store.Garrisons.Save(ctx, source); err != nil {
			return err
		}

		if s.ledger != nil && combatant.OwnerCharacterID != nil {
			txn, err := ledger.NewTransaction(*combatant.OwnerCharacterID, now, ledger.TransactionTypeTollPayment,
				-source.TollAmount, ship.Credits()+source.TollAmount, ship.Credits(),
				"toll payment", nil, "garrison", source.OwnerCharacter.String(), "combat")
			if err == nil {
				_ = s.ledger.Create(ctx, txn)
			}
		}

		MarkTollPaid(e, g.ID, e.Round)
	}

	return nil
}

func (s *Service) combatantFromShip(ctx context.Context, ship *world.Ship, character *world.Character) (*CombatantState, error) {
	var ownerID *shared.ID
	if ship.Owner().Kind == world.OwnerCharacter {
		id := character.ID()
		ownerID = &id
	}
	turnsPerWarp := 1
	if def, err := s.store.ShipDefs.FindByTypeID(ctx, ship.TypeID()); err == nil {
		turnsPerWarp = def.TurnsPerWarp
	}

	return &CombatantState{
		ID:               ship.ID(),
		Kind:             CombatantCharacter,
		DisplayName:      character.DisplayName(),
		Fighters:         ship.Fighters(),
		Shields:          ship.Shields(),
		MaxFighters:      ship.MaxFighters(),
		MaxShields:       ship.MaxShields(),
		TurnsPerWarp:     turnsPerWarp,
		ShipType:         ship.TypeID(),
		OwnerCharacterID: ownerID,
		IsEscapePod:      ship.IsEscapePod(),
	}, nil
}

func (s *Service) gatherParticipants(ctx context.Context, sectorID int) (map[shared.ID]*CombatantState, []shared.ID, error) {
	participants := map[shared.ID]*CombatantState{}

	ships, err := s.store.Ships.FindBySector(ctx, sectorID)
	if err != nil {
		return nil, nil, err
	}
	for _, ship := range ships {
		if ship.InTransit() || ship.Owner().Kind != world.OwnerCharacter {
			continue
		}
		character, err := s.store.Characters.FindByID(ctx, *ship.Owner().ID)
		if err != nil {
			continue
		}
		state, err := s.combatantFromShip(ctx, ship, character)
		if err != nil {
			return nil, nil, err
		}
		participants[state.ID] = state
	}

	garrisons, err := s.store.Garrisons.FindBySector(ctx, sectorID)
	if err != nil {
		return nil, nil, err
	}
	var garrisonSources []shared.ID
	for _, g := range garrisons {
		owner := g.OwnerCharacter
		id := shared.LegacyCanonicalize(ownerNamespace, fmt.Sprintf("garrison:%d:%s", g.SectorID, owner.String()))
		participants[id] = &CombatantState{
			ID:               id,
			Kind:             CombatantGarrison,
			DisplayName:      "Garrison",
			Fighters:         g.Fighters,
			MaxFighters:      g.Fighters,
			OwnerCharacterID: &owner,
		}
		garrisonSources = append(garrisonSources, id)
	}

	return participants, garrisonSources, nil
}

var ownerNamespace = shared.NewID().UUID() // stable per process; garrison combatant ids only need to be unique within one encounter's lifetime

func (s *Service) corpMap(ctx context.Context, e *Encounter) (map[shared.ID]*shared.ID, error) {
	out := map[shared.ID]*shared.ID{}
	for _, c := range e.CharacterParticipants() {
		if c.OwnerCharacterID == nil {
			continue
		}
		character, err := s.store.Characters.FindByID(ctx, *c.OwnerCharacterID)
		if err != nil {
			continue
		}
		out[*c.OwnerCharacterID] = character.CorporationID()
	}
	for _, g := range e.GarrisonParticipants() {
		if g.OwnerCharacterID == nil {
			continue
		}
		character, err := s.store.Characters.FindByID(ctx, *g.OwnerCharacterID)
		if err != nil {
			continue
		}
		out[*g.OwnerCharacterID] = character.CorporationID()
	}
	return out, nil
}

func (s *Service) garrisonInputs(ctx context.Context, e *Encounter) (map[shared.ID]GarrisonInput, error) {
	out := map[shared.ID]GarrisonInput{}
	garrisons, err := s.store.Garrisons.FindBySector(ctx, e.SectorID)
	if err != nil {
		return nil, err
	}
	for _, combatant := range e.GarrisonParticipants() {
		for _, g := range garrisons {
			if g.OwnerCharacter.Equals(derefOrZero(combatant.OwnerCharacterID)) {
				out[combatant.ID] = GarrisonInput{Mode: string(g.Mode), TollAmount: g.TollAmount}
			}
		}
	}
	return out, nil
}

func (s *Service) neighborsOf(ctx context.Context, sectorID int) ([]int, error) {
	sector, err := s.store.Sectors.FindByID(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	return sector.Neighbors(), nil
}

func (s *Service) emitRoundWaiting(ctx context.Context, e *Encounter, actor shared.ID, now time.Time) {
	s.emitSector(ctx, e, "combat.round_waiting", map[string]any{"combat_id": e.CombatID.String(), "round": e.Round}, actor, true, now)
}

func (s *Service) emitRoundResolved(ctx context.Context, e *Encounter, outcome *Outcome, now time.Time) {
	s.emitSector(ctx, e, "combat.round_resolved", map[string]any{
		"combat_id": e.CombatID.String(),
		"round":     outcome.Log.RoundNumber,
		"result":    string(outcome.Log.Result),
	}, shared.ID{}, true, now)
}

// emitEnded delivers each character participant a personalized combat.ended
// — their own ship's remaining strength and this round's losses — plus the
// sector-wide sector.update. Garrison stacks report to their owning
// character; fled ships are looked up post-teleport for their landing state.
func (s *Service) emitEnded(ctx context.Context, e *Encounter, outcome *Outcome, now time.Time) {
	type endedView struct {
		owner   shared.ID
		payload map[string]any
	}

	base := func(c *CombatantState) map[string]any {
		return map[string]any{
			"combat_id":          e.CombatID.String(),
			"end_state":          string(e.EndState),
			"round":              outcome.Log.RoundNumber,
			"kind":               string(c.Kind),
			"fighters_remaining": c.Fighters,
			"shields_remaining":  c.Shields,
			"fighters_lost":      outcome.Log.DefensiveLosses[c.ID] + outcome.Log.OffensiveLosses[c.ID],
			"shield_loss":        outcome.Log.ShieldLoss[c.ID],
		}
	}

	var views []endedView
	for _, c := range e.Participants {
		if c.OwnerCharacterID == nil {
			continue
		}
		views = append(views, endedView{owner: *c.OwnerCharacterID, payload: base(c)})
	}
	for _, c := range outcome.Destroyed {
		if c.OwnerCharacterID == nil {
			continue
		}
		payload := base(c)
		payload["fighters_remaining"] = 0
		payload["shields_remaining"] = 0
		payload["destroyed"] = true
		views = append(views, endedView{owner: *c.OwnerCharacterID, payload: payload})
	}
	for shipID, dest := range outcome.Fled {
		ship, err := s.store.Ships.FindByID(ctx, shipID)
		if err != nil || ship.Owner().Kind != world.OwnerCharacter || ship.Owner().ID == nil {
			continue
		}
		views = append(views, endedView{owner: *ship.Owner().ID, payload: map[string]any{
			"combat_id":          e.CombatID.String(),
			"end_state":          string(e.EndState),
			"round":              outcome.Log.RoundNumber,
			"kind":               string(CombatantCharacter),
			"fighters_remaining": ship.Fighters(),
			"shields_remaining":  ship.Shields(),
			"fighters_lost":      outcome.Log.DefensiveLosses[shipID] + outcome.Log.OffensiveLosses[shipID],
			"shield_loss":        outcome.Log.ShieldLoss[shipID],
			"fled_to":            dest,
		}})
	}

	if s.bus != nil {
		sectorID := e.SectorID
		for _, view := range views {
			owner := view.owner
			_, _ = s.bus.Emit(ctx, &events.EventRecord{
				Type:       "combat.ended",
				Payload:    view.payload,
				Timestamp:  now,
				Originator: &owner,
				SectorID:   &sectorID,
			}, events.Scope{Kind: events.ScopeCharacter, CharacterID: &owner, IncludeSelf: true})
		}
	}

	s.emitSector(ctx, e, "sector.update", map[string]any{"sector_id": e.SectorID}, shared.ID{}, true, now)
}

func (s *Service) emitSector(ctx context.Context, e *Encounter, eventType string, payload map[string]any, actor shared.ID, includeSelf bool, now time.Time) {
	if s.bus == nil {
		return
	}
	sectorID := e.SectorID
	var originator *shared.ID
	if !actor.IsZero() {
		originator = &actor
	}
	_, _ = s.bus.Emit(ctx, &events.EventRecord{
		Type:       eventType,
		Payload:    payload,
		Timestamp:  now,
		Originator: originator,
		SectorID:   &sectorID,
	}, events.Scope{Kind: events.ScopeSector, SectorID: &sectorID, IncludeSelf: includeSelf})
}
