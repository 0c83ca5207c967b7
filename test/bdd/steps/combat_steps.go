package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// combatContext drives a bare encounter through the round resolver, without
// any store behind it: participants are synthesized CombatantStates and the
// side-effect outcome is inspected directly.
type combatContext struct {
	combatID    shared.ID
	now         time.Time
	combatants  map[string]*combat.CombatantState // by display name
	actions     []func(e *combat.Encounter) error
	encounter   *combat.Encounter
	outcome     *combat.Outcome
	twinOutcome *combat.Outcome
	err         error
}

func (cc *combatContext) reset() {
	cc.combatID = shared.NewID()
	cc.now = time.Unix(1_750_000_000, 0).UTC()
	cc.combatants = map[string]*combat.CombatantState{}
	cc.actions = nil
	cc.encounter = nil
	cc.outcome = nil
	cc.twinOutcome = nil
	cc.err = nil
}

func (cc *combatContext) addCombatant(name string, fighters, shields int, escapePod bool) {
	owner := shared.NewID()
	cc.combatants[name] = &combat.CombatantState{
		ID:               shared.NewID(),
		Kind:             combat.CombatantCharacter,
		DisplayName:      name,
		Fighters:         fighters,
		Shields:          shields,
		MaxFighters:      fighters,
		MaxShields:       shields,
		TurnsPerWarp:     1,
		OwnerCharacterID: &owner,
		IsEscapePod:      escapePod,
	}
}

// buildEncounter constructs a fresh encounter from the declared combatants.
// Participant states are copied so the same declaration can be replayed into
// independent twins for the determinism scenario.
func (cc *combatContext) buildEncounter() (*combat.Encounter, error) {
	participants := map[shared.ID]*combat.CombatantState{}
	for _, c := range cc.combatants {
		copied := *c
		participants[c.ID] = &copied
	}
	var initiator shared.ID
	for _, c := range cc.combatants {
		initiator = derefID(c.OwnerCharacterID)
		break
	}
	return combat.NewEncounter(cc.combatID, 1, participants, initiator, nil, cc.now, 15*time.Second)
}

func derefID(id *shared.ID) shared.ID {
	if id == nil {
		return shared.ID{}
	}
	return *id
}

func (cc *combatContext) resolveOnce() (*combat.Outcome, error) {
	encounter, err := cc.buildEncounter()
	if err != nil {
		return nil, err
	}
	for _, apply := range cc.actions {
		if err := apply(encounter); err != nil {
			return nil, err
		}
	}
	outcome, err := encounter.Resolve(cc.now, map[shared.ID]*shared.ID{}, map[shared.ID]combat.GarrisonInput{},
		func(int) []int { return []int{2, 4} }, 15*time.Second)
	if err != nil {
		return nil, err
	}
	cc.encounter = encounter
	return outcome, nil
}

// Given steps

func (cc *combatContext) aTwoShipEncounterWhereHasFightersAndShields(name string, fighters, shields int) error {
	cc.addCombatant(name, fighters, shields, false)
	return nil
}

func (cc *combatContext) hasFightersAndShields(name string, fighters, shields int) error {
	cc.addCombatant(name, fighters, shields, false)
	return nil
}

func (cc *combatContext) pilotsAnEscapePodWithFightersAndShields(name string, fighters, shields int) error {
	cc.addCombatant(name, fighters, shields, true)
	return nil
}

// When steps

func (cc *combatContext) attacksCommittingFighters(attacker, target string, commit int) error {
	a, ok := cc.combatants[attacker]
	if !ok {
		return fmt.Errorf("unknown combatant %q", attacker)
	}
	d, ok := cc.combatants[target]
	if !ok {
		return fmt.Errorf("unknown combatant %q", target)
	}
	attackerID, targetID := a.ID, d.ID
	cc.actions = append(cc.actions, func(e *combat.Encounter) error {
		_, err := e.SubmitAction(attackerID, combat.ActionAttack, commit, &targetID, nil, cc.now, func(int) bool { return true })
		return err
	})
	return nil
}

func (cc *combatContext) braces(name string) error {
	c, ok := cc.combatants[name]
	if !ok {
		return fmt.Errorf("unknown combatant %q", name)
	}
	id := c.ID
	cc.actions = append(cc.actions, func(e *combat.Encounter) error {
		_, err := e.SubmitAction(id, combat.ActionBrace, 0, nil, nil, cc.now, func(int) bool { return true })
		return err
	})
	return nil
}

func (cc *combatContext) theRoundResolves() error {
	outcome, err := cc.resolveOnce()
	cc.outcome = outcome
	cc.err = err
	return err
}

func (cc *combatContext) theRoundResolvesInTwoIndependentCopies() error {
	first, err := cc.resolveOnce()
	if err != nil {
		return err
	}
	second, err := cc.resolveOnce()
	if err != nil {
		return err
	}
	cc.outcome = first
	cc.twinOutcome = second
	return nil
}

// Then steps

func (cc *combatContext) shouldHaveFewerThanShields(name string, bound int) error {
	c, ok := cc.combatants[name]
	if !ok {
		return fmt.Errorf("unknown combatant %q", name)
	}
	state, ok := cc.encounter.Participants[c.ID]
	if !ok {
		return fmt.Errorf("%q is no longer a participant", name)
	}
	if state.Shields >= bound {
		return fmt.Errorf("expected %q to hold fewer than %d shields, has %d", name, bound, state.Shields)
	}
	return nil
}

func (cc *combatContext) theEncounterShouldBeWaitingOnRound(round int) error {
	if cc.encounter.Round != round {
		return fmt.Errorf("expected round %d, got %d", round, cc.encounter.Round)
	}
	if cc.encounter.Deadline == nil {
		return fmt.Errorf("a waiting encounter must carry a deadline")
	}
	return nil
}

func (cc *combatContext) theEncounterShouldNotBeEnded() error {
	if cc.encounter.Ended {
		return fmt.Errorf("expected the encounter to continue, but it ended as %q", cc.encounter.EndState)
	}
	return nil
}

func (cc *combatContext) theEncounterShouldBeEndedAs(endState string) error {
	if !cc.encounter.Ended {
		return fmt.Errorf("expected the encounter to be ended")
	}
	if string(cc.encounter.EndState) != endState {
		return fmt.Errorf("expected end state %q, got %q", endState, cc.encounter.EndState)
	}
	if cc.encounter.Deadline != nil {
		return fmt.Errorf("an ended encounter must clear its deadline")
	}
	return nil
}

func (cc *combatContext) bothCopiesShouldReportIdenticalHitsAndLosses() error {
	if cc.outcome == nil || cc.twinOutcome == nil {
		return fmt.Errorf("both resolutions must have run")
	}
	a, b := cc.outcome.Log, cc.twinOutcome.Log
	if len(a.Hits) != len(b.Hits) {
		return fmt.Errorf("hit maps differ in size: %d vs %d", len(a.Hits), len(b.Hits))
	}
	for id, hits := range a.Hits {
		if b.Hits[id] != hits {
			return fmt.Errorf("hits for %s differ: %d vs %d", id.String(), hits, b.Hits[id])
		}
	}
	for id, loss := range a.DefensiveLosses {
		if b.DefensiveLosses[id] != loss {
			return fmt.Errorf("defensive losses for %s differ: %d vs %d", id.String(), loss, b.DefensiveLosses[id])
		}
	}
	for id, loss := range a.OffensiveLosses {
		if b.OffensiveLosses[id] != loss {
			return fmt.Errorf("offensive losses for %s differ: %d vs %d", id.String(), loss, b.OffensiveLosses[id])
		}
	}
	for id, loss := range a.ShieldLoss {
		if b.ShieldLoss[id] != loss {
			return fmt.Errorf("shield losses for %s differ: %d vs %d", id.String(), loss, b.ShieldLoss[id])
		}
	}
	if a.Result != b.Result {
		return fmt.Errorf("end states differ: %q vs %q", a.Result, b.Result)
	}
	return nil
}

func (cc *combatContext) shouldHaveFledTheEncounter(name string) error {
	c, ok := cc.combatants[name]
	if !ok {
		return fmt.Errorf("unknown combatant %q", name)
	}
	if _, fled := cc.outcome.Fled[c.ID]; !fled {
		return fmt.Errorf("expected %q to have fled", name)
	}
	return nil
}

func (cc *combatContext) noShipShouldHaveBeenDestroyed() error {
	if len(cc.outcome.Destroyed) != 0 {
		return fmt.Errorf("expected no destroyed ships, got %d", len(cc.outcome.Destroyed))
	}
	return nil
}

func InitializeCombatResolutionScenario(ctx *godog.ScenarioContext) {
	cc := &combatContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		cc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a two-ship encounter where "([^"]*)" has (\d+) fighters and (\d+) shields$`, cc.aTwoShipEncounterWhereHasFightersAndShields)
	ctx.Step(`^"([^"]*)" has (\d+) fighters? and (\d+) shields$`, cc.hasFightersAndShields)
	ctx.Step(`^"([^"]*)" pilots an escape pod with (\d+) fighters? and (\d+) shields$`, cc.pilotsAnEscapePodWithFightersAndShields)

	// When steps
	ctx.Step(`^"([^"]*)" attacks "([^"]*)" committing (\d+) fighters$`, cc.attacksCommittingFighters)
	ctx.Step(`^"([^"]*)" braces$`, cc.braces)
	ctx.Step(`^the round resolves$`, cc.theRoundResolves)
	ctx.Step(`^the round resolves in two independent copies$`, cc.theRoundResolvesInTwoIndependentCopies)

	// Then steps
	ctx.Step(`^"([^"]*)" should have fewer than (\d+) shields$`, cc.shouldHaveFewerThanShields)
	ctx.Step(`^the encounter should be waiting on round (\d+)$`, cc.theEncounterShouldBeWaitingOnRound)
	ctx.Step(`^the encounter should not be ended$`, cc.theEncounterShouldNotBeEnded)
	ctx.Step(`^the encounter should be ended as "([^"]*)"$`, cc.theEncounterShouldBeEndedAs)
	ctx.Step(`^both copies should report identical hits and losses$`, cc.bothCopiesShouldReportIdenticalHitsAndLosses)
	ctx.Step(`^"([^"]*)" should have fled the encounter$`, cc.shouldHaveFledTheEncounter)
	ctx.Step(`^no ship should have been destroyed$`, cc.noShipShouldHaveBeenDestroyed)
}
