package combat

import (
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/pkg/utils"
)

type formulaConstants struct {
	modeBase int
	divisor  int
}

// garrisonModeLike mirrors world.GarrisonMode without importing world
// (combat stays a leaf package; the caller supplies modes as plain strings
// via GarrisonInput).
type garrisonModeLike string

const (
	modeOffensive garrisonModeLike = "offensive"
	modeDefensive garrisonModeLike = "defensive"
	modeToll      garrisonModeLike = "toll"
)

func formulaFor(mode garrisonModeLike) formulaConstants {
	switch mode {
	case modeOffensive:
		return formulaConstants{modeBase: 50, divisor: 2}
	case modeDefensive:
		return formulaConstants{modeBase: 25, divisor: 4}
	default: // toll: unused in practice, the demand/payment cycle decides
		// commit directly (full fighter count); kept only so a toll garrison
		// with a stray registry-less attack path has a defined fallback.
		return formulaConstants{modeBase: 50, divisor: 3}
	}
}

// GarrisonInput is the per-garrison context the caller (application layer)
// must supply: its mode and toll amount, since CombatantState alone doesn't
// carry those world.Garrison fields.
type GarrisonInput struct {
	Mode       string
	TollAmount int
}

// DeriveGarrisonActions computes this round's synthesized action for every
// garrison participant with fighters>0, per §4.5.3 step 2. corpOf maps every
// character participant's id to their corporation id (nil if none);
// garrisons maps garrison combatant id to its mode/toll context.
func DeriveGarrisonActions(e *Encounter, corpOf map[shared.ID]*shared.ID, garrisons map[shared.ID]GarrisonInput) map[shared.ID]RoundAction {
	out := map[shared.ID]RoundAction{}

	for _, g := range e.GarrisonParticipants() {
		if g.Fighters <= 0 {
			continue
		}
		input := garrisons[g.ID]
		mode := garrisonModeLike(input.Mode)

		if mode == modeToll {
			out[g.ID] = deriveTollAction(e, g, corpOf)
			continue
		}

		target := strongestEligibleTarget(e, g.ID, nil, corpOf)
		if target == nil {
			out[g.ID] = RoundAction{Action: ActionBrace, Commit: 0}
			continue
		}
		f := formulaFor(mode)
		commit := utils.Max(1, utils.Min(g.Fighters, utils.Max(f.modeBase, g.Fighters/f.divisor)))
		tid := target.id
		out[g.ID] = RoundAction{Action: ActionAttack, Commit: commit, TargetID: &tid}
	}

	return out
}

type candidate struct {
	id       shared.ID
	owner    shared.ID
	fighters int
	shields  int
}

// strongestEligibleTarget picks the strongest not-same-corp-as-garrisonOwner
// character participant, tiebreaking by more fighters, then more shields,
// then smaller id. If preferred is non-nil and itself eligible, it wins
// outright (the toll garrison's "target the initiator if eligible" rule).
// corpOf is keyed by character id; candidate ids are ship ids, so both the
// combatant id and its owning character id are accepted for preferred.
func strongestEligibleTarget(e *Encounter, garrisonID shared.ID, preferred *shared.ID, corpOf map[shared.ID]*shared.ID) *candidate {
	garrison := e.Participants[garrisonID]
	ownerCorp := corpOf[derefOrZero(garrison.OwnerCharacterID)]

	var candidates []candidate
	for _, c := range e.CharacterParticipants() {
		if c.Fighters <= 0 || c.IsEscapePod {
			continue
		}
		owner := derefOrZero(c.OwnerCharacterID)
		if sameCorp(ownerCorp, corpOf[owner]) {
			continue
		}
		candidates = append(candidates, candidate{id: c.ID, owner: owner, fighters: c.Fighters, shields: c.Shields})
	}
	if len(candidates) == 0 {
		return nil
	}

	if preferred != nil {
		for _, c := range candidates {
			if c.id.Equals(*preferred) || c.owner.Equals(*preferred) {
				cc := c
				return &cc
			}
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if betterCandidate(c, best) {
			best = c
		}
	}
	return &best
}

func betterCandidate(a, b candidate) bool {
	if a.fighters != b.fighters {
		return a.fighters > b.fighters
	}
	if a.shields != b.shields {
		return a.shields > b.shields
	}
	return a.id.String() < b.id.String()
}

func sameCorp(a, b *shared.ID) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equals(*b)
}

func derefOrZero(id *shared.ID) shared.ID {
	if id == nil {
		return shared.ID{}
	}
	return *id
}

// deriveTollAction runs the toll garrison's demand/payment cycle: the first
// round it sees a target it braces and records the demand; the following
// round, if unpaid, it attacks with its full fighter count; once paid, it
// braces indefinitely.
func deriveTollAction(e *Encounter, garrison *CombatantState, corpOf map[shared.ID]*shared.ID) RoundAction {
	registry := e.Context.TollRegistry
	demand, exists := registry[garrison.ID]

	target := strongestEligibleTarget(e, garrison.ID, &e.Context.Initiator, corpOf)
	if target == nil {
		return RoundAction{Action: ActionBrace, Commit: 0}
	}

	if !exists {
		registry[garrison.ID] = &TollDemand{TargetID: target.id, DemandRound: e.Round}
		return RoundAction{Action: ActionBrace, Commit: 0}
	}

	if demand.Paid && demand.PaidRound <= e.Round {
		return RoundAction{Action: ActionBrace, Commit: 0}
	}

	if e.Round > demand.DemandRound {
		tid := demand.TargetID
		return RoundAction{Action: ActionAttack, Commit: garrison.Fighters, TargetID: &tid}
	}

	return RoundAction{Action: ActionBrace, Commit: 0}
}

// MarkTollPaid records that demandRound's toll was satisfied by payment in
// paidRound. Called by the application layer's toll-payment side effect
// before the round resolves.
func MarkTollPaid(e *Encounter, garrisonID shared.ID, paidRound int) {
	if demand, ok := e.Context.TollRegistry[garrisonID]; ok {
		demand.Paid = true
		demand.PaidRound = paidRound
	}
}
