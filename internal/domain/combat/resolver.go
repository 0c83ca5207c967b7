package combat

import (
	"math"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/pkg/utils"
)

// BraceFactor is the flat multiplier applied to incoming fighter-loss and
// shield-loss for a bracing participant: a 55% reduction, comfortably past
// spec.md's "≥40%" floor (SPEC_FULL §11 decision 1).
const BraceFactor = 0.45

// fleeSuccessProbability is a pure function of the fleeing ship's
// turns_per_warp: ships tuned for frequent warping flee more reliably.
// SPEC_FULL §11 decision 2 — chosen because it depends on no other
// participant's state, keeping resolution order-independent.
func fleeSuccessProbability(turnsPerWarp int) float64 {
	return utils.ClampFloat(0.35+0.10*float64(turnsPerWarp), 0.2, 0.9)
}

// Outcome is the resolver's full result for one round: the log entry to
// persist plus the side effects the application layer must carry out
// against WorldStore (fled participants' destinations, destroyed
// participants needing salvage/escape-pod replacement).
type Outcome struct {
	Log               LogEntry
	Fled              map[shared.ID]int  // participant id -> destination sector
	Destroyed         []*CombatantState  // non-escape-pod participants reduced to 0/0, snapshotted before removal
	TollPaidThisRound bool
}

// Resolve runs one full round: timeout substitution, garrison AI, damage
// resolution, end-state determination, and in-place state mutation. Returns
// the log entry appended to e.Logs and the side-effect outcome. neighborsOf
// supplies a sector's adjacent sector ids, used only for an escape pod's
// forced auto-flee on a lethal hit.
func (e *Encounter) Resolve(now time.Time, corpOf map[shared.ID]*shared.ID, garrisons map[shared.ID]GarrisonInput, neighborsOf func(sectorID int) []int, roundTimeout time.Duration) (*Outcome, error) {
	if e.Ended {
		return nil, shared.NewConflictError("encounter has already ended")
	}

	actions := map[shared.ID]RoundAction{}
	for id, a := range e.PendingActions {
		actions[id] = a
	}
	for _, c := range e.CharacterParticipants() {
		if c.Fighters <= 0 {
			continue
		}
		if _, ok := actions[c.ID]; !ok {
			actions[c.ID] = RoundAction{Action: ActionBrace, Commit: 0, TimedOut: true}
		}
	}
	for id, a := range DeriveGarrisonActions(e, corpOf, garrisons) {
		actions[id] = a
	}

	rng := NewRNG(e.BaseSeed, e.Round)
	hits := map[shared.ID]int{}
	offensiveLosses := map[shared.ID]int{}
	defensiveLosses := map[shared.ID]int{}
	shieldLoss := map[shared.ID]int{}

	for attackerID, action := range actions {
		if action.Action != ActionAttack || action.TargetID == nil {
			continue
		}
		attacker, ok := e.Participants[attackerID]
		if !ok {
			continue
		}
		target, ok := e.Participants[*action.TargetID]
		if !ok {
			continue
		}

		rawDamage := float64(action.Commit)
		if targetAction, ok := actions[target.ID]; ok && targetAction.Action == ActionBrace {
			rawDamage *= BraceFactor
		}

		splitFrac := utils.ClampFloat(0.3+0.4*rng.Float64(attackerID, "damage_split", 0), 0.3, 0.7)
		shieldDmg := int(math.Round(rawDamage * splitFrac))
		fighterDmg := int(math.Round(rawDamage)) - shieldDmg

		if shieldDmg > target.Shields {
			overflow := shieldDmg - target.Shields
			shieldLoss[target.ID] += target.Shields
			target.Shields = 0
			fighterDmg += overflow
		} else {
			target.Shields -= shieldDmg
			shieldLoss[target.ID] += shieldDmg
		}
		if fighterDmg > target.Fighters {
			fighterDmg = target.Fighters
		}
		target.Fighters -= fighterDmg
		defensiveLosses[target.ID] += fighterDmg
		hits[target.ID]++

		attritionFrac := utils.ClampFloat(0.3*rng.Float64(attackerID, "attrition", 0), 0, 0.3)
		attackerLoss := int(math.Round(float64(action.Commit) * attritionFrac))
		if attackerLoss > attacker.Fighters {
			attackerLoss = attacker.Fighters
		}
		attacker.Fighters -= attackerLoss
		offensiveLosses[attackerID] += attackerLoss
	}

	fled := map[shared.ID]int{}

	// Escape pods never die outright: a lethal hit forces an auto-success
	// flee to a random adjacent sector instead of generating salvage.
	for id, c := range e.Participants {
		if c.Kind != CombatantCharacter || !c.IsEscapePod {
			continue
		}
		if c.Fighters > 0 || c.Shields > 0 {
			continue
		}
		neighbors := neighborsOf(e.SectorID)
		if len(neighbors) == 0 {
			continue
		}
		idx := int(rng.Float64(id, "autoflee", 0) * float64(len(neighbors)))
		if idx >= len(neighbors) {
			idx = len(neighbors) - 1
		}
		fled[id] = neighbors[idx]
	}
	for id := range fled {
		delete(e.Participants, id)
	}

	for attackerID, action := range actions {
		if action.Action != ActionFlee || action.DestinationSector == nil {
			continue
		}
		participant, ok := e.Participants[attackerID]
		if !ok {
			continue // already removed via escape-pod auto-flee
		}
		if rng.Bool(attackerID, "flee", 0, fleeSuccessProbability(participant.TurnsPerWarp)) {
			fled[attackerID] = *action.DestinationSector
			delete(e.Participants, attackerID)
		}
	}

	var destroyed []*CombatantState
	for id, c := range e.Participants {
		if c.Kind != CombatantCharacter || c.IsEscapePod {
			continue
		}
		if c.Fighters <= 0 && c.Shields <= 0 {
			snapshot := *c
			destroyed = append(destroyed, &snapshot)
			delete(e.Participants, id)
		}
	}

	tollPaidThisRound := false
	for _, demand := range e.Context.TollRegistry {
		if demand.Paid && demand.PaidRound == e.Round {
			tollPaidThisRound = true
			break
		}
	}

	endState := determineEndState(e, actions, tollPaidThisRound, fled, destroyed)

	logEntry := LogEntry{
		RoundNumber:     e.Round,
		Actions:         actions,
		Hits:            hits,
		OffensiveLosses: offensiveLosses,
		DefensiveLosses: defensiveLosses,
		ShieldLoss:      shieldLoss,
		Result:          endState,
		Timestamp:       now,
	}
	e.Logs = append(e.Logs, logEntry)
	e.PendingActions = map[shared.ID]RoundAction{}
	e.AwaitingResolution = false
	e.LastUpdated = now

	if endState != "" {
		e.Ended = true
		e.EndState = endState
		e.Deadline = nil
	} else {
		e.Round++
		if roundTimeout <= 0 {
			roundTimeout = DefaultRoundTimeout
		}
		deadline := now.Add(roundTimeout)
		e.Deadline = &deadline
	}

	return &Outcome{Log: logEntry, Fled: fled, Destroyed: destroyed, TollPaidThisRound: tollPaidThisRound}, nil
}

// determineEndState classifies the round's terminal state, checked in the
// order spec.md lists them: toll_satisfied, destroyed_all, fled_out, else
// continuing (empty string).
func determineEndState(e *Encounter, actions map[shared.ID]RoundAction, tollPaidThisRound bool, fled map[shared.ID]int, destroyed []*CombatantState) EndState {
	if tollPaidThisRound {
		allBraceOrPay := true
		for id, a := range actions {
			c, ok := e.Participants[id]
			if !ok || c.Kind != CombatantCharacter {
				continue
			}
			if a.Action != ActionBrace && a.Action != ActionPay {
				allBraceOrPay = false
				break
			}
		}
		if allBraceOrPay {
			return EndTollSatisfied
		}
	}

	aliveCount := 0
	for _, c := range e.Participants {
		if c.Fighters > 0 {
			aliveCount++
		}
	}
	if aliveCount <= 1 {
		return EndDestroyedAll
	}

	if len(e.CharacterParticipants()) == 0 && len(destroyed) == 0 && len(fled) > 0 {
		return EndFledOut
	}

	return ""
}
