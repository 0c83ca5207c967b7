package combat

import (
	"encoding/binary"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// DefaultRoundTimeout is ROUND_TIMEOUT's default.
const DefaultRoundTimeout = 15 * time.Second

// NewEncounter creates a fresh encounter at round 1 with a deadline
// `now + roundTimeout`. base_seed is derived from the first 48 bits of
// combatID so resolution is reproducible without a separately persisted
// seed.
func NewEncounter(combatID shared.ID, sectorID int, participants map[shared.ID]*CombatantState, initiator shared.ID, garrisonSources []shared.ID, now time.Time, roundTimeout time.Duration) (*Encounter, error) {
	if len(participants) < 2 {
		return nil, shared.NewValidationError("participants", "combat requires at least two distinct participants")
	}
	if roundTimeout <= 0 {
		roundTimeout = DefaultRoundTimeout
	}
	deadline := now.Add(roundTimeout)

	return &Encounter{
		CombatID:       combatID,
		SectorID:       sectorID,
		Round:          1,
		Deadline:       &deadline,
		Participants:   participants,
		PendingActions: map[shared.ID]RoundAction{},
		Context: Context{
			Initiator:       initiator,
			CreatedAt:       now,
			GarrisonSources: garrisonSources,
			TollRegistry:    map[shared.ID]*TollDemand{},
		},
		BaseSeed:    deriveBaseSeed(combatID),
		LastUpdated: now,
	}, nil
}

// deriveBaseSeed folds the first 48 bits of the combat id's UUID bytes into a
// u32 seed.
func deriveBaseSeed(combatID shared.ID) uint32 {
	id := combatID.UUID()
	var buf [8]byte
	copy(buf[2:], id[:6])
	v := binary.BigEndian.Uint64(buf[:])
	return uint32(v) ^ uint32(v>>32)
}

// AddParticipant adds actor to an existing un-ended encounter if not already
// present (combat_initiate's "add if not present" rule).
func (e *Encounter) AddParticipant(c *CombatantState) error {
	if e.Ended {
		return shared.NewConflictError("combat encounter has already ended")
	}
	if _, ok := e.Participants[c.ID]; ok {
		return nil
	}
	e.Participants[c.ID] = c
	return nil
}

// SubmitAction validates and records actor's action for the current round,
// setting awaiting_resolution. readyToResolve reports whether the resolver
// should fire immediately (all non-garrison combat-capable participants have
// submitted) — the deadline-passed half of that OR is the tick loop's
// responsibility, not this call's.
func (e *Encounter) SubmitAction(actor shared.ID, action ActionKind, commit int, target *shared.ID, destination *int, now time.Time, adjacent func(dest int) bool) (readyToResolve bool, err error) {
	if e.Ended {
		return false, shared.NewConflictError("combat encounter has already ended")
	}
	combatant, ok := e.Participants[actor]
	if !ok || combatant.Kind != CombatantCharacter {
		return false, shared.NewConflictError("actor is not a character participant in this encounter")
	}

	validated, err := validateAction(combatant, action, commit, target, destination, e, adjacent)
	if err != nil {
		return false, err
	}
	validated.SubmittedAt = now

	e.PendingActions[actor] = validated
	e.AwaitingResolution = true
	e.LastUpdated = now

	return e.allCharactersReady(), nil
}

func validateAction(c *CombatantState, action ActionKind, commit int, target *shared.ID, destination *int, e *Encounter, adjacent func(int) bool) (RoundAction, error) {
	switch action {
	case ActionAttack:
		if c.Fighters <= 0 {
			return RoundAction{}, shared.NewConflictError("combatant has no fighters to commit")
		}
		if target == nil {
			return RoundAction{}, shared.NewValidationError("target_id", "required for attack")
		}
		if target.Equals(c.ID) {
			return RoundAction{}, shared.NewValidationError("target_id", "cannot target self")
		}
		if _, ok := e.Participants[*target]; !ok {
			return RoundAction{}, shared.NewNotFoundError("combatant", target.String())
		}
		if commit < 1 {
			return RoundAction{}, shared.NewValidationError("commit", "must be >= 1 for attack")
		}
		committed := commit
		if committed > c.Fighters {
			committed = c.Fighters
		}
		return RoundAction{Action: ActionAttack, Commit: committed, TargetID: target}, nil

	case ActionFlee:
		if c.IsEscapePod {
			return RoundAction{}, shared.NewConflictError("escape pods flee automatically and may not submit flee")
		}
		if destination == nil {
			return RoundAction{}, shared.NewValidationError("destination_sector", "required for flee")
		}
		if !adjacent(*destination) {
			return RoundAction{}, shared.NewValidationError("destination_sector", "must be adjacent to the combat sector")
		}
		return RoundAction{Action: ActionFlee, DestinationSector: destination}, nil

	case ActionBrace, ActionPay:
		return RoundAction{Action: action, Commit: 0}, nil

	default:
		return RoundAction{}, shared.NewValidationError("action", "unknown action kind")
	}
}

// allCharactersReady reports whether every non-garrison participant with
// fighters>0 has a pending action.
func (e *Encounter) allCharactersReady() bool {
	for _, c := range e.CharacterParticipants() {
		if c.Fighters <= 0 {
			continue
		}
		if _, ok := e.PendingActions[c.ID]; !ok {
			return false
		}
	}
	return true
}

// CombatantOfCharacter resolves the character participant piloted by
// characterID. Participant ids are ship ids, so dispatcher-level actors
// (character ids) must be mapped through here before submitting actions.
func (e *Encounter) CombatantOfCharacter(characterID shared.ID) *CombatantState {
	for _, c := range e.CharacterParticipants() {
		if c.OwnerCharacterID != nil && c.OwnerCharacterID.Equals(characterID) {
			return c
		}
	}
	return nil
}

// DeadlinePassed reports whether the encounter's round deadline has elapsed.
func (e *Encounter) DeadlinePassed(now time.Time) bool {
	return e.Deadline != nil && !now.Before(*e.Deadline)
}
