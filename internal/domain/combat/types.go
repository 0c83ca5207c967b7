// Package combat is CombatCore (C): the encounter state machine and round
// resolver. An Encounter is owned in-memory only for the duration of a
// single resolution; between resolutions it is serialized back through
// WorldStore.
package combat

import (
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// CombatantKind distinguishes a character pilot from a garrison stack.
type CombatantKind string

const (
	CombatantCharacter CombatantKind = "character"
	CombatantGarrison  CombatantKind = "garrison"
)

// ActionKind is the closed set of round actions a combatant may submit.
type ActionKind string

const (
	ActionAttack ActionKind = "attack"
	ActionBrace  ActionKind = "brace"
	ActionFlee   ActionKind = "flee"
	ActionPay    ActionKind = "pay"
)

// EndState is the terminal classifier for a finished encounter.
type EndState string

const (
	EndDestroyedAll   EndState = "destroyed_all"
	EndFledOut        EndState = "fled_out"
	EndTollSatisfied  EndState = "toll_satisfied"
)

// RoundAction is one combatant's submitted or synthesized action for the
// current round.
type RoundAction struct {
	Action            ActionKind
	Commit            int
	TimedOut          bool
	TargetID          *shared.ID
	DestinationSector *int
	SubmittedAt       time.Time
}

// CombatantState is one participant's combat-relevant attributes, snapshotted
// into the encounter at join time and mutated in place by resolution.
type CombatantState struct {
	ID                shared.ID
	Kind              CombatantKind
	DisplayName       string
	Fighters          int
	Shields           int
	MaxFighters       int
	MaxShields        int
	TurnsPerWarp      int
	ShipType          string // empty for garrisons
	OwnerCharacterID  *shared.ID
	IsEscapePod       bool
	Metadata          map[string]string
}

// TollDemand tracks a single toll garrison's demand-and-payment cycle across
// rounds.
type TollDemand struct {
	TargetID    shared.ID
	DemandRound int
	Paid        bool
	PaidRound   int
}

// Context carries the encounter's creation-time provenance and the toll
// registry threaded across rounds.
type Context struct {
	Initiator      shared.ID
	CreatedAt      time.Time
	GarrisonSources []shared.ID
	TollRegistry   map[shared.ID]*TollDemand // keyed by garrison combatant id
}

// LogEntry is one persisted round outcome.
type LogEntry struct {
	RoundNumber      int
	Actions          map[shared.ID]RoundAction
	Hits             map[shared.ID]int
	OffensiveLosses  map[shared.ID]int
	DefensiveLosses  map[shared.ID]int
	ShieldLoss       map[shared.ID]int
	Result           EndState
	Timestamp        time.Time
}

// Encounter is CombatEncounter: the reified state of one ongoing fight in a
// sector.
type Encounter struct {
	CombatID         shared.ID
	SectorID         int
	Round            int
	Deadline         *time.Time
	Participants     map[shared.ID]*CombatantState
	PendingActions   map[shared.ID]RoundAction
	Logs             []LogEntry
	Context          Context
	AwaitingResolution bool
	Ended            bool
	EndState         EndState
	BaseSeed         uint32
	LastUpdated      time.Time
}

// IsParticipant reports whether id is a current participant.
func (e *Encounter) IsParticipant(id shared.ID) bool {
	_, ok := e.Participants[id]
	return ok
}

// CharacterParticipants returns the subset of participants that are
// characters (not garrisons).
func (e *Encounter) CharacterParticipants() []*CombatantState {
	out := make([]*CombatantState, 0, len(e.Participants))
	for _, c := range e.Participants {
		if c.Kind == CombatantCharacter {
			out = append(out, c)
		}
	}
	return out
}

// GarrisonParticipants returns the subset of participants that are
// garrisons.
func (e *Encounter) GarrisonParticipants() []*CombatantState {
	out := make([]*CombatantState, 0, len(e.Participants))
	for _, c := range e.Participants {
		if c.Kind == CombatantGarrison {
			out = append(out, c)
		}
	}
	return out
}
