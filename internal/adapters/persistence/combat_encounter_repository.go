package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// GormCombatEncounterRepository implements combat.EncounterRepository using
// GORM, with optimistic concurrency on round: Save only succeeds when the
// persisted row's round still matches expectedRound.
//
// shared.ID is not itself JSON-key-safe (it wraps uuid.UUID, not a string
// kind), so every map keyed by shared.ID is marshaled through a
// string-keyed mirror struct before being written to a jsonb column.
type GormCombatEncounterRepository struct {
	db *gorm.DB
}

func NewGormCombatEncounterRepository(db *gorm.DB) *GormCombatEncounterRepository {
	return &GormCombatEncounterRepository{db: db}
}

func (r *GormCombatEncounterRepository) Create(ctx context.Context, e *combat.Encounter) error {
	model, err := encounterToModel(e)
	if err != nil {
		return fmt.Errorf("failed to convert encounter to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("failed to create encounter: %w", result.Error)
	}
	return nil
}

func (r *GormCombatEncounterRepository) FindByID(ctx context.Context, id shared.ID) (*combat.Encounter, error) {
	var model CombatEncounterModel
	result := r.db.WithContext(ctx).Where("combat_id = ?", id.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("combat_encounter", id.String())
		}
		return nil, fmt.Errorf("failed to find encounter: %w", result.Error)
	}
	return modelToEncounter(&model)
}

func (r *GormCombatEncounterRepository) FindActiveBySector(ctx context.Context, sectorID int) (*combat.Encounter, error) {
	var model CombatEncounterModel
	result := r.db.WithContext(ctx).Where("sector_id = ? AND ended = ?", sectorID, false).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("combat_encounter", fmt.Sprintf("sector %d", sectorID))
		}
		return nil, fmt.Errorf("failed to find active encounter: %w", result.Error)
	}
	return modelToEncounter(&model)
}

// Save writes back an encounter's state, enforcing optimistic concurrency:
// the update only applies if the stored round still equals expectedRound.
func (r *GormCombatEncounterRepository) Save(ctx context.Context, e *combat.Encounter, expectedRound int) error {
	model, err := encounterToModel(e)
	if err != nil {
		return fmt.Errorf("failed to convert encounter to model: %w", err)
	}

	// Select("*") forces zero-valued columns through: an ended encounter must
	// clear awaiting_resolution and null out its deadline, which a plain
	// struct Updates would silently skip.
	result := r.db.WithContext(ctx).Model(&CombatEncounterModel{}).
		Where("combat_id = ? AND round = ?", e.CombatID.String(), expectedRound).
		Select("*").Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save encounter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return combat.ErrRoundAdvanced
	}
	return nil
}

func (r *GormCombatEncounterRepository) FindDueForResolution(ctx context.Context, now time.Time, limit int) ([]*combat.Encounter, error) {
	var models []CombatEncounterModel
	query := r.db.WithContext(ctx).Where("ended = ? AND deadline IS NOT NULL AND deadline <= ?", false, now)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find due encounters: %w", result.Error)
	}

	out := make([]*combat.Encounter, 0, len(models))
	for i := range models {
		e, err := modelToEncounter(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// JSON mirror types, string-keyed in place of shared.ID.

type combatantStateJSON struct {
	ID               string
	Kind             string
	DisplayName      string
	Fighters         int
	Shields          int
	MaxFighters      int
	MaxShields       int
	TurnsPerWarp     int
	ShipType         string
	OwnerCharacterID *string
	IsEscapePod      bool
	Metadata         map[string]string
}

type roundActionJSON struct {
	Action            string
	Commit            int
	TimedOut          bool
	TargetID          *string
	DestinationSector *int
	SubmittedAt       time.Time
}

type tollDemandJSON struct {
	TargetID    string
	DemandRound int
	Paid        bool
	PaidRound   int
}

type logEntryJSON struct {
	RoundNumber     int
	Actions         map[string]roundActionJSON
	Hits            map[string]int
	OffensiveLosses map[string]int
	DefensiveLosses map[string]int
	ShieldLoss      map[string]int
	Result          string
	Timestamp       time.Time
}

func idPtrToString(id *shared.ID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func stringToIDPtr(s *string) (*shared.ID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := shared.ParseID(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func combatantStateToJSON(c *combat.CombatantState) combatantStateJSON {
	return combatantStateJSON{
		ID:               c.ID.String(),
		Kind:             string(c.Kind),
		DisplayName:      c.DisplayName,
		Fighters:         c.Fighters,
		Shields:          c.Shields,
		MaxFighters:      c.MaxFighters,
		MaxShields:       c.MaxShields,
		TurnsPerWarp:     c.TurnsPerWarp,
		ShipType:         c.ShipType,
		OwnerCharacterID: idPtrToString(c.OwnerCharacterID),
		IsEscapePod:      c.IsEscapePod,
		Metadata:         c.Metadata,
	}
}

func combatantStateFromJSON(j combatantStateJSON) (*combat.CombatantState, error) {
	id, err := shared.ParseID(j.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid combatant id: %w", err)
	}
	owner, err := stringToIDPtr(j.OwnerCharacterID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner_character_id: %w", err)
	}
	return &combat.CombatantState{
		ID:               id,
		Kind:             combat.CombatantKind(j.Kind),
		DisplayName:      j.DisplayName,
		Fighters:         j.Fighters,
		Shields:          j.Shields,
		MaxFighters:      j.MaxFighters,
		MaxShields:       j.MaxShields,
		TurnsPerWarp:     j.TurnsPerWarp,
		ShipType:         j.ShipType,
		OwnerCharacterID: owner,
		IsEscapePod:      j.IsEscapePod,
		Metadata:         j.Metadata,
	}, nil
}

func roundActionToJSON(a combat.RoundAction) roundActionJSON {
	return roundActionJSON{
		Action:            string(a.Action),
		Commit:            a.Commit,
		TimedOut:          a.TimedOut,
		TargetID:          idPtrToString(a.TargetID),
		DestinationSector: a.DestinationSector,
		SubmittedAt:       a.SubmittedAt,
	}
}

func roundActionFromJSON(j roundActionJSON) (combat.RoundAction, error) {
	target, err := stringToIDPtr(j.TargetID)
	if err != nil {
		return combat.RoundAction{}, fmt.Errorf("invalid target_id: %w", err)
	}
	return combat.RoundAction{
		Action:            combat.ActionKind(j.Action),
		Commit:            j.Commit,
		TimedOut:          j.TimedOut,
		TargetID:          target,
		DestinationSector: j.DestinationSector,
		SubmittedAt:       j.SubmittedAt,
	}, nil
}

func idMapToStringMap(hits map[shared.ID]int) map[string]int {
	out := make(map[string]int, len(hits))
	for id, v := range hits {
		out[id.String()] = v
	}
	return out
}

func stringMapToIDMap(hits map[string]int) (map[shared.ID]int, error) {
	out := make(map[shared.ID]int, len(hits))
	for s, v := range hits {
		id, err := shared.ParseID(s)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func logEntryToJSON(l combat.LogEntry) logEntryJSON {
	actions := make(map[string]roundActionJSON, len(l.Actions))
	for id, a := range l.Actions {
		actions[id.String()] = roundActionToJSON(a)
	}
	return logEntryJSON{
		RoundNumber:     l.RoundNumber,
		Actions:         actions,
		Hits:            idMapToStringMap(l.Hits),
		OffensiveLosses: idMapToStringMap(l.OffensiveLosses),
		DefensiveLosses: idMapToStringMap(l.DefensiveLosses),
		ShieldLoss:      idMapToStringMap(l.ShieldLoss),
		Result:          string(l.Result),
		Timestamp:       l.Timestamp,
	}
}

func logEntryFromJSON(j logEntryJSON) (combat.LogEntry, error) {
	actions := make(map[shared.ID]combat.RoundAction, len(j.Actions))
	for s, a := range j.Actions {
		id, err := shared.ParseID(s)
		if err != nil {
			return combat.LogEntry{}, err
		}
		action, err := roundActionFromJSON(a)
		if err != nil {
			return combat.LogEntry{}, err
		}
		actions[id] = action
	}

	hits, err := stringMapToIDMap(j.Hits)
	if err != nil {
		return combat.LogEntry{}, err
	}
	offensive, err := stringMapToIDMap(j.OffensiveLosses)
	if err != nil {
		return combat.LogEntry{}, err
	}
	defensive, err := stringMapToIDMap(j.DefensiveLosses)
	if err != nil {
		return combat.LogEntry{}, err
	}
	shieldLoss, err := stringMapToIDMap(j.ShieldLoss)
	if err != nil {
		return combat.LogEntry{}, err
	}

	return combat.LogEntry{
		RoundNumber:     j.RoundNumber,
		Actions:         actions,
		Hits:            hits,
		OffensiveLosses: offensive,
		DefensiveLosses: defensive,
		ShieldLoss:      shieldLoss,
		Result:          combat.EndState(j.Result),
		Timestamp:       j.Timestamp,
	}, nil
}

func encounterToModel(e *combat.Encounter) (*CombatEncounterModel, error) {
	participants := make(map[string]combatantStateJSON, len(e.Participants))
	for id, c := range e.Participants {
		participants[id.String()] = combatantStateToJSON(c)
	}
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal participants: %w", err)
	}

	pending := make(map[string]roundActionJSON, len(e.PendingActions))
	for id, a := range e.PendingActions {
		pending[id.String()] = roundActionToJSON(a)
	}
	pendingJSON, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pending actions: %w", err)
	}

	logs := make([]logEntryJSON, len(e.Logs))
	for i, l := range e.Logs {
		logs[i] = logEntryToJSON(l)
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal logs: %w", err)
	}

	garrisonSources := make([]string, len(e.Context.GarrisonSources))
	for i, id := range e.Context.GarrisonSources {
		garrisonSources[i] = id.String()
	}
	garrisonSourcesJSON, err := json.Marshal(garrisonSources)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal garrison sources: %w", err)
	}

	tollRegistry := make(map[string]tollDemandJSON, len(e.Context.TollRegistry))
	for id, d := range e.Context.TollRegistry {
		tollRegistry[id.String()] = tollDemandJSON{
			TargetID:    d.TargetID.String(),
			DemandRound: d.DemandRound,
			Paid:        d.Paid,
			PaidRound:   d.PaidRound,
		}
	}
	tollRegistryJSON, err := json.Marshal(tollRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal toll registry: %w", err)
	}

	return &CombatEncounterModel{
		CombatID:           e.CombatID.String(),
		SectorID:           e.SectorID,
		Round:              e.Round,
		Deadline:           e.Deadline,
		Participants:       string(participantsJSON),
		PendingActions:     string(pendingJSON),
		Logs:               string(logsJSON),
		Initiator:          e.Context.Initiator.String(),
		CreatedAt:          e.Context.CreatedAt,
		GarrisonSources:    string(garrisonSourcesJSON),
		TollRegistry:        string(tollRegistryJSON),
		AwaitingResolution: e.AwaitingResolution,
		Ended:              e.Ended,
		EndState:           string(e.EndState),
		BaseSeed:           e.BaseSeed,
		LastUpdated:        e.LastUpdated,
	}, nil
}

func modelToEncounter(model *CombatEncounterModel) (*combat.Encounter, error) {
	combatID, err := shared.ParseID(model.CombatID)
	if err != nil {
		return nil, fmt.Errorf("invalid combat_id in database: %w", err)
	}

	var participantsJSON map[string]combatantStateJSON
	if model.Participants != "" {
		if err := json.Unmarshal([]byte(model.Participants), &participantsJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
		}
	}
	participants := make(map[shared.ID]*combat.CombatantState, len(participantsJSON))
	for s, j := range participantsJSON {
		id, err := shared.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid participant id: %w", err)
		}
		c, err := combatantStateFromJSON(j)
		if err != nil {
			return nil, err
		}
		participants[id] = c
	}

	var pendingJSON map[string]roundActionJSON
	if model.PendingActions != "" {
		if err := json.Unmarshal([]byte(model.PendingActions), &pendingJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending actions: %w", err)
		}
	}
	pending := make(map[shared.ID]combat.RoundAction, len(pendingJSON))
	for s, j := range pendingJSON {
		id, err := shared.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid pending action id: %w", err)
		}
		a, err := roundActionFromJSON(j)
		if err != nil {
			return nil, err
		}
		pending[id] = a
	}

	var logsJSON []logEntryJSON
	if model.Logs != "" {
		if err := json.Unmarshal([]byte(model.Logs), &logsJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}
	logs := make([]combat.LogEntry, len(logsJSON))
	for i, j := range logsJSON {
		l, err := logEntryFromJSON(j)
		if err != nil {
			return nil, err
		}
		logs[i] = l
	}

	initiator, err := shared.ParseID(model.Initiator)
	if err != nil {
		return nil, fmt.Errorf("invalid initiator in database: %w", err)
	}

	var garrisonSourceStrings []string
	if model.GarrisonSources != "" {
		if err := json.Unmarshal([]byte(model.GarrisonSources), &garrisonSourceStrings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal garrison sources: %w", err)
		}
	}
	garrisonSources := make([]shared.ID, len(garrisonSourceStrings))
	for i, s := range garrisonSourceStrings {
		id, err := shared.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid garrison source id: %w", err)
		}
		garrisonSources[i] = id
	}

	var tollRegistryJSON map[string]tollDemandJSON
	if model.TollRegistry != "" {
		if err := json.Unmarshal([]byte(model.TollRegistry), &tollRegistryJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal toll registry: %w", err)
		}
	}
	tollRegistry := make(map[shared.ID]*combat.TollDemand, len(tollRegistryJSON))
	for s, j := range tollRegistryJSON {
		id, err := shared.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid toll registry key: %w", err)
		}
		targetID, err := shared.ParseID(j.TargetID)
		if err != nil {
			return nil, fmt.Errorf("invalid toll demand target id: %w", err)
		}
		tollRegistry[id] = &combat.TollDemand{
			TargetID:    targetID,
			DemandRound: j.DemandRound,
			Paid:        j.Paid,
			PaidRound:   j.PaidRound,
		}
	}

	return &combat.Encounter{
		CombatID:       combatID,
		SectorID:       model.SectorID,
		Round:          model.Round,
		Deadline:       model.Deadline,
		Participants:   participants,
		PendingActions: pending,
		Logs:           logs,
		Context: combat.Context{
			Initiator:       initiator,
			CreatedAt:       model.CreatedAt,
			GarrisonSources: garrisonSources,
			TollRegistry:    tollRegistry,
		},
		AwaitingResolution: model.AwaitingResolution,
		Ended:              model.Ended,
		EndState:           combat.EndState(model.EndState),
		BaseSeed:           model.BaseSeed,
		LastUpdated:        model.LastUpdated,
	}, nil
}
