package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/test/helpers"
)

func twoShipEncounter(t *testing.T, now time.Time) (*combat.Encounter, shared.ID, shared.ID) {
	t.Helper()

	shipA, shipB := shared.NewID(), shared.NewID()
	ownerA, ownerB := shared.NewID(), shared.NewID()
	participants := map[shared.ID]*combat.CombatantState{
		shipA: {ID: shipA, Kind: combat.CombatantCharacter, DisplayName: "Voss", Fighters: 100, Shields: 100, MaxFighters: 100, MaxShields: 100, TurnsPerWarp: 1, ShipType: "kestrel_courier", OwnerCharacterID: &ownerA},
		shipB: {ID: shipB, Kind: combat.CombatantCharacter, DisplayName: "Raines", Fighters: 80, Shields: 50, MaxFighters: 100, MaxShields: 100, TurnsPerWarp: 2, ShipType: "kestrel_courier", OwnerCharacterID: &ownerB},
	}

	encounter, err := combat.NewEncounter(shared.NewID(), 5, participants, ownerA, nil, now, 15*time.Second)
	require.NoError(t, err)
	return encounter, shipA, shipB
}

func TestCombatEncounterRepository_CreateAndFindRoundTrip(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCombatEncounterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	encounter, shipA, shipB := twoShipEncounter(t, now)
	target := shipB
	_, err := encounter.SubmitAction(shipA, combat.ActionAttack, 50, &target, nil, now, func(int) bool { return true })
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, encounter))

	found, err := repo.FindByID(ctx, encounter.CombatID)
	require.NoError(t, err)
	assert.Equal(t, encounter.CombatID, found.CombatID)
	assert.Equal(t, 5, found.SectorID)
	assert.Equal(t, 1, found.Round)
	assert.Equal(t, encounter.BaseSeed, found.BaseSeed)
	require.NotNil(t, found.Deadline)
	assert.True(t, found.AwaitingResolution)

	require.Len(t, found.Participants, 2)
	assert.Equal(t, "Voss", found.Participants[shipA].DisplayName)
	assert.Equal(t, 80, found.Participants[shipB].Fighters)

	require.Contains(t, found.PendingActions, shipA)
	pending := found.PendingActions[shipA]
	assert.Equal(t, combat.ActionAttack, pending.Action)
	assert.Equal(t, 50, pending.Commit)
	require.NotNil(t, pending.TargetID)
	assert.Equal(t, shipB, *pending.TargetID)
}

func TestCombatEncounterRepository_FindActiveBySector(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCombatEncounterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	encounter, _, _ := twoShipEncounter(t, now)
	require.NoError(t, repo.Create(ctx, encounter))

	found, err := repo.FindActiveBySector(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, encounter.CombatID, found.CombatID)

	_, err = repo.FindActiveBySector(ctx, 99)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestCombatEncounterRepository_SaveEnforcesOptimisticRound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCombatEncounterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	encounter, _, _ := twoShipEncounter(t, now)
	require.NoError(t, repo.Create(ctx, encounter))

	encounter.Round = 2
	require.NoError(t, repo.Save(ctx, encounter, 1))

	// A writer still holding the round-1 view loses the race.
	stale, _, _ := twoShipEncounter(t, now)
	stale.CombatID = encounter.CombatID
	err := repo.Save(ctx, stale, 1)
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestCombatEncounterRepository_FindDueForResolution(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCombatEncounterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	overdue, _, _ := twoShipEncounter(t, now.Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, overdue))

	pending, _, _ := twoShipEncounter(t, now.Add(time.Hour))
	pending.SectorID = 6
	require.NoError(t, repo.Create(ctx, pending))

	due, err := repo.FindDueForResolution(ctx, now, 20)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.CombatID, due[0].CombatID)
}

func TestCombatEncounterRepository_TollRegistryRoundTrips(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCombatEncounterRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	encounter, shipA, _ := twoShipEncounter(t, now)
	garrisonID := shared.NewID()
	encounter.Context.TollRegistry[garrisonID] = &combat.TollDemand{TargetID: shipA, DemandRound: 1}
	combat.MarkTollPaid(encounter, garrisonID, 2)

	require.NoError(t, repo.Create(ctx, encounter))

	found, err := repo.FindByID(ctx, encounter.CombatID)
	require.NoError(t, err)
	demand, ok := found.Context.TollRegistry[garrisonID]
	require.True(t, ok)
	assert.True(t, demand.Paid)
	assert.Equal(t, 2, demand.PaidRound)
	assert.Equal(t, shipA, demand.TargetID)
}
