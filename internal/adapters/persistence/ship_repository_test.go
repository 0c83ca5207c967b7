package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
	"github.com/gradient-bang/server/test/helpers"
)

func kestrelDefinition(t *testing.T) *world.ShipDefinition {
	t.Helper()
	def, err := world.NewShipDefinition("kestrel_courier", "Kestrel Courier", 1, 250, 100, 100, 40, 10000, 1, false)
	require.NoError(t, err)
	return def
}

func newTestShip(t *testing.T, owner shared.ID, sector int) *world.Ship {
	t.Helper()
	ship, err := world.NewShip(shared.NewID(), "kestrel_courier", "Voss's Kestrel", world.CharacterOwner(owner), sector, kestrelDefinition(t))
	require.NoError(t, err)
	return ship
}

func TestShipRepository_SaveAndFind(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormShipRepository(db)
	ctx := context.Background()

	owner := shared.NewID()
	ship := newTestShip(t, owner, 0)
	require.NoError(t, repo.Create(ctx, ship))

	found, err := repo.FindByID(ctx, ship.ID())
	require.NoError(t, err)
	assert.Equal(t, ship.ID(), found.ID())
	assert.Equal(t, "kestrel_courier", found.TypeID())
	assert.Equal(t, world.OwnerCharacter, found.Owner().Kind)
	assert.True(t, found.IsOwnedByCharacter(owner))
	require.NotNil(t, found.CurrentSector())
	assert.Equal(t, 0, *found.CurrentSector())
	assert.Equal(t, 250, found.WarpPower())
	assert.Equal(t, 100, found.Fighters())
	assert.False(t, found.InTransit())
}

func TestShipRepository_FindBySector(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormShipRepository(db)
	ctx := context.Background()

	inFive := newTestShip(t, shared.NewID(), 5)
	inNine := newTestShip(t, shared.NewID(), 9)
	require.NoError(t, repo.Create(ctx, inFive))
	require.NoError(t, repo.Create(ctx, inNine))

	found, err := repo.FindBySector(ctx, 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inFive.ID(), found[0].ID())
}

func TestShipRepository_CompareAndStartTransit(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormShipRepository(db)
	ctx := context.Background()

	ship := newTestShip(t, shared.NewID(), 0)
	require.NoError(t, repo.Create(ctx, ship))

	eta := time.Now().UTC().Add(2 * time.Second)
	started, err := repo.CompareAndStartTransit(ctx, ship.ID(), 0, 1, 1, eta)
	require.NoError(t, err)
	require.True(t, started)

	inTransit, err := repo.FindByID(ctx, ship.ID())
	require.NoError(t, err)
	assert.True(t, inTransit.InTransit())
	assert.Nil(t, inTransit.CurrentSector())
	assert.Equal(t, 249, inTransit.WarpPower(), "warp cost is deducted by the conditional update itself")

	// A second dispatch must find the precondition (parked at origin) gone.
	startedAgain, err := repo.CompareAndStartTransit(ctx, ship.ID(), 0, 1, 1, eta)
	require.NoError(t, err)
	assert.False(t, startedAgain, "double-dispatch is refused without error")
}

func TestShipRepository_CompareAndArrive(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormShipRepository(db)
	ctx := context.Background()

	ship := newTestShip(t, shared.NewID(), 0)
	require.NoError(t, repo.Create(ctx, ship))

	_, err := repo.CompareAndStartTransit(ctx, ship.ID(), 0, 3, 1, time.Now().UTC())
	require.NoError(t, err)

	arrived, err := repo.CompareAndArrive(ctx, ship.ID())
	require.NoError(t, err)
	require.True(t, arrived)

	landed, err := repo.FindByID(ctx, ship.ID())
	require.NoError(t, err)
	assert.False(t, landed.InTransit())
	require.NotNil(t, landed.CurrentSector())
	assert.Equal(t, 3, *landed.CurrentSector())

	// Resuming an already-landed ship is a silent no-op.
	arrivedAgain, err := repo.CompareAndArrive(ctx, ship.ID())
	require.NoError(t, err)
	assert.False(t, arrivedAgain)
}

func TestShipRepository_FindDueArrivals(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormShipRepository(db)
	ctx := context.Background()

	overdue := newTestShip(t, shared.NewID(), 0)
	pending := newTestShip(t, shared.NewID(), 0)
	require.NoError(t, repo.Create(ctx, overdue))
	require.NoError(t, repo.Create(ctx, pending))

	now := time.Now().UTC()
	_, err := repo.CompareAndStartTransit(ctx, overdue.ID(), 0, 2, 1, now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = repo.CompareAndStartTransit(ctx, pending.ID(), 0, 2, 1, now.Add(time.Hour))
	require.NoError(t, err)

	due, err := repo.FindDueArrivals(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID(), due[0].ID())
}

func TestShipRepository_Delete(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormShipRepository(db)
	ctx := context.Background()

	ship := newTestShip(t, shared.NewID(), 0)
	require.NoError(t, repo.Create(ctx, ship))
	require.NoError(t, repo.Delete(ctx, ship.ID()))

	_, err := repo.FindByID(ctx, ship.ID())
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
