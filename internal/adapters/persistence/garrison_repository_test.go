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

func TestGarrisonRepository_SaveAndFindByKey(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGarrisonRepository(db)
	ctx := context.Background()

	owner := shared.NewID()
	garrison, err := world.NewGarrison(3, owner, 100, world.GarrisonToll, 500, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, garrison))

	found, err := repo.FindByKey(ctx, 3, owner)
	require.NoError(t, err)
	assert.Equal(t, 100, found.Fighters)
	assert.Equal(t, world.GarrisonToll, found.Mode)
	assert.Equal(t, 500, found.TollAmount)
	assert.Equal(t, 0, found.TollBalance)
}

func TestGarrisonRepository_TollBalanceAccumulates(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGarrisonRepository(db)
	ctx := context.Background()

	owner := shared.NewID()
	garrison, err := world.NewGarrison(7, owner, 50, world.GarrisonToll, 250, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, garrison))

	loaded, err := repo.FindByKey(ctx, 7, owner)
	require.NoError(t, err)
	loaded.ReceiveToll(250)
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.FindByKey(ctx, 7, owner)
	require.NoError(t, err)
	assert.Equal(t, 250, reloaded.TollBalance)
}

func TestGarrisonRepository_FindBySector(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGarrisonRepository(db)
	ctx := context.Background()

	first, err := world.NewGarrison(5, shared.NewID(), 10, world.GarrisonDefensive, 0, time.Now().UTC())
	require.NoError(t, err)
	second, err := world.NewGarrison(5, shared.NewID(), 20, world.GarrisonOffensive, 0, time.Now().UTC())
	require.NoError(t, err)
	elsewhere, err := world.NewGarrison(6, shared.NewID(), 30, world.GarrisonDefensive, 0, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, elsewhere))

	found, err := repo.FindBySector(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestGarrisonRepository_FindByOwner(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGarrisonRepository(db)
	ctx := context.Background()

	owner := shared.NewID()
	inThree, err := world.NewGarrison(3, owner, 10, world.GarrisonDefensive, 0, time.Now().UTC())
	require.NoError(t, err)
	inNine, err := world.NewGarrison(9, owner, 20, world.GarrisonToll, 100, time.Now().UTC())
	require.NoError(t, err)
	someoneElses, err := world.NewGarrison(3, shared.NewID(), 30, world.GarrisonOffensive, 0, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, inThree))
	require.NoError(t, repo.Save(ctx, inNine))
	require.NoError(t, repo.Save(ctx, someoneElses))

	found, err := repo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, found, 2)

	sectors := map[int]bool{}
	for _, g := range found {
		assert.Equal(t, owner, g.OwnerCharacter)
		sectors[g.SectorID] = true
	}
	assert.True(t, sectors[3])
	assert.True(t, sectors[9])
}

func TestGarrisonRepository_Delete(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormGarrisonRepository(db)
	ctx := context.Background()

	owner := shared.NewID()
	garrison, err := world.NewGarrison(8, owner, 10, world.GarrisonDefensive, 0, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, garrison))

	require.NoError(t, repo.Delete(ctx, 8, owner))

	_, err = repo.FindByKey(ctx, 8, owner)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
