package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
	"github.com/gradient-bang/server/test/helpers"
)

func TestPortRepository_SaveAndFind(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPortRepository(db)
	ctx := context.Background()

	port, err := world.NewPort(2, "BSS", [3]int{100, 80, 60}, [3]int{25, 40, 10})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, port))

	found, err := repo.FindBySector(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "BSS", found.CodeString())
	assert.Equal(t, [3]int{100, 80, 60}, found.Capacity)
	assert.Equal(t, [3]int{25, 40, 10}, found.Stock)
}

func TestPortRepository_StockMutationRoundTrips(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPortRepository(db)
	ctx := context.Background()

	port, err := world.NewPort(4, "BBB", [3]int{50, 50, 50}, [3]int{0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, port))

	loaded, err := repo.FindBySector(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, loaded.Buy(shared.CommodityQuantumFoam, 10))
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.FindBySector(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock[0])
}

func TestPortRepository_NotFound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormPortRepository(db)

	_, err := repo.FindBySector(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
