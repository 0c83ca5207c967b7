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

func TestCharacterRepository_SaveAndFind(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCharacterRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	character, err := world.NewCharacter(shared.NewID(), "Voss", false, now)
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), character))

	found, err := repo.FindByID(context.Background(), character.ID())
	require.NoError(t, err)
	assert.Equal(t, character.ID(), found.ID())
	assert.Equal(t, "Voss", found.DisplayName())
	assert.Equal(t, 0, found.BankBalance())
}

func TestCharacterRepository_FindByDisplayName(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCharacterRepository(db)

	now := time.Now().UTC()
	character, err := world.NewCharacter(shared.NewID(), "Raines", false, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), character))

	found, err := repo.FindByDisplayName(context.Background(), "Raines")
	require.NoError(t, err)
	assert.Equal(t, character.ID(), found.ID())
}

func TestCharacterRepository_FindByID_NotFound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCharacterRepository(db)

	_, err := repo.FindByID(context.Background(), shared.NewID())
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestCharacterRepository_FindActiveSince(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCharacterRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	recentlyActive, err := world.NewCharacter(shared.NewID(), "Online", false, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, recentlyActive))

	staleActive, err := world.NewCharacter(shared.NewID(), "Offline", false, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, staleActive))

	active, err := repo.FindActiveSince(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)

	require.Len(t, active, 1)
	assert.Equal(t, "Online", active[0].DisplayName())
}

func TestCharacterRepository_Delete(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCharacterRepository(db)
	ctx := context.Background()

	character, err := world.NewCharacter(shared.NewID(), "Temp", false, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, character))

	require.NoError(t, repo.Delete(ctx, character.ID()))

	_, err = repo.FindByID(ctx, character.ID())
	require.Error(t, err)
}
