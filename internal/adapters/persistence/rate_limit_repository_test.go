package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/test/helpers"
)

func TestRateLimitStore_AllowsUpToMaxWithinWindow(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormRateLimitStore(db)
	ctx := context.Background()
	characterID := shared.NewID()

	for i := 0; i < 3; i++ {
		allowed, _, err := store.CheckAndIncrement(ctx, characterID, "move", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "call %d of 3 must be admitted", i+1)
	}

	allowed, retryAfter, err := store.CheckAndIncrement(ctx, characterID, "move", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRateLimitStore_WindowsArePerMethod(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormRateLimitStore(db)
	ctx := context.Background()
	characterID := shared.NewID()

	allowed, _, err := store.CheckAndIncrement(ctx, characterID, "move", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	blocked, _, err := store.CheckAndIncrement(ctx, characterID, "move", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked)

	otherMethod, _, err := store.CheckAndIncrement(ctx, characterID, "my_status", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, otherMethod, "exhausting one method's budget must not throttle another")
}

func TestRateLimitStore_WindowsArePerCharacter(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormRateLimitStore(db)
	ctx := context.Background()

	first, second := shared.NewID(), shared.NewID()

	allowed, _, err := store.CheckAndIncrement(ctx, first, "move", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = store.CheckAndIncrement(ctx, second, "move", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitStore_ExpiredWindowRolls(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormRateLimitStore(db)
	ctx := context.Background()
	characterID := shared.NewID()

	// Exhaust a very short window, then wait it out.
	allowed, _, err := store.CheckAndIncrement(ctx, characterID, "move", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, allowed)

	blocked, _, err := store.CheckAndIncrement(ctx, characterID, "move", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, blocked)

	time.Sleep(20 * time.Millisecond)

	allowed, _, err = store.CheckAndIncrement(ctx, characterID, "move", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed, "a fresh window must admit calls again")
}
