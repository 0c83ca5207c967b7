package common_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/shared"
)

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func TestResolve_ActorDefaultsToCharacter(t *testing.T) {
	resolver := common.NewActorResolver(false, testNamespace, nil)
	id := shared.NewID()

	resolved, err := resolver.Resolve(id.String(), "", false, "")
	require.NoError(t, err)
	assert.Equal(t, id, resolved.CharacterID)
	assert.Equal(t, id, resolved.ActorID)
	assert.False(t, resolved.IsAdmin)
}

func TestResolve_MismatchedActorWithoutOverrideIsAuthError(t *testing.T) {
	resolver := common.NewActorResolver(false, testNamespace, nil)

	_, err := resolver.Resolve(shared.NewID().String(), shared.NewID().String(), false, "")
	require.Error(t, err)
	assert.Equal(t, shared.KindAuth, shared.KindOf(err))
}

func TestResolve_AdminOverridePassesWithCorrectPassword(t *testing.T) {
	resolver := common.NewActorResolver(false, testNamespace, common.NewAdminGate("hunter2", ""))

	resolved, err := resolver.Resolve(shared.NewID().String(), shared.NewID().String(), true, "hunter2")
	require.NoError(t, err)
	assert.True(t, resolved.IsAdmin)
}

func TestResolve_AdminOverrideRejectsWrongPassword(t *testing.T) {
	resolver := common.NewActorResolver(false, testNamespace, common.NewAdminGate("hunter2", ""))

	_, err := resolver.Resolve(shared.NewID().String(), shared.NewID().String(), true, "guess")
	require.Error(t, err)
	assert.Equal(t, shared.KindAuth, shared.KindOf(err))
}

func TestResolve_AdminGateAcceptsSHA256Digest(t *testing.T) {
	sum := sha256.Sum256([]byte("hunter2"))
	resolver := common.NewActorResolver(false, testNamespace, common.NewAdminGate("", hex.EncodeToString(sum[:])))

	resolved, err := resolver.Resolve(shared.NewID().String(), "", true, "hunter2")
	require.NoError(t, err)
	assert.True(t, resolved.IsAdmin)

	_, err = resolver.Resolve(shared.NewID().String(), "", true, "guess")
	require.Error(t, err)
}

func TestResolve_LegacyNameCanonicalizesDeterministically(t *testing.T) {
	resolver := common.NewActorResolver(true, testNamespace, nil)

	first, err := resolver.Resolve("Captain Voss", "", false, "")
	require.NoError(t, err)
	second, err := resolver.Resolve("  captain voss ", "", false, "")
	require.NoError(t, err)

	assert.Equal(t, first.CharacterID, second.CharacterID,
		"legacy names hash case-insensitively and trimmed into the same v5 UUID")
}

func TestResolve_LegacyNamesRejectedWhenDisabled(t *testing.T) {
	resolver := common.NewActorResolver(false, testNamespace, nil)

	_, err := resolver.Resolve("Captain Voss", "", false, "")
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
