package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// fakeWorld implements every visibility port in memory so recipient
// computation can be exercised without a database.
type fakeWorld struct {
	present       map[int][]shared.ID
	garrisonCorps map[int][]shared.ID
	members       map[shared.ID][]shared.ID
	online        []shared.ID

	channels     map[int][]string
	channelCalls int
}

func (f *fakeWorld) CharactersInSector(ctx context.Context, sectorID int) ([]shared.ID, error) {
	return f.present[sectorID], nil
}

func (f *fakeWorld) GarrisonCorporationsInSector(ctx context.Context, sectorID int) ([]shared.ID, error) {
	return f.garrisonCorps[sectorID], nil
}

func (f *fakeWorld) Members(ctx context.Context, corpID shared.ID) ([]shared.ID, error) {
	return f.members[corpID], nil
}

func (f *fakeWorld) IsMember(ctx context.Context, corpID shared.ID, characterID shared.ID) (bool, error) {
	for _, m := range f.members[corpID] {
		if m.Equals(characterID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWorld) OnlineCharacters(ctx context.Context) ([]shared.ID, error) {
	return f.online, nil
}

func (f *fakeWorld) ObserverChannels(ctx context.Context, sectorID int) ([]string, error) {
	f.channelCalls++
	return f.channels[sectorID], nil
}

func newResolver(w *fakeWorld, ttl time.Duration) *events.VisibilityResolver {
	return events.NewVisibilityResolver(w, w, w, w, ttl)
}

func reasonsByCharacter(recipients []events.Recipient) map[shared.ID]events.RecipientReason {
	out := make(map[shared.ID]events.RecipientReason, len(recipients))
	for _, r := range recipients {
		out[r.CharacterID] = r.Reason
	}
	return out
}

func TestRecipients_CharacterScope_TargetOnly(t *testing.T) {
	target := shared.NewID()
	resolver := newResolver(&fakeWorld{}, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:        events.ScopeCharacter,
		CharacterID: &target,
	}, nil)
	require.NoError(t, err)

	require.Len(t, recipients, 1)
	assert.Equal(t, target, recipients[0].CharacterID)
	assert.Equal(t, events.ReasonRecipient, recipients[0].Reason)
}

func TestRecipients_CharacterScope_SelfTargetedGetsSelfReason(t *testing.T) {
	self := shared.NewID()
	resolver := newResolver(&fakeWorld{}, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:        events.ScopeCharacter,
		CharacterID: &self,
		IncludeSelf: true,
	}, &self)
	require.NoError(t, err)

	require.Len(t, recipients, 1)
	assert.Equal(t, events.ReasonSelf, recipients[0].Reason)
}

func TestRecipients_DirectMessagePersistsSenderAndRecipient(t *testing.T) {
	sender := shared.NewID()
	recipient := shared.NewID()
	resolver := newResolver(&fakeWorld{}, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:        events.ScopeCharacter,
		CharacterID: &recipient,
		IncludeSelf: true,
	}, &sender)
	require.NoError(t, err)

	reasons := reasonsByCharacter(recipients)
	require.Len(t, reasons, 2)
	assert.Equal(t, events.ReasonRecipient, reasons[recipient])
	assert.Equal(t, events.ReasonSender, reasons[sender])
}

func TestRecipients_SectorScope_IncludesPresentAndGarrisonCorpMembers(t *testing.T) {
	inSector := shared.NewID()
	corpID := shared.NewID()
	corpMemberElsewhere := shared.NewID()

	w := &fakeWorld{
		present:       map[int][]shared.ID{7: {inSector}},
		garrisonCorps: map[int][]shared.ID{7: {corpID}},
		members:       map[shared.ID][]shared.ID{corpID: {corpMemberElsewhere}},
	}
	resolver := newResolver(w, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:     events.ScopeSector,
		SectorID: intPtr(7),
	}, nil)
	require.NoError(t, err)

	reasons := reasonsByCharacter(recipients)
	assert.Contains(t, reasons, inSector)
	assert.Contains(t, reasons, corpMemberElsewhere,
		"a corporation with a garrison in the sector sees sector events even when its pilots are elsewhere")
}

func TestRecipients_SectorScope_CollapsesDuplicates(t *testing.T) {
	pilot := shared.NewID()
	corpID := shared.NewID()

	// pilot is both present in the sector and a member of the garrison corp.
	w := &fakeWorld{
		present:       map[int][]shared.ID{3: {pilot}},
		garrisonCorps: map[int][]shared.ID{3: {corpID}},
		members:       map[shared.ID][]shared.ID{corpID: {pilot}},
	}
	resolver := newResolver(w, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:     events.ScopeSector,
		SectorID: intPtr(3),
	}, nil)
	require.NoError(t, err)
	assert.Len(t, recipients, 1)
}

func TestRecipients_SectorScope_ExcludesOriginatorUnlessIncluded(t *testing.T) {
	mover := shared.NewID()
	bystander := shared.NewID()
	w := &fakeWorld{present: map[int][]shared.ID{4: {mover, bystander}}}
	resolver := newResolver(w, time.Minute)

	excluded, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:     events.ScopeSector,
		SectorID: intPtr(4),
	}, &mover)
	require.NoError(t, err)
	reasons := reasonsByCharacter(excluded)
	assert.NotContains(t, reasons, mover)
	assert.Contains(t, reasons, bystander)

	included, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:        events.ScopeSector,
		SectorID:    intPtr(4),
		IncludeSelf: true,
	}, &mover)
	require.NoError(t, err)
	reasons = reasonsByCharacter(included)
	assert.Equal(t, events.ReasonSelf, reasons[mover])
}

func TestRecipients_CorpScope_AllMembers(t *testing.T) {
	corpID := shared.NewID()
	a, b := shared.NewID(), shared.NewID()
	w := &fakeWorld{members: map[shared.ID][]shared.ID{corpID: {a, b}}}
	resolver := newResolver(w, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{
		Kind:   events.ScopeCorp,
		CorpID: &corpID,
	}, &a)
	require.NoError(t, err)

	reasons := reasonsByCharacter(recipients)
	require.Len(t, reasons, 2)
	assert.Equal(t, events.ReasonSelf, reasons[a])
	assert.Equal(t, events.ReasonCorp, reasons[b])
}

func TestRecipients_BroadcastScope_EveryOnlineCharacter(t *testing.T) {
	online := []shared.ID{shared.NewID(), shared.NewID(), shared.NewID()}
	resolver := newResolver(&fakeWorld{online: online}, time.Minute)

	recipients, err := resolver.Recipients(context.Background(), events.Scope{Kind: events.ScopeBroadcast}, nil)
	require.NoError(t, err)
	assert.Len(t, recipients, len(online))
}

func TestRecipients_MissingScopeFieldIsValidationError(t *testing.T) {
	resolver := newResolver(&fakeWorld{}, time.Minute)

	_, err := resolver.Recipients(context.Background(), events.Scope{Kind: events.ScopeSector}, nil)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestObserverTopics_ReadThroughCacheWithinTTL(t *testing.T) {
	w := &fakeWorld{channels: map[int][]string{9: {"admin-console"}}}
	resolver := newResolver(w, time.Hour)

	first, err := resolver.ObserverTopics(context.Background(), 9)
	require.NoError(t, err)
	second, err := resolver.ObserverTopics(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{events.ObserverTopic("admin-console")}, first)
	assert.Equal(t, 1, w.channelCalls, "a second lookup inside the TTL must be served from the cache")
}

func intPtr(v int) *int { return &v }
