package events

import (
	"context"
	"sync"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// observerCacheEntry is one sector's cached channel list plus its expiry.
type observerCacheEntry struct {
	channels []string
	expires  time.Time
}

// VisibilityResolver computes, for a given Scope, the set of characters that
// should receive an event plus the reason each was included. Mirrors the
// two-tier sync.Map + TTL pattern used elsewhere for read-through caching,
// with one tier: only observer-channel lookups are cached, collapsing
// repeated sector lookups against ObserverChannelSource within the TTL
// window. Occupancy, corporation membership and the online roster are read
// from their ports on every call.
type VisibilityResolver struct {
	occupancy  SectorOccupancy
	membership CorpMembership
	roster     OnlineRoster
	observers  ObserverChannelSource

	observerCache sync.Map // key: int(sectorID) -> *observerCacheEntry
	cacheTTL      time.Duration
	now           func() time.Time
}

func NewVisibilityResolver(
	occupancy SectorOccupancy,
	membership CorpMembership,
	roster OnlineRoster,
	observers ObserverChannelSource,
	cacheTTL time.Duration,
) *VisibilityResolver {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &VisibilityResolver{
		occupancy:  occupancy,
		membership: membership,
		roster:     roster,
		observers:  observers,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// Recipients computes the deduplicated (character, reason) set for scope,
// given the originating actor (nil for system-originated events).
func (v *VisibilityResolver) Recipients(ctx context.Context, scope Scope, originator *shared.ID) ([]Recipient, error) {
	switch scope.Kind {
	case ScopeCharacter:
		if scope.CharacterID == nil {
			return nil, shared.NewValidationError("character_id", "required for character scope")
		}
		reason := ReasonRecipient
		if originator != nil && originator.Equals(*scope.CharacterID) {
			reason = ReasonSelf
		}
		out := []Recipient{{CharacterID: *scope.CharacterID, Reason: reason}}
		// A direct event from one character to another (chat.message) also
		// lands in the sender's own log, so both sides see the exchange.
		if scope.IncludeSelf && originator != nil && !originator.Equals(*scope.CharacterID) {
			out = append(out, Recipient{CharacterID: *originator, Reason: ReasonSender})
		}
		return out, nil

	case ScopeCorp:
		if scope.CorpID == nil {
			return nil, shared.NewValidationError("corp_id", "required for corp scope")
		}
		members, err := v.membership.Members(ctx, *scope.CorpID)
		if err != nil {
			return nil, err
		}
		out := make([]Recipient, 0, len(members))
		for _, m := range members {
			reason := ReasonCorp
			if originator != nil && originator.Equals(m) {
				reason = ReasonSelf
			}
			out = append(out, Recipient{CharacterID: m, Reason: reason})
		}
		return out, nil

	case ScopeBroadcast:
		online, err := v.roster.OnlineCharacters(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Recipient, 0, len(online))
		for _, id := range online {
			out = append(out, Recipient{CharacterID: id, Reason: ReasonRecipient})
		}
		return out, nil

	case ScopeSector:
		return v.sectorRecipients(ctx, scope, originator)

	default:
		return nil, shared.NewValidationError("scope", "unknown scope kind")
	}
}

func (v *VisibilityResolver) sectorRecipients(ctx context.Context, scope Scope, originator *shared.ID) ([]Recipient, error) {
	if scope.SectorID == nil {
		return nil, shared.NewValidationError("sector_id", "required for sector scope")
	}
	sectorID := *scope.SectorID

	seen := map[shared.ID]RecipientReason{}
	add := func(id shared.ID, reason RecipientReason) {
		if originator != nil && id.Equals(*originator) {
			if !scope.IncludeSelf {
				return
			}
			reason = ReasonSelf
		}
		if _, ok := seen[id]; !ok {
			seen[id] = reason
		}
	}

	present, err := v.occupancy.CharactersInSector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	for _, id := range present {
		add(id, ReasonSector)
	}

	corps, err := v.occupancy.GarrisonCorporationsInSector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	for _, corpID := range corps {
		members, err := v.membership.Members(ctx, corpID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			add(m, ReasonSector)
		}
	}

	channels, err := v.observerChannels(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	_ = channels // observer channels publish to their own topic, not per-character rows

	out := make([]Recipient, 0, len(seen))
	for id, reason := range seen {
		out = append(out, Recipient{CharacterID: id, Reason: reason})
	}
	return out, nil
}

// observerChannels returns the sector's registered observer channels,
// read through a TTL cache (default 30s) so a burst of sector events doesn't
// re-hit the source on every call.
func (v *VisibilityResolver) observerChannels(ctx context.Context, sectorID int) ([]string, error) {
	now := v.now()
	if cached, ok := v.observerCache.Load(sectorID); ok {
		entry := cached.(*observerCacheEntry)
		if now.Before(entry.expires) {
			return entry.channels, nil
		}
	}

	channels, err := v.observers.ObserverChannels(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	v.observerCache.Store(sectorID, &observerCacheEntry{channels: channels, expires: now.Add(v.cacheTTL)})
	return channels, nil
}

// ObserverTopics returns the distinct observer topics a sector event should
// additionally publish to (a stale read here may miss a newly joined
// observer for up to the cache TTL, which is acceptable per spec).
func (v *VisibilityResolver) ObserverTopics(ctx context.Context, sectorID int) ([]string, error) {
	channels, err := v.observerChannels(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(channels))
	for _, c := range channels {
		topics = append(topics, ObserverTopic(c))
	}
	return topics, nil
}
