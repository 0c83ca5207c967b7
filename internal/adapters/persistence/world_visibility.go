package persistence

import (
	"context"
	"time"

	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// WorldVisibilitySource implements events.SectorOccupancy, events.CorpMembership,
// and events.OnlineRoster over world.Store, keeping the events package free
// of a direct dependency on world per its ports.go doc comment.
type WorldVisibilitySource struct {
	store        *world.Store
	clock        shared.Clock
	onlineWindow time.Duration
}

// NewWorldVisibilitySource builds the adapter. onlineWindow bounds how
// recently a character's LastActive must fall to count as online for
// broadcast-scope events; chosen at 5 minutes, generous enough that a
// player mid-combat round isn't dropped from their own broadcast audience.
func NewWorldVisibilitySource(store *world.Store, clock shared.Clock, onlineWindow time.Duration) *WorldVisibilitySource {
	if onlineWindow <= 0 {
		onlineWindow = 5 * time.Minute
	}
	return &WorldVisibilitySource{store: store, clock: clock, onlineWindow: onlineWindow}
}

// CharactersInSector lists the characters whose ship currently sits
// (not in transit) in sectorID.
func (w *WorldVisibilitySource) CharactersInSector(ctx context.Context, sectorID int) ([]shared.ID, error) {
	ships, err := w.store.Ships.FindBySector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	ids := make([]shared.ID, 0, len(ships))
	for _, ship := range ships {
		if ship.InTransit() {
			continue
		}
		if owner := ship.Owner(); owner.Kind == world.OwnerCharacter && owner.ID != nil {
			ids = append(ids, *owner.ID)
		}
	}
	return ids, nil
}

// GarrisonCorporationsInSector lists the corporation of the owning character
// of every garrison deployed in sectorID. Garrisons are owned by a character, not a
// corporation, so ReasonCorp scoping treats the owner's corp (if any) as the
// garrison's corporation.
func (w *WorldVisibilitySource) GarrisonCorporationsInSector(ctx context.Context, sectorID int) ([]shared.ID, error) {
	garrisons, err := w.store.Garrisons.FindBySector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	corps := make([]shared.ID, 0, len(garrisons))
	for _, g := range garrisons {
		owner, err := w.store.Characters.FindByID(ctx, g.OwnerCharacter)
		if err != nil {
			continue // owner deleted out from under the garrison; skip
		}
		if corpID := owner.CorporationID(); corpID != nil {
			corps = append(corps, *corpID)
		}
	}
	return corps, nil
}

// Members lists a corporation's current roster.
func (w *WorldVisibilitySource) Members(ctx context.Context, corpID shared.ID) ([]shared.ID, error) {
	corp, err := w.store.Corporations.FindByID(ctx, corpID)
	if err != nil {
		return nil, err
	}
	return corp.Members, nil
}

// IsMember reports whether characterID belongs to corpID.
func (w *WorldVisibilitySource) IsMember(ctx context.Context, corpID shared.ID, characterID shared.ID) (bool, error) {
	corp, err := w.store.Corporations.FindByID(ctx, corpID)
	if err != nil {
		return false, err
	}
	return corp.HasMember(characterID), nil
}

// OnlineCharacters lists every character active within the configured
// window, the broadcast-scope audience.
func (w *WorldVisibilitySource) OnlineCharacters(ctx context.Context) ([]shared.ID, error) {
	since := w.clock.Now().Add(-w.onlineWindow)
	characters, err := w.store.Characters.FindActiveSince(ctx, since)
	if err != nil {
		return nil, err
	}
	ids := make([]shared.ID, 0, len(characters))
	for _, c := range characters {
		ids = append(ids, c.ID())
	}
	return ids, nil
}

// ObserverChannels returns sectorID's registered observer channels.
func (w *WorldVisibilitySource) ObserverChannels(ctx context.Context, sectorID int) ([]string, error) {
	contents, err := w.store.SectorContents.FindBySector(ctx, sectorID)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return contents.ObserverChannels, nil
}

var (
	_ events.SectorOccupancy       = (*WorldVisibilitySource)(nil)
	_ events.CorpMembership        = (*WorldVisibilitySource)(nil)
	_ events.OnlineRoster          = (*WorldVisibilitySource)(nil)
	_ events.ObserverChannelSource = (*WorldVisibilitySource)(nil)
)
