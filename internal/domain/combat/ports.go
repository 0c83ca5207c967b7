package combat

import (
	"context"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// EncounterRepository persists Encounter state between resolutions.
// Concurrency is optimistic on (last_updated, round): Save fails with a
// ConflictError if the stored row's round no longer matches expectedRound,
// so a racing tick and action-handler resolve at most once between them —
// the loser re-reads and retries at most once, dropping its work if the
// round has already advanced (§5).
type EncounterRepository interface {
	Create(ctx context.Context, e *Encounter) error
	FindByID(ctx context.Context, id shared.ID) (*Encounter, error)
	FindActiveBySector(ctx context.Context, sectorID int) (*Encounter, error)
	Save(ctx context.Context, e *Encounter, expectedRound int) error

	// FindDueForResolution lists un-ended encounters whose deadline has
	// passed, for the tick loop, in batches of at most limit.
	FindDueForResolution(ctx context.Context, now time.Time, limit int) ([]*Encounter, error)
}

// ErrRoundAdvanced is returned by Save when expectedRound no longer matches
// the persisted round — the caller lost the optimistic-concurrency race.
var ErrRoundAdvanced = shared.NewConflictError("encounter round has already advanced")
