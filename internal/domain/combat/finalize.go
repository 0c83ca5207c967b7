package combat

import (
	"context"
	"fmt"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// EscapePodTypeID is the well-known ship definition issued to a character
// whose non-escape-pod ship is destroyed in combat.
const EscapePodTypeID = "escape_pod"

// Finalizer carries out the world mutations a resolved round implies:
// teleporting ships that successfully fled, and — for destroyed ships —
// generating salvage and reissuing a fresh escape pod to the owning
// character (SPEC_FULL §11 decision 4). Combatant ids are ship ids; garrison
// combatants have no corresponding Ship and are skipped here.
type Finalizer struct {
	store         *world.Store
	scrapFraction float64 // fraction of a destroyed ship's credits salvaged
	salvageTTL    time.Duration
}

func NewFinalizer(store *world.Store, scrapFraction float64, salvageTTL time.Duration) *Finalizer {
	if scrapFraction <= 0 {
		scrapFraction = 0.5
	}
	if salvageTTL <= 0 {
		salvageTTL = 24 * time.Hour
	}
	return &Finalizer{store: store, scrapFraction: scrapFraction, salvageTTL: salvageTTL}
}

// Finalize applies outcome's fled/destroyed side effects against WorldStore.
func (f *Finalizer) Finalize(ctx context.Context, e *Encounter, outcome *Outcome, now time.Time) error {
	for shipID, destSector := range outcome.Fled {
		if err := f.teleport(ctx, shipID, destSector); err != nil {
			return fmt.Errorf("teleporting fled ship %s: %w", shipID.String(), err)
		}
	}

	for _, combatant := range outcome.Destroyed {
		if err := f.destroyShip(ctx, combatant.ID, combatant, e.SectorID, now); err != nil {
			return fmt.Errorf("finalizing destroyed ship %s: %w", combatant.ID.String(), err)
		}
	}

	return nil
}

func (f *Finalizer) teleport(ctx context.Context, shipID shared.ID, destSector int) error {
	ship, err := f.store.Ships.FindByID(ctx, shipID)
	if err != nil {
		return err
	}
	ship.TeleportTo(destSector)
	return f.store.Ships.Save(ctx, ship)
}

func (f *Finalizer) destroyShip(ctx context.Context, shipID shared.ID, combatant *CombatantState, sectorID int, now time.Time) error {
	ship, err := f.store.Ships.FindByID(ctx, shipID)
	if err != nil {
		return err
	}
	ownerID := ship.Owner().ID
	cargo := ship.Cargo().Snapshot()
	scrap := int(float64(ship.Credits()) * f.scrapFraction)
	credits := ship.Credits() - scrap

	salvage, err := world.NewSalvage(sectorID, cargo, scrap, credits, now, now.Add(f.salvageTTL))
	if err != nil {
		return err
	}
	if err := f.store.Salvage.Save(ctx, salvage); err != nil {
		return err
	}

	if err := f.store.Ships.Delete(ctx, ship.ID()); err != nil {
		return err
	}

	if ownerID == nil {
		return nil
	}

	def, err := f.store.ShipDefs.FindByTypeID(ctx, EscapePodTypeID)
	if err != nil {
		return fmt.Errorf("loading escape pod definition: %w", err)
	}
	pod, err := world.NewShip(shared.NewID(), EscapePodTypeID, combatant.DisplayName+"'s Escape Pod", world.CharacterOwner(*ownerID), sectorID, def)
	if err != nil {
		return err
	}
	if err := f.store.Ships.Create(ctx, pod); err != nil {
		return err
	}

	character, err := f.store.Characters.FindByID(ctx, *ownerID)
	if err != nil {
		return err
	}
	character.AssignShip(pod.ID())
	return f.store.Characters.Save(ctx, character)
}
