package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormShipRepository implements world.ShipRepository using GORM.
type GormShipRepository struct {
	db *gorm.DB
}

// NewGormShipRepository creates a new GORM ship repository.
func NewGormShipRepository(db *gorm.DB) *GormShipRepository {
	return &GormShipRepository{db: db}
}

// Create persists a brand new ship instance.
func (r *GormShipRepository) Create(ctx context.Context, s *world.Ship) error {
	model, err := shipToModel(s)
	if err != nil {
		return fmt.Errorf("failed to convert ship to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("failed to create ship: %w", result.Error)
	}
	return nil
}

// FindByID retrieves a ship by id.
func (r *GormShipRepository) FindByID(ctx context.Context, id shared.ID) (*world.Ship, error) {
	var model ShipInstanceModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("ship", id.String())
		}
		return nil, fmt.Errorf("failed to find ship: %w", result.Error)
	}
	return modelToShip(&model)
}

// FindBySector lists every ship currently resident in a sector (not in transit).
func (r *GormShipRepository) FindBySector(ctx context.Context, sectorID int) ([]*world.Ship, error) {
	var models []ShipInstanceModel
	result := r.db.WithContext(ctx).Where("current_sector = ? AND in_transit = ?", sectorID, false).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find ships by sector: %w", result.Error)
	}
	return modelsToShips(models)
}

// FindByOwnerCharacter lists every ship a character owns directly.
func (r *GormShipRepository) FindByOwnerCharacter(ctx context.Context, characterID shared.ID) ([]*world.Ship, error) {
	var models []ShipInstanceModel
	result := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", string(world.OwnerCharacter), characterID.String()).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find ships by owner: %w", result.Error)
	}
	return modelsToShips(models)
}

// Save upserts a ship's current state.
func (r *GormShipRepository) Save(ctx context.Context, s *world.Ship) error {
	model, err := shipToModel(s)
	if err != nil {
		return fmt.Errorf("failed to convert ship to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to save ship: %w", result.Error)
	}
	return nil
}

// Delete removes a ship permanently (destruction cleanup).
func (r *GormShipRepository) Delete(ctx context.Context, id shared.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&ShipInstanceModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete ship: %w", result.Error)
	}
	return nil
}

// CompareAndStartTransit performs the conditional update that prevents a ship
// from being dispatched twice: only flips in_transit when the ship is still
// parked at the expected origin sector.
func (r *GormShipRepository) CompareAndStartTransit(ctx context.Context, shipID shared.ID, expectedSector int, destination, warpCost int, eta time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&ShipInstanceModel{}).
		Where("id = ? AND in_transit = ? AND current_sector = ?", shipID.String(), false, expectedSector).
		Updates(map[string]interface{}{
			"in_transit":     true,
			"current_sector": nil,
			"transit_dest":   destination,
			"transit_eta":    eta,
			"warp_power":     gorm.Expr("warp_power - ?", warpCost),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to start transit: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CompareAndArrive lands a ship whose eta has passed, only if it is still
// marked in transit (guards against double-resumption on restart/tick overlap).
func (r *GormShipRepository) CompareAndArrive(ctx context.Context, shipID shared.ID) (bool, error) {
	var model ShipInstanceModel
	if err := r.db.WithContext(ctx).Where("id = ?", shipID.String()).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to load ship for arrival: %w", err)
	}
	if !model.InTransit || model.TransitDest == nil {
		return false, nil
	}

	result := r.db.WithContext(ctx).Model(&ShipInstanceModel{}).
		Where("id = ? AND in_transit = ?", shipID.String(), true).
		Updates(map[string]interface{}{
			"in_transit":     false,
			"current_sector": *model.TransitDest,
			"transit_dest":   nil,
			"transit_eta":    nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete arrival: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindDueArrivals lists ships in transit whose eta has passed, capped at limit.
func (r *GormShipRepository) FindDueArrivals(ctx context.Context, now time.Time, limit int) ([]*world.Ship, error) {
	var models []ShipInstanceModel
	query := r.db.WithContext(ctx).Where("in_transit = ? AND transit_eta <= ?", true, now)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find due arrivals: %w", result.Error)
	}
	return modelsToShips(models)
}

func modelsToShips(models []ShipInstanceModel) ([]*world.Ship, error) {
	ships := make([]*world.Ship, 0, len(models))
	for i := range models {
		s, err := modelToShip(&models[i])
		if err != nil {
			return nil, err
		}
		ships = append(ships, s)
	}
	return ships, nil
}

func modelToShip(model *ShipInstanceModel) (*world.Ship, error) {
	id, err := shared.ParseID(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid ship id in database: %w", err)
	}

	owner := world.Owner{Kind: world.OwnerKind(model.OwnerKind)}
	if model.OwnerID != nil {
		ownerID, err := shared.ParseID(*model.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("invalid owner id in database: %w", err)
		}
		owner.ID = &ownerID
	}

	var units map[shared.CommodityCode]int
	if model.Cargo != "" {
		if err := json.Unmarshal([]byte(model.Cargo), &units); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cargo: %w", err)
		}
	}
	cargo, err := shared.NewCargo(model.CargoHolds, units)
	if err != nil {
		return nil, fmt.Errorf("invalid cargo in database: %w", err)
	}

	return world.ReconstructShip(
		id, model.TypeID, model.DisplayName, owner,
		model.CurrentSector, model.InTransit, model.TransitDest, model.TransitETA,
		model.Credits, cargo,
		model.WarpPower, model.WarpCapacity, model.Shields, model.MaxShields,
		model.Fighters, model.MaxFighters, model.IsEscapePod,
	)
}

func shipToModel(s *world.Ship) (*ShipInstanceModel, error) {
	cargoJSON, err := json.Marshal(s.Cargo().Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cargo: %w", err)
	}

	owner := s.Owner()
	var ownerID *string
	if owner.ID != nil {
		v := owner.ID.String()
		ownerID = &v
	}

	return &ShipInstanceModel{
		ID:            s.ID().String(),
		TypeID:        s.TypeID(),
		DisplayName:   s.DisplayName(),
		OwnerKind:     string(owner.Kind),
		OwnerID:       ownerID,
		CurrentSector: s.CurrentSector(),
		InTransit:     s.InTransit(),
		TransitDest:   s.TransitDestination(),
		TransitETA:    s.TransitETA(),
		Credits:       s.Credits(),
		Cargo:         string(cargoJSON),
		CargoHolds:    s.Cargo().Holds,
		WarpPower:     s.WarpPower(),
		WarpCapacity:  s.WarpCapacity(),
		Shields:       s.Shields(),
		MaxShields:    s.MaxShields(),
		Fighters:      s.Fighters(),
		MaxFighters:   s.MaxFighters(),
		IsEscapePod:   s.IsEscapePod(),
	}, nil
}
