package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormShipDefinitionRepository implements world.ShipDefinitionRepository using
// GORM. Ship definitions are seed data: read-mostly, rarely written outside
// of universe bootstrap.
type GormShipDefinitionRepository struct {
	db *gorm.DB
}

func NewGormShipDefinitionRepository(db *gorm.DB) *GormShipDefinitionRepository {
	return &GormShipDefinitionRepository{db: db}
}

func (r *GormShipDefinitionRepository) FindByTypeID(ctx context.Context, typeID string) (*world.ShipDefinition, error) {
	var model ShipDefinitionModel
	result := r.db.WithContext(ctx).Where("type_id = ?", typeID).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("ship_definition", typeID)
		}
		return nil, fmt.Errorf("failed to find ship definition: %w", result.Error)
	}
	return shipDefinitionModelToDomain(&model), nil
}

func (r *GormShipDefinitionRepository) List(ctx context.Context) ([]*world.ShipDefinition, error) {
	var models []ShipDefinitionModel
	if result := r.db.WithContext(ctx).Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to list ship definitions: %w", result.Error)
	}
	out := make([]*world.ShipDefinition, 0, len(models))
	for i := range models {
		out = append(out, shipDefinitionModelToDomain(&models[i]))
	}
	return out, nil
}

func shipDefinitionModelToDomain(model *ShipDefinitionModel) *world.ShipDefinition {
	return &world.ShipDefinition{
		TypeID:          model.TypeID,
		DisplayName:     model.DisplayName,
		WarpCost:        model.WarpCost,
		WarpCapacity:    model.WarpCapacity,
		ShieldCapacity:  model.ShieldCapacity,
		FighterCapacity: model.FighterCapacity,
		CargoHolds:      model.CargoHolds,
		PurchasePrice:   model.PurchasePrice,
		TurnsPerWarp:    model.TurnsPerWarp,
		IsEscapePod:     model.IsEscapePod,
	}
}

// GormSectorRepository implements world.SectorRepository using GORM. The
// warp graph is seed data loaded once at startup by sectorgraph.
type GormSectorRepository struct {
	db *gorm.DB
}

func NewGormSectorRepository(db *gorm.DB) *GormSectorRepository {
	return &GormSectorRepository{db: db}
}

func (r *GormSectorRepository) FindByID(ctx context.Context, id int) (*world.Sector, error) {
	var model UniverseStructureModel
	result := r.db.WithContext(ctx).Where("sector_id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("sector", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to find sector: %w", result.Error)
	}
	return sectorModelToDomain(&model)
}

func (r *GormSectorRepository) List(ctx context.Context) ([]*world.Sector, error) {
	var models []UniverseStructureModel
	if result := r.db.WithContext(ctx).Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", result.Error)
	}
	out := make([]*world.Sector, 0, len(models))
	for i := range models {
		s, err := sectorModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func sectorModelToDomain(model *UniverseStructureModel) (*world.Sector, error) {
	var edges []world.WarpEdge
	if model.Edges != "" {
		if err := json.Unmarshal([]byte(model.Edges), &edges); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sector edges: %w", err)
		}
	}
	return world.NewSector(model.SectorID, model.X, model.Y, model.Region, edges)
}
