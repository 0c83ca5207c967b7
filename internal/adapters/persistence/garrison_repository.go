package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormGarrisonRepository implements world.GarrisonRepository using GORM.
type GormGarrisonRepository struct {
	db *gorm.DB
}

func NewGormGarrisonRepository(db *gorm.DB) *GormGarrisonRepository {
	return &GormGarrisonRepository{db: db}
}

func (r *GormGarrisonRepository) FindBySector(ctx context.Context, sectorID int) ([]*world.Garrison, error) {
	var models []GarrisonModel
	if result := r.db.WithContext(ctx).Where("sector_id = ?", sectorID).Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find garrisons by sector: %w", result.Error)
	}
	out := make([]*world.Garrison, 0, len(models))
	for i := range models {
		g, err := garrisonModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *GormGarrisonRepository) FindByKey(ctx context.Context, sectorID int, owner shared.ID) (*world.Garrison, error) {
	var model GarrisonModel
	result := r.db.WithContext(ctx).Where("sector_id = ? AND owner_character = ?", sectorID, owner.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("garrison", fmt.Sprintf("%d/%s", sectorID, owner.String()))
		}
		return nil, fmt.Errorf("failed to find garrison: %w", result.Error)
	}
	return garrisonModelToDomain(&model)
}

func (r *GormGarrisonRepository) FindByOwner(ctx context.Context, owner shared.ID) ([]*world.Garrison, error) {
	var models []GarrisonModel
	if result := r.db.WithContext(ctx).Where("owner_character = ?", owner.String()).Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find garrisons by owner: %w", result.Error)
	}
	out := make([]*world.Garrison, 0, len(models))
	for i := range models {
		g, err := garrisonModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *GormGarrisonRepository) Save(ctx context.Context, g *world.Garrison) error {
	model := garrisonToModel(g)
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to save garrison: %w", result.Error)
	}
	return nil
}

func (r *GormGarrisonRepository) Delete(ctx context.Context, sectorID int, owner shared.ID) error {
	result := r.db.WithContext(ctx).
		Where("sector_id = ? AND owner_character = ?", sectorID, owner.String()).
		Delete(&GarrisonModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete garrison: %w", result.Error)
	}
	return nil
}

func garrisonModelToDomain(model *GarrisonModel) (*world.Garrison, error) {
	owner, err := shared.ParseID(model.OwnerCharacter)
	if err != nil {
		return nil, fmt.Errorf("invalid owner_character in database: %w", err)
	}
	g, err := world.NewGarrison(model.SectorID, owner, model.Fighters, world.GarrisonMode(model.Mode), model.TollAmount, model.DeployedAt)
	if err != nil {
		return nil, err
	}
	g.TollBalance = model.TollBalance
	return g, nil
}

func garrisonToModel(g *world.Garrison) *GarrisonModel {
	return &GarrisonModel{
		SectorID:       g.SectorID,
		OwnerCharacter: g.OwnerCharacter.String(),
		Fighters:       g.Fighters,
		Mode:           string(g.Mode),
		TollAmount:     g.TollAmount,
		TollBalance:    g.TollBalance,
		DeployedAt:     g.DeployedAt,
	}
}
