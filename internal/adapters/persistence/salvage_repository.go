package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormSalvageRepository implements world.SalvageRepository using GORM.
type GormSalvageRepository struct {
	db *gorm.DB
}

func NewGormSalvageRepository(db *gorm.DB) *GormSalvageRepository {
	return &GormSalvageRepository{db: db}
}

func (r *GormSalvageRepository) FindBySector(ctx context.Context, sectorID int) ([]*world.Salvage, error) {
	var models []SalvageModel
	if result := r.db.WithContext(ctx).Where("sector_id = ?", sectorID).Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find salvage by sector: %w", result.Error)
	}
	out := make([]*world.Salvage, 0, len(models))
	for i := range models {
		s, err := salvageModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *GormSalvageRepository) FindByID(ctx context.Context, id shared.ID) (*world.Salvage, error) {
	var model SalvageModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("salvage", id.String())
		}
		return nil, fmt.Errorf("failed to find salvage: %w", result.Error)
	}
	return salvageModelToDomain(&model)
}

func (r *GormSalvageRepository) Save(ctx context.Context, s *world.Salvage) error {
	model, err := salvageToModel(s)
	if err != nil {
		return fmt.Errorf("failed to convert salvage to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to save salvage: %w", result.Error)
	}
	return nil
}

func (r *GormSalvageRepository) Delete(ctx context.Context, id shared.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&SalvageModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete salvage: %w", result.Error)
	}
	return nil
}

func salvageModelToDomain(model *SalvageModel) (*world.Salvage, error) {
	id, err := shared.ParseID(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid salvage id in database: %w", err)
	}
	var cargo map[shared.CommodityCode]int
	if model.Cargo != "" {
		if err := json.Unmarshal([]byte(model.Cargo), &cargo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal salvage cargo: %w", err)
		}
	}
	return &world.Salvage{
		ID:        id,
		SectorID:  model.SectorID,
		Cargo:     cargo,
		Scrap:     model.Scrap,
		Credits:   model.Credits,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
		Claimed:   model.Claimed,
	}, nil
}

func salvageToModel(s *world.Salvage) (*SalvageModel, error) {
	cargoJSON, err := json.Marshal(s.Cargo)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal salvage cargo: %w", err)
	}
	return &SalvageModel{
		ID:        s.ID.String(),
		SectorID:  s.SectorID,
		Cargo:     string(cargoJSON),
		Scrap:     s.Scrap,
		Credits:   s.Credits,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Claimed:   s.Claimed,
	}, nil
}
