package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormPortRepository implements world.PortRepository using GORM.
type GormPortRepository struct {
	db *gorm.DB
}

func NewGormPortRepository(db *gorm.DB) *GormPortRepository {
	return &GormPortRepository{db: db}
}

func (r *GormPortRepository) FindBySector(ctx context.Context, sectorID int) (*world.Port, error) {
	var model PortModel
	result := r.db.WithContext(ctx).Where("sector_id = ?", sectorID).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("port", fmt.Sprintf("%d", sectorID))
		}
		return nil, fmt.Errorf("failed to find port: %w", result.Error)
	}
	return portModelToDomain(&model)
}

func (r *GormPortRepository) Save(ctx context.Context, p *world.Port) error {
	model, err := portToModel(p)
	if err != nil {
		return fmt.Errorf("failed to convert port to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to save port: %w", result.Error)
	}
	return nil
}

func portModelToDomain(model *PortModel) (*world.Port, error) {
	var capacity, stock [3]int
	if err := json.Unmarshal([]byte(model.Capacity), &capacity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal port capacity: %w", err)
	}
	if err := json.Unmarshal([]byte(model.Stock), &stock); err != nil {
		return nil, fmt.Errorf("failed to unmarshal port stock: %w", err)
	}
	return world.NewPort(model.SectorID, model.Code, capacity, stock)
}

func portToModel(p *world.Port) (*PortModel, error) {
	capacityJSON, err := json.Marshal(p.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal port capacity: %w", err)
	}
	stockJSON, err := json.Marshal(p.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal port stock: %w", err)
	}
	return &PortModel{
		SectorID: p.SectorID,
		Code:     p.CodeString(),
		Capacity: string(capacityJSON),
		Stock:    string(stockJSON),
	}, nil
}
