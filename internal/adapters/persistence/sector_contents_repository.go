package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormSectorContentsRepository implements world.SectorContentsRepository
// using GORM, persisting only the mutable per-sector bundle (observer
// channels and the active combat reference) — port and salvage live in their
// own tables and repositories.
type GormSectorContentsRepository struct {
	db *gorm.DB
}

func NewGormSectorContentsRepository(db *gorm.DB) *GormSectorContentsRepository {
	return &GormSectorContentsRepository{db: db}
}

func (r *GormSectorContentsRepository) FindBySector(ctx context.Context, sectorID int) (*world.SectorContents, error) {
	var model SectorContentsModel
	result := r.db.WithContext(ctx).Where("sector_id = ?", sectorID).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return world.NewSectorContents(sectorID), nil
		}
		return nil, fmt.Errorf("failed to find sector contents: %w", result.Error)
	}
	return sectorContentsModelToDomain(&model)
}

func (r *GormSectorContentsRepository) Save(ctx context.Context, c *world.SectorContents) error {
	model, err := sectorContentsToModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert sector contents to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to save sector contents: %w", result.Error)
	}
	return nil
}

func sectorContentsModelToDomain(model *SectorContentsModel) (*world.SectorContents, error) {
	c := world.NewSectorContents(model.SectorID)
	if model.ObserverChannels != "" {
		if err := json.Unmarshal([]byte(model.ObserverChannels), &c.ObserverChannels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal observer channels: %w", err)
		}
	}
	if model.ActiveCombatID != nil {
		id, err := shared.ParseID(*model.ActiveCombatID)
		if err != nil {
			return nil, fmt.Errorf("invalid active_combat_id in database: %w", err)
		}
		c.ActiveCombatID = &id
	}
	return c, nil
}

func sectorContentsToModel(c *world.SectorContents) (*SectorContentsModel, error) {
	channelsJSON, err := json.Marshal(c.ObserverChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal observer channels: %w", err)
	}
	var activeCombatID *string
	if c.ActiveCombatID != nil {
		v := c.ActiveCombatID.String()
		activeCombatID = &v
	}
	return &SectorContentsModel{
		SectorID:         c.SectorID,
		ObserverChannels: string(channelsJSON),
		ActiveCombatID:   activeCombatID,
	}, nil
}
