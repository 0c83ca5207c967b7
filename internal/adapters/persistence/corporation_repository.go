package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

// GormCorporationRepository implements world.CorporationRepository using
// GORM. Membership is stored in a join table (corporation_members) rather
// than a JSON column, mirroring the teacher's preference for normalized
// relational tables over embedded arrays wherever a query might need to
// search by the other side.
type GormCorporationRepository struct {
	db *gorm.DB
}

func NewGormCorporationRepository(db *gorm.DB) *GormCorporationRepository {
	return &GormCorporationRepository{db: db}
}

func (r *GormCorporationRepository) FindByID(ctx context.Context, id shared.ID) (*world.Corporation, error) {
	var model CorporationModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("corporation", id.String())
		}
		return nil, fmt.Errorf("failed to find corporation: %w", result.Error)
	}

	var memberModels []CorporationMemberModel
	if result := r.db.WithContext(ctx).Where("corporation_id = ?", id.String()).Find(&memberModels); result.Error != nil {
		return nil, fmt.Errorf("failed to find corporation members: %w", result.Error)
	}

	members := make([]shared.ID, 0, len(memberModels))
	for _, m := range memberModels {
		memberID, err := shared.ParseID(m.CharacterID)
		if err != nil {
			return nil, fmt.Errorf("invalid member id in database: %w", err)
		}
		members = append(members, memberID)
	}

	return &world.Corporation{ID: id, Name: model.Name, Balance: model.Balance, Members: members}, nil
}

func (r *GormCorporationRepository) Save(ctx context.Context, c *world.Corporation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &CorporationModel{ID: c.ID.String(), Name: c.Name, Balance: c.Balance}
		if err := tx.Save(model).Error; err != nil {
			return fmt.Errorf("failed to save corporation: %w", err)
		}

		if err := tx.Where("corporation_id = ?", c.ID.String()).Delete(&CorporationMemberModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear corporation members: %w", err)
		}

		for _, member := range c.Members {
			row := &CorporationMemberModel{CorporationID: c.ID.String(), CharacterID: member.String()}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to save corporation member: %w", err)
			}
		}

		return nil
	})
}

func (r *GormCorporationRepository) Delete(ctx context.Context, id shared.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("corporation_id = ?", id.String()).Delete(&CorporationMemberModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete corporation members: %w", err)
		}
		if err := tx.Where("corporation_id = ?", id.String()).Delete(&CorporationShipModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete corporation ships: %w", err)
		}
		if err := tx.Where("id = ?", id.String()).Delete(&CorporationModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete corporation: %w", err)
		}
		return nil
	})
}
