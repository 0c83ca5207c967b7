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

// GormCharacterRepository implements world.CharacterRepository using GORM.
type GormCharacterRepository struct {
	db *gorm.DB
}

// NewGormCharacterRepository creates a new GORM character repository.
func NewGormCharacterRepository(db *gorm.DB) *GormCharacterRepository {
	return &GormCharacterRepository{db: db}
}

// Create persists a brand new character.
func (r *GormCharacterRepository) Create(ctx context.Context, c *world.Character) error {
	model, err := characterToModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert character to model: %w", err)
	}

	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("failed to create character: %w", result.Error)
	}
	return nil
}

// FindByID retrieves a character by id.
func (r *GormCharacterRepository) FindByID(ctx context.Context, id shared.ID) (*world.Character, error) {
	var model CharacterModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("character", id.String())
		}
		return nil, fmt.Errorf("failed to find character: %w", result.Error)
	}
	return modelToCharacter(&model)
}

// FindByDisplayName retrieves a character by display name, case-insensitively.
func (r *GormCharacterRepository) FindByDisplayName(ctx context.Context, displayName string) (*world.Character, error) {
	var model CharacterModel
	result := r.db.WithContext(ctx).Where("LOWER(display_name) = LOWER(?)", displayName).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, shared.NewNotFoundError("character", displayName)
		}
		return nil, fmt.Errorf("failed to find character: %w", result.Error)
	}
	return modelToCharacter(&model)
}

// Save upserts a character's current state.
func (r *GormCharacterRepository) Save(ctx context.Context, c *world.Character) error {
	model, err := characterToModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert character to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to save character: %w", result.Error)
	}
	return nil
}

// Delete removes a character permanently.
func (r *GormCharacterRepository) Delete(ctx context.Context, id shared.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&CharacterModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete character: %w", result.Error)
	}
	return nil
}

// FindActiveSince lists characters active at or after since, newest first.
func (r *GormCharacterRepository) FindActiveSince(ctx context.Context, since time.Time) ([]*world.Character, error) {
	var models []CharacterModel
	if result := r.db.WithContext(ctx).Where("last_active >= ?", since).Order("last_active DESC").Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find active characters: %w", result.Error)
	}

	characters := make([]*world.Character, 0, len(models))
	for i := range models {
		c, err := modelToCharacter(&models[i])
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, nil
}

func modelToCharacter(model *CharacterModel) (*world.Character, error) {
	id, err := shared.ParseID(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid character id in database: %w", err)
	}

	var currentShipID *shared.ID
	if model.CurrentShipID != nil {
		parsed, err := shared.ParseID(*model.CurrentShipID)
		if err != nil {
			return nil, fmt.Errorf("invalid current_ship_id in database: %w", err)
		}
		currentShipID = &parsed
	}

	var corporationID *shared.ID
	if model.CorporationID != nil {
		parsed, err := shared.ParseID(*model.CorporationID)
		if err != nil {
			return nil, fmt.Errorf("invalid corporation_id in database: %w", err)
		}
		corporationID = &parsed
	}

	knowledge := world.NewMapKnowledge(model.ID)
	if model.Knowledge != "" {
		if err := json.Unmarshal([]byte(model.Knowledge), knowledge); err != nil {
			return nil, fmt.Errorf("failed to unmarshal knowledge: %w", err)
		}
	}

	var metadata map[string]interface{}
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			metadata = nil
		}
	}

	return world.ReconstructCharacter(
		id,
		model.DisplayName,
		currentShipID,
		model.BankBalance,
		corporationID,
		knowledge,
		model.LastActive,
		model.IsNPC,
		metadata,
	)
}

func characterToModel(c *world.Character) (*CharacterModel, error) {
	knowledgeJSON, err := json.Marshal(c.Knowledge())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal knowledge: %w", err)
	}

	var metadataJSON string
	if c.Metadata() != nil {
		b, err := json.Marshal(c.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(b)
	} else {
		metadataJSON = "{}"
	}

	var currentShipID *string
	if s := c.CurrentShipID(); s != nil {
		v := s.String()
		currentShipID = &v
	}

	var corporationID *string
	if corp := c.CorporationID(); corp != nil {
		v := corp.String()
		corporationID = &v
	}

	return &CharacterModel{
		ID:            c.ID().String(),
		DisplayName:   c.DisplayName(),
		CurrentShipID: currentShipID,
		BankBalance:   c.BankBalance(),
		CorporationID: corporationID,
		Knowledge:     string(knowledgeJSON),
		LastActive:    c.LastActive(),
		IsNPC:         c.IsNPC(),
		Metadata:      metadataJSON,
	}, nil
}
