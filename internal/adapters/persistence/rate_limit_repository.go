package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// GormRateLimitStore implements common.RateLimitStore using GORM: a
// fixed-window counter per (character, method), advanced under a row lock so
// concurrent requests from the same character serialize on the check.
type GormRateLimitStore struct {
	db *gorm.DB
}

func NewGormRateLimitStore(db *gorm.DB) *GormRateLimitStore {
	return &GormRateLimitStore{db: db}
}

// CheckAndIncrement admits the call if fewer than max calls have landed in
// the current window; otherwise it reports how long until the window rolls.
func (s *GormRateLimitStore) CheckAndIncrement(ctx context.Context, characterID shared.ID, method string, max int, window time.Duration) (allowed bool, retryAfter time.Duration, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RateLimitModel
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("character_id = ? AND method = ?", characterID.String(), method).
			First(&model)

		now := time.Now()
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return fmt.Errorf("failed to load rate limit row: %w", result.Error)
			}
			model = RateLimitModel{CharacterID: characterID.String(), Method: method, WindowStart: now, Count: 1}
			allowed = true
			return tx.Create(&model).Error
		}

		elapsed := now.Sub(model.WindowStart)
		if elapsed >= window {
			model.WindowStart = now
			model.Count = 1
			allowed = true
			return tx.Save(&model).Error
		}

		if model.Count >= max {
			allowed = false
			retryAfter = window - elapsed
			return nil
		}

		model.Count++
		allowed = true
		return tx.Save(&model).Error
	})
	return allowed, retryAfter, err
}
