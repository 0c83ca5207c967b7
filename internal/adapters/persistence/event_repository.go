package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// GormEventRepository implements events.LogRepository using GORM: an
// append-only log table plus a recipient fan-out table, written together in
// one transaction per the teacher's pattern of wrapping multi-table writes.
type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append allocates a monotonic id (the autoincrement primary key), persists
// the record and its recipient rows in one transaction.
func (r *GormEventRepository) Append(ctx context.Context, record *events.EventRecord, recipients []events.Recipient) (int64, error) {
	model, err := eventToModel(record)
	if err != nil {
		return 0, fmt.Errorf("failed to convert event to model: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
		for _, recipient := range recipients {
			row := &EventCharacterRecipientModel{
				EventID:     model.ID,
				CharacterID: recipient.CharacterID.String(),
				Reason:      string(recipient.Reason),
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to append event recipient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return model.ID, nil
}

// Query supports event_query: events delivered to filter.CharacterID (every
// event when AdminNoScope is set), optionally narrowed by sector, by
// originators in a corporation, and by ids after Since; newest first,
// bounded by limit.
func (r *GormEventRepository) Query(ctx context.Context, filter events.QueryFilter) ([]*events.EventRecord, error) {
	query := r.db.WithContext(ctx).Model(&EventModel{})

	if !filter.AdminNoScope {
		query = query.Joins("JOIN event_character_recipients ON event_character_recipients.event_id = events.id").
			Where("event_character_recipients.character_id = ?", filter.CharacterID.String())
	}
	if filter.SectorID != nil {
		query = query.Where("events.sector_id = ?", *filter.SectorID)
	}
	if filter.CorpID != nil {
		query = query.Where("events.originator IN (SELECT character_id FROM corporation_members WHERE corporation_id = ?)", filter.CorpID.String())
	}
	if filter.Since != nil {
		query = query.Where("events.id > ?", *filter.Since)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query = query.Order("events.id DESC").Limit(limit)

	var models []EventModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to query events: %w", result.Error)
	}

	out := make([]*events.EventRecord, 0, len(models))
	for i := range models {
		record, err := modelToEvent(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func eventToModel(record *events.EventRecord) (*EventModel, error) {
	payloadJSON, err := json.Marshal(record.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	var metaJSON string
	if record.Meta != nil {
		b, err := json.Marshal(record.Meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event meta: %w", err)
		}
		metaJSON = string(b)
	}

	var originator *string
	if record.Originator != nil {
		v := record.Originator.String()
		originator = &v
	}

	var shipID *string
	if record.ShipID != nil {
		v := record.ShipID.String()
		shipID = &v
	}

	return &EventModel{
		ID:         record.ID,
		Direction:  string(record.Direction),
		Type:       record.Type,
		Payload:    string(payloadJSON),
		Timestamp:  record.Timestamp,
		Originator: originator,
		SectorID:   record.SectorID,
		ShipID:     shipID,
		RequestID:  record.RequestID,
		Meta:       metaJSON,
	}, nil
}

func modelToEvent(model *EventModel) (*events.EventRecord, error) {
	var payload map[string]any
	if model.Payload != "" {
		if err := json.Unmarshal([]byte(model.Payload), &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
	}

	var meta map[string]any
	if model.Meta != "" {
		if err := json.Unmarshal([]byte(model.Meta), &meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event meta: %w", err)
		}
	}

	var originator *shared.ID
	if model.Originator != nil {
		id, err := shared.ParseID(*model.Originator)
		if err != nil {
			return nil, fmt.Errorf("invalid originator in database: %w", err)
		}
		originator = &id
	}

	var shipID *shared.ID
	if model.ShipID != nil {
		id, err := shared.ParseID(*model.ShipID)
		if err != nil {
			return nil, fmt.Errorf("invalid ship_id in database: %w", err)
		}
		shipID = &id
	}

	return &events.EventRecord{
		ID:         model.ID,
		Direction:  events.Direction(model.Direction),
		Type:       model.Type,
		Payload:    payload,
		Timestamp:  model.Timestamp,
		Originator: originator,
		SectorID:   model.SectorID,
		ShipID:     shipID,
		RequestID:  model.RequestID,
		Meta:       meta,
	}, nil
}
