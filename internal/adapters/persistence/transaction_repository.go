package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/domain/ledger"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	model, err := transactionToModel(transaction)
	if err != nil {
		return fmt.Errorf("failed to convert transaction to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}
	return nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id ledger.TransactionID, characterID shared.ID) (*ledger.Transaction, error) {
	var model TransactionModel
	result := r.db.WithContext(ctx).
		Where("id = ? AND character_id = ?", id.Value(), characterID.String()).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &ledger.ErrTransactionNotFound{ID: id.Value(), CharacterID: characterID.String()}
		}
		return nil, fmt.Errorf("failed to find transaction: %w", result.Error)
	}
	return modelToTransaction(&model)
}

func (r *GormTransactionRepository) FindByCharacter(ctx context.Context, characterID shared.ID, opts ledger.QueryOptions) ([]*ledger.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&TransactionModel{}).Where("character_id = ?", characterID.String())
	query = applyQueryOptions(query, opts)

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "timestamp DESC"
	}
	query = query.Order(orderBy)

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []TransactionModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", result.Error)
	}

	out := make([]*ledger.Transaction, 0, len(models))
	for i := range models {
		t, err := modelToTransaction(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *GormTransactionRepository) CountByCharacter(ctx context.Context, characterID shared.ID, opts ledger.QueryOptions) (int, error) {
	query := r.db.WithContext(ctx).Model(&TransactionModel{}).Where("character_id = ?", characterID.String())
	query = applyQueryOptions(query, opts)

	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", result.Error)
	}
	return int(count), nil
}

func applyQueryOptions(query *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if opts.StartDate != nil {
		query = query.Where("timestamp >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		query = query.Where("timestamp <= ?", *opts.EndDate)
	}
	if opts.Category != nil {
		query = query.Where("category = ?", string(*opts.Category))
	}
	if opts.TransactionType != nil {
		query = query.Where("transaction_type = ?", string(*opts.TransactionType))
	}
	if opts.RelatedEntityType != nil {
		query = query.Where("related_entity_type = ?", *opts.RelatedEntityType)
	}
	if opts.RelatedEntityID != nil {
		query = query.Where("related_entity_id = ?", *opts.RelatedEntityID)
	}
	return query
}

func transactionToModel(t *ledger.Transaction) (*TransactionModel, error) {
	var metadataJSON string
	if t.Metadata() != nil {
		b, err := json.Marshal(t.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transaction metadata: %w", err)
		}
		metadataJSON = string(b)
	} else {
		metadataJSON = "{}"
	}

	return &TransactionModel{
		ID:                t.ID().Value(),
		CharacterID:       t.CharacterID().String(),
		Timestamp:         t.Timestamp(),
		TransactionType:   string(t.TransactionType()),
		Category:          string(t.Category()),
		Amount:            t.Amount(),
		BalanceBefore:     t.BalanceBefore(),
		BalanceAfter:      t.BalanceAfter(),
		Description:       t.Description(),
		Metadata:          metadataJSON,
		RelatedEntityType: t.RelatedEntityType(),
		RelatedEntityID:   t.RelatedEntityID(),
		OperationType:     t.OperationType(),
	}, nil
}

func modelToTransaction(model *TransactionModel) (*ledger.Transaction, error) {
	id, err := ledger.NewTransactionIDFromString(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id in database: %w", err)
	}

	characterID, err := shared.ParseID(model.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("invalid character id in database: %w", err)
	}

	var metadata map[string]interface{}
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			metadata = nil
		}
	}

	return ledger.ReconstructTransaction(
		id,
		characterID,
		model.Timestamp,
		ledger.TransactionType(model.TransactionType),
		ledger.Category(model.Category),
		model.Amount,
		model.BalanceBefore,
		model.BalanceAfter,
		model.Description,
		metadata,
		model.RelatedEntityType,
		model.RelatedEntityID,
		model.OperationType,
	), nil
}
