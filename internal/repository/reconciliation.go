package repository

import (
	"context"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

// ReconciliationRepository is the operator-visible queue for the one
// failure that cannot be rolled back: money moved externally but the
// order records did not persist.
type ReconciliationRepository interface {
	Create(ctx context.Context, record *model.ReconciliationRecord) error
	ListUnresolved(ctx context.Context) ([]*model.ReconciliationRecord, error)
	Resolve(ctx context.Context, id string) error
}

type reconciliationRepoImpl struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepoImpl{
		db: db,
	}
}

func (r *reconciliationRepoImpl) Create(ctx context.Context, record *model.ReconciliationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *reconciliationRepoImpl) ListUnresolved(ctx context.Context) ([]*model.ReconciliationRecord, error) {
	var records []*model.ReconciliationRecord
	err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Find(&records).Error

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *reconciliationRepoImpl) Resolve(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.ReconciliationRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":   true,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
