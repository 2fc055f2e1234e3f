package repository

import (
	"context"
	"errors"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

// IdempotencyRepository pins one settlement attempt per client key so a
// retried cart submission can never produce a second charge.
type IdempotencyRepository interface {
	// Claim inserts the key as IN_FLIGHT. When the key already exists
	// the stored record is returned with claimed=false.
	Claim(ctx context.Context, key string, buyerID int64) (record *model.IdempotencyKey, claimed bool, err error)
	// Reclaim moves a FAILED key back to IN_FLIGHT. A failed attempt
	// definitely did not charge, so retrying is safe.
	Reclaim(ctx context.Context, key string) (bool, error)
	SetStatus(ctx context.Context, tx *gorm.DB, key, status string, orderID int64) error
	// SetStatusByOrder updates the key owning an already-persisted
	// order; used by wallet capture and the pending-order sweeper.
	SetStatusByOrder(ctx context.Context, tx *gorm.DB, orderID int64, status string) error
	FindStaleUnknown(ctx context.Context, cutoff time.Time) ([]*model.IdempotencyKey, error)
}

type idempotencyRepoImpl struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepoImpl{
		db: db,
	}
}

func (r *idempotencyRepoImpl) Claim(ctx context.Context, key string, buyerID int64) (*model.IdempotencyKey, bool, error) {
	record := &model.IdempotencyKey{
		Key:     key,
		BuyerID: buyerID,
		Status:  model.IdemStatusInFlight,
	}

	err := r.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	var existing model.IdempotencyKey
	if err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&existing).Error; err != nil {
		return nil, false, err
	}

	return &existing, false, nil
}

func (r *idempotencyRepoImpl) Reclaim(ctx context.Context, key string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.IdempotencyKey{}).
		Where("key = ? AND status = ?", key, model.IdemStatusFailed).
		Updates(map[string]interface{}{
			"status":     model.IdemStatusInFlight,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *idempotencyRepoImpl) SetStatus(ctx context.Context, tx *gorm.DB, key, status string, orderID int64) error {
	return tx.WithContext(ctx).Model(&model.IdempotencyKey{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{
			"status":     status,
			"order_id":   orderID,
			"updated_at": time.Now(),
		}).Error
}

func (r *idempotencyRepoImpl) SetStatusByOrder(ctx context.Context, tx *gorm.DB, orderID int64, status string) error {
	return tx.WithContext(ctx).Model(&model.IdempotencyKey{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *idempotencyRepoImpl) FindStaleUnknown(ctx context.Context, cutoff time.Time) ([]*model.IdempotencyKey, error) {
	var records []*model.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", model.IdemStatusUnknown, cutoff).
		Find(&records).Error

	if err != nil {
		return nil, err
	}

	return records, nil
}
