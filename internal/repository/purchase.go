package repository

import (
	"context"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseRepository records which buyers completed orders for which
// products. One row per (buyer, product) pair, never updated.
type PurchaseRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, buyerID, productID int64) error
	Exists(ctx context.Context, buyerID, productID int64) (bool, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, buyerID, productID int64) error {
	record := &model.PurchaseRecord{
		BuyerID:   buyerID,
		ProductID: productID,
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(record).Error
}

func (r *purchaseRepoImpl) Exists(ctx context.Context, buyerID, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PurchaseRecord{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Count(&count).Error

	return count > 0, err
}
