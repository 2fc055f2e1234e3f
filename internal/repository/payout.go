package repository

import (
	"context"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type PayoutRepository interface {
	Create(ctx context.Context, payout *model.Payout) error
	ListForSeller(ctx context.Context, sellerID int64) ([]*model.Payout, error)
}

type payoutRepoImpl struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepoImpl{
		db: db,
	}
}

func (r *payoutRepoImpl) Create(ctx context.Context, payout *model.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *payoutRepoImpl) ListForSeller(ctx context.Context, sellerID int64) ([]*model.Payout, error) {
	var payouts []*model.Payout
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&payouts).Error

	if err != nil {
		return nil, err
	}

	return payouts, nil
}
