package repository

import (
	"context"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeeRepository reads the platform's flat fee per license tier. The
// settlement pipeline never writes fees.
type FeeRepository interface {
	Get(ctx context.Context, license string) (*model.LicenseFee, error)
	// Upsert is for fee administration and seeding only.
	Upsert(ctx context.Context, fee *model.LicenseFee) error
}

type feeRepoImpl struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepoImpl{
		db: db,
	}
}

func (r *feeRepoImpl) Get(ctx context.Context, license string) (*model.LicenseFee, error) {
	var fee model.LicenseFee
	err := r.db.WithContext(ctx).
		Where("license = ?", license).
		First(&fee).Error

	if err != nil {
		return nil, err
	}

	return &fee, nil
}

func (r *feeRepoImpl) Upsert(ctx context.Context, fee *model.LicenseFee) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "license"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(fee).Error
}
