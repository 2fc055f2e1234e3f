package repository

import (
	"context"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type ProductRepository interface {
	FindByID(ctx context.Context, productID int64) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []int64) ([]*model.Product, error)
	// IncrementSales bumps the sales counter atomically, once per
	// completed line item.
	IncrementSales(ctx context.Context, tx *gorm.DB, productID int64) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []int64) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) IncrementSales(ctx context.Context, tx *gorm.DB, productID int64) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("total_sales", gorm.Expr("total_sales + ?", 1)).
		Error
}
