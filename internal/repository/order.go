package repository

import (
	"context"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	// CreateOrderItems writes the line items ahead of their parent
	// order (two-phase creation).
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID int64) (*model.Order, error)
	FindByWalletIntent(ctx context.Context, intentID string) (*model.Order, error)
	// MarkSettled transitions PENDING -> SETTLED. Returns
	// gorm.ErrRecordNotFound when the order was not pending, which
	// keeps wallet capture idempotent.
	MarkSettled(ctx context.Context, tx *gorm.DB, orderID int64) error
	// MarkFailed transitions PENDING -> FAILED; it never touches a
	// settled order.
	MarkFailed(ctx context.Context, tx *gorm.DB, orderID int64) error
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID int64) ([]*model.OrderItem, error)
	FindStalePending(ctx context.Context, cutoff time.Time) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByWalletIntent(ctx context.Context, intentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("wallet_intent_id = ?", intentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkSettled(ctx context.Context, tx *gorm.DB, orderID int64) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusSettled,
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

func (r *orderRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, orderID int64) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusFailed,
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

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID int64) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) FindStalePending(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusPending, cutoff).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
