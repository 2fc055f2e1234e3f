package repository

import (
	"context"

	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/gorm"
)

// AccountRepository is the storage primitive behind the ledger. All
// mutations are single conditional UPDATEs, never a read followed by a
// write, so concurrent settlements cannot lose updates.
type AccountRepository interface {
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	// Adjust applies balance = balance + delta atomically.
	Adjust(ctx context.Context, tx *gorm.DB, userID int64, delta int64) error
	// DebitIfSufficient subtracts amount only if balance >= amount at
	// apply time. Returns false (no mutation) for an underfunded
	// account and gorm.ErrRecordNotFound for a missing one.
	DebitIfSufficient(ctx context.Context, tx *gorm.DB, userID int64, amount int64) (bool, error)
	// ZeroBalance sets the balance to 0 and reports the previous value.
	ZeroBalance(ctx context.Context, userID int64) (int64, error)
}

type accountRepoImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepoImpl{
		db: db,
	}
}

func (r *accountRepoImpl) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *accountRepoImpl) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Pluck("balance", &balance).
		Error

	return balance, err
}

func (r *accountRepoImpl) Adjust(ctx context.Context, tx *gorm.DB, userID int64, delta int64) error {
	result := tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *accountRepoImpl) DebitIfSufficient(ctx context.Context, tx *gorm.DB, userID int64, amount int64) (bool, error) {
	result := tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))

	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		// Zero rows is ambiguous: underfunded or no such account.
		var count int64
		if err := tx.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", userID).
			Count(&count).Error; err != nil {
			return false, err
		}
		if count == 0 {
			return false, gorm.ErrRecordNotFound
		}
	}

	return result.RowsAffected > 0, nil
}

func (r *accountRepoImpl) ZeroBalance(ctx context.Context, userID int64) (int64, error) {
	var previous int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Pluck("balance", &previous).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("balance", 0).
			Error
	})

	return previous, err
}
