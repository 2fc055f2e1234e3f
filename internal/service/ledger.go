package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService is the only component allowed to mutate account
// balances. Every mutation is a single atomic statement at the storage
// layer.
type LedgerService interface {
	// CreditSeller runs inside the settlement transaction so a seller
	// is credited exactly once per persisted order.
	CreditSeller(ctx context.Context, tx *gorm.DB, sellerID, amount int64) error
	// DebitBuyer applies only if balance >= amount at apply time.
	DebitBuyer(ctx context.Context, buyerID, amount int64) error
	// RefundBuyer compensates a balance debit when settlement fails
	// after the charge.
	RefundBuyer(ctx context.Context, buyerID, amount int64) error
	// ZeroBalance clears a seller balance after a successful payout
	// and reports the amount paid out.
	ZeroBalance(ctx context.Context, sellerID int64) (int64, error)
}

type ledgerServiceImpl struct {
	db          *gorm.DB
	accountRepo repository.AccountRepository
}

func NewLedgerService(db *gorm.DB, accountRepo repository.AccountRepository) LedgerService {
	return &ledgerServiceImpl{
		db:          db,
		accountRepo: accountRepo,
	}
}

func (s *ledgerServiceImpl) CreditSeller(ctx context.Context, tx *gorm.DB, sellerID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("seller credit must not be negative: %d", amount)
	}

	if err := s.accountRepo.Adjust(ctx, tx, sellerID, amount); err != nil {
		return fmt.Errorf("credit seller %d: %w", sellerID, err)
	}

	return nil
}

func (s *ledgerServiceImpl) DebitBuyer(ctx context.Context, buyerID, amount int64) error {
	ok, err := s.accountRepo.DebitIfSufficient(ctx, s.db, buyerID, amount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "buyer account not found")
		}
		return fmt.Errorf("debit buyer %d: %w", buyerID, err)
	}
	if !ok {
		return apperr.New(apperr.KindInsufficientBalance, "not enough balance to purchase")
	}

	return nil
}

func (s *ledgerServiceImpl) RefundBuyer(ctx context.Context, buyerID, amount int64) error {
	if err := s.accountRepo.Adjust(ctx, s.db, buyerID, amount); err != nil {
		return fmt.Errorf("refund buyer %d: %w", buyerID, err)
	}

	zap.S().Infow("buyer balance refunded after failed settlement",
		"buyer_id", buyerID, "amount", amount)
	return nil
}

func (s *ledgerServiceImpl) ZeroBalance(ctx context.Context, sellerID int64) (int64, error) {
	previous, err := s.accountRepo.ZeroBalance(ctx, sellerID)
	if err != nil {
		return 0, fmt.Errorf("zero balance for seller %d: %w", sellerID, err)
	}

	return previous, nil
}
