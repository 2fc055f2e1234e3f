package service

import (
	"context"
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"github.com/programerkawsar/marketplace-api/internal/event"
	"github.com/programerkawsar/marketplace-api/internal/ids"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// PayoutService settles a seller's accumulated balance out of the
// platform. The balance reset goes through the ledger like every other
// balance mutation.
type PayoutService interface {
	RequestPayout(ctx context.Context, sellerID int64) (*dto.PayoutResponse, error)
	ListPayouts(ctx context.Context, sellerID int64) ([]*model.Payout, error)
	Balance(ctx context.Context, sellerID int64) (int64, error)
}

type payoutServiceImpl struct {
	ledger      LedgerService
	accountRepo repository.AccountRepository
	payoutRepo  repository.PayoutRepository
	bus         EventBus.Bus
	minimum     int64
}

func NewPayoutService(
	ledger LedgerService,
	accountRepo repository.AccountRepository,
	payoutRepo repository.PayoutRepository,
	bus EventBus.Bus,
	minimum int64,
) PayoutService {
	return &payoutServiceImpl{
		ledger:      ledger,
		accountRepo: accountRepo,
		payoutRepo:  payoutRepo,
		bus:         bus,
		minimum:     minimum,
	}
}

func (s *payoutServiceImpl) RequestPayout(ctx context.Context, sellerID int64) (*dto.PayoutResponse, error) {
	seller, err := s.accountRepo.FindByID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("find seller: %w", err)
	}

	if seller.Balance < s.minimum {
		s.bus.Publish(event.TopicPayoutFailed, &event.PayoutFailed{
			SellerID: sellerID,
			Balance:  seller.Balance,
			Reason:   fmt.Sprintf("This may be because the amount is less than $%.2f.", float64(s.minimum)/100),
		})
		return nil, apperr.New(apperr.KindInsufficientBalance, "the seller does not have sufficient balance")
	}
	if seller.PayoutMethod == "" {
		return nil, apperr.Validation("payout_method", "the seller does not set a payout method")
	}

	amount, err := s.ledger.ZeroBalance(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	payout := &model.Payout{
		ID:       ids.Next(),
		SellerID: sellerID,
		Amount:   amount,
		Method:   seller.PayoutMethod,
	}
	if err := s.payoutRepo.Create(ctx, payout); err != nil {
		// The balance is internal money: restore it rather than leave
		// the seller short.
		if refundErr := s.ledger.RefundBuyer(ctx, sellerID, amount); refundErr != nil {
			zap.S().Errorw("RECONCILIATION REQUIRED: payout record failed and balance restore failed",
				"seller_id", sellerID, "amount", amount,
				"create_error", err, "restore_error", refundErr)
			return nil, apperr.Wrap(apperr.KindPersistence, "payout could not be recorded", err)
		}
		return nil, fmt.Errorf("store payout: %w", err)
	}

	s.bus.Publish(event.TopicPayoutProcessed, &event.PayoutProcessed{
		SellerID: sellerID,
		Amount:   amount,
		Method:   seller.PayoutMethod,
	})

	return &dto.PayoutResponse{
		PayoutID: payout.ID,
		Amount:   amount,
		Method:   seller.PayoutMethod,
	}, nil
}

func (s *payoutServiceImpl) ListPayouts(ctx context.Context, sellerID int64) ([]*model.Payout, error) {
	return s.payoutRepo.ListForSeller(ctx, sellerID)
}

func (s *payoutServiceImpl) Balance(ctx context.Context, sellerID int64) (int64, error) {
	return s.accountRepo.GetBalance(ctx, sellerID)
}
