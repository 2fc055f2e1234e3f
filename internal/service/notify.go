package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/event"
	"github.com/programerkawsar/marketplace-api/internal/ids"
	"github.com/programerkawsar/marketplace-api/internal/mailer"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotifyService is the fan-out boundary: it turns pipeline events into
// stored notifications plus outbound email. Failures here are logged
// and dropped; they never roll back a settlement.
type NotifyService interface {
	Register(bus EventBus.Bus) error
	ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error)
	MarkSeen(ctx context.Context, notificationID, userID int64) error
	MarkAllSeen(ctx context.Context, userID int64) error
}

type notifyServiceImpl struct {
	notificationRepo repository.NotificationRepository
	accountRepo      repository.AccountRepository
	productRepo      repository.ProductRepository
	mail             mailer.Mailer
}

func NewNotifyService(
	notificationRepo repository.NotificationRepository,
	accountRepo repository.AccountRepository,
	productRepo repository.ProductRepository,
	mail mailer.Mailer,
) NotifyService {
	return &notifyServiceImpl{
		notificationRepo: notificationRepo,
		accountRepo:      accountRepo,
		productRepo:      productRepo,
		mail:             mail,
	}
}

func (s *notifyServiceImpl) Register(bus EventBus.Bus) error {
	if err := bus.SubscribeAsync(event.TopicOrderCompleted, s.handleOrderCompleted, false); err != nil {
		return fmt.Errorf("subscribe %s: %w", event.TopicOrderCompleted, err)
	}
	if err := bus.SubscribeAsync(event.TopicPayoutProcessed, s.handlePayoutProcessed, false); err != nil {
		return fmt.Errorf("subscribe %s: %w", event.TopicPayoutProcessed, err)
	}
	if err := bus.SubscribeAsync(event.TopicPayoutFailed, s.handlePayoutFailed, false); err != nil {
		return fmt.Errorf("subscribe %s: %w", event.TopicPayoutFailed, err)
	}

	return nil
}

func (s *notifyServiceImpl) handleOrderCompleted(evt *event.OrderCompleted) {
	ctx := context.Background()

	product, err := s.productRepo.FindByID(ctx, evt.ProductID)
	if err != nil {
		zap.S().Warnw("order notification dropped: product lookup failed",
			"product_id", evt.ProductID, "error", err)
		return
	}

	notification := &model.Notification{
		ID:         ids.Next(),
		ToUserID:   evt.SellerID,
		FromUserID: evt.BuyerID,
		ProductID:  evt.ProductID,
		Kind:       "order",
		Text:       fmt.Sprintf("Your product %q has a new sale", product.Name),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		zap.S().Warnw("failed to store order notification",
			"seller_id", evt.SellerID, "order_id", evt.OrderID, "error", err)
	}

	seller, err := s.accountRepo.FindByID(ctx, evt.SellerID)
	if err != nil {
		zap.S().Warnw("order email dropped: seller lookup failed",
			"seller_id", evt.SellerID, "error", err)
		return
	}

	subject := "You made a sale!"
	body := fmt.Sprintf(
		"Hi %s,<br/>Your product %q was just purchased. The earnings have been added to your balance.",
		seller.FirstName, product.Name,
	)
	if err := s.mail.Send(seller.Email, subject, body); err != nil {
		zap.S().Warnw("failed to send order email",
			"seller_id", evt.SellerID, "error", err)
	}
}

func (s *notifyServiceImpl) handlePayoutProcessed(evt *event.PayoutProcessed) {
	ctx := context.Background()

	seller, err := s.accountRepo.FindByID(ctx, evt.SellerID)
	if err != nil {
		zap.S().Warnw("payout email dropped: seller lookup failed",
			"seller_id", evt.SellerID, "error", err)
		return
	}

	notification := &model.Notification{
		ID:       ids.Next(),
		ToUserID: evt.SellerID,
		Kind:     "payout",
		Text:     "Your payout has been processed",
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		zap.S().Warnw("failed to store payout notification",
			"seller_id", evt.SellerID, "error", err)
	}

	subject := "Your payout has been processed"
	body := fmt.Sprintf(
		"Hi %s,<br/>It's Payday! We just processed your payout for $%.2f via %s.",
		seller.FirstName, float64(evt.Amount)/100, evt.Method,
	)
	if err := s.mail.Send(seller.Email, subject, body); err != nil {
		zap.S().Warnw("failed to send payout email",
			"seller_id", evt.SellerID, "error", err)
	}
}

func (s *notifyServiceImpl) handlePayoutFailed(evt *event.PayoutFailed) {
	ctx := context.Background()

	seller, err := s.accountRepo.FindByID(ctx, evt.SellerID)
	if err != nil {
		zap.S().Warnw("payout email dropped: seller lookup failed",
			"seller_id", evt.SellerID, "error", err)
		return
	}

	subject := "We couldn't process your payment"
	body := fmt.Sprintf(
		"Hi %s,<br/>We're sorry to say that we have not been able to process your payout. %s Your current earnings are $%.2f.",
		seller.FirstName, evt.Reason, float64(evt.Balance)/100,
	)
	if err := s.mail.Send(seller.Email, subject, body); err != nil {
		zap.S().Warnw("failed to send payout failure email",
			"seller_id", evt.SellerID, "error", err)
	}
}

func (s *notifyServiceImpl) ListForUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	return s.notificationRepo.ListForUser(ctx, userID)
}

func (s *notifyServiceImpl) MarkSeen(ctx context.Context, notificationID, userID int64) error {
	err := s.notificationRepo.MarkSeen(ctx, notificationID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "no notification found with that id")
	}
	return err
}

func (s *notifyServiceImpl) MarkAllSeen(ctx context.Context, userID int64) error {
	return s.notificationRepo.MarkAllSeen(ctx, userID)
}
