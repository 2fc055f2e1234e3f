package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/client"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"github.com/programerkawsar/marketplace-api/internal/event"
	"github.com/programerkawsar/marketplace-api/internal/ids"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/programerkawsar/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementService runs the order settlement pipeline: price the cart,
// charge the buyer through exactly one channel, persist the order, and
// apply the cascades. Buyer identity is always an explicit parameter,
// never ambient state.
type SettlementService interface {
	SubmitOrder(ctx context.Context, buyerID int64, req *dto.SubmitOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, buyerID, orderID int64) (*dto.OrderResponse, error)
	// HasPurchased reports whether the buyer has a completed order
	// containing the product; gates verified-purchaser features.
	HasPurchased(ctx context.Context, buyerID, productID int64) (bool, error)
	// HandleWalletWebhook verifies, dedups, and applies a wallet
	// gateway callback. Capture completion settles the pending order.
	HandleWalletWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type settlementServiceImpl struct {
	db                 *gorm.DB
	pricer             PricingService
	dispatcher         PaymentDispatcher
	ledger             LedgerService
	walletClient       client.WalletClient
	orderRepo          repository.OrderRepository
	productRepo        repository.ProductRepository
	purchaseRepo       repository.PurchaseRepository
	idempotencyRepo    repository.IdempotencyRepository
	webhookEventRepo   repository.WebhookEventRepository
	reconciliationRepo repository.ReconciliationRepository
	bus                EventBus.Bus
}

func NewSettlementService(
	db *gorm.DB,
	pricer PricingService,
	dispatcher PaymentDispatcher,
	ledger LedgerService,
	walletClient client.WalletClient,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	purchaseRepo repository.PurchaseRepository,
	idempotencyRepo repository.IdempotencyRepository,
	webhookEventRepo repository.WebhookEventRepository,
	reconciliationRepo repository.ReconciliationRepository,
	bus EventBus.Bus,
) SettlementService {
	return &settlementServiceImpl{
		db:                 db,
		pricer:             pricer,
		dispatcher:         dispatcher,
		ledger:             ledger,
		walletClient:       walletClient,
		orderRepo:          orderRepo,
		productRepo:        productRepo,
		purchaseRepo:       purchaseRepo,
		idempotencyRepo:    idempotencyRepo,
		webhookEventRepo:   webhookEventRepo,
		reconciliationRepo: reconciliationRepo,
		bus:                bus,
	}
}

func (s *settlementServiceImpl) SubmitOrder(ctx context.Context, buyerID int64, req *dto.SubmitOrderRequest) (*dto.OrderResponse, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	items, total, err := s.pricer.PriceCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.claimKey(ctx, buyerID, req.IdempotencyKey); err != nil {
		var replay *replayError
		if errors.As(err, &replay) {
			return s.GetOrder(ctx, buyerID, replay.orderID)
		}
		return nil, err
	}

	result, err := s.dispatcher.Charge(ctx, &ChargeRequest{
		BuyerID: buyerID,
		Amount:  total,
		Method:  req.PaymentMethod,
		Nonce:   req.PaymentNonce,
		Billing: req.Billing,
	})
	if err != nil {
		s.releaseKey(ctx, req.IdempotencyKey, err)
		return nil, err
	}

	order := &model.Order{
		ID:             ids.Next(),
		BuyerID:        buyerID,
		TotalPrice:     total,
		PaymentMethod:  req.PaymentMethod,
		Status:         model.OrderStatusSettled,
		WalletIntentID: result.IntentID,
		Address:        req.Billing.Address,
		Zip:            req.Billing.Zip,
		City:           req.Billing.City,
		State:          req.Billing.State,
		Country:        req.Billing.Country,
	}
	if !result.Settled {
		order.Status = model.OrderStatusPending
	}
	for _, item := range items {
		item.OrderID = order.ID
	}

	var events []*event.OrderCompleted
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Line items first, then the order referencing them.
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		keyStatus := model.IdemStatusInFlight // wallet: settled only on capture
		if result.Settled {
			keyStatus = model.IdemStatusSettled

			events, err = s.applyCascades(ctx, tx, order, items)
			if err != nil {
				return err
			}
		}

		if err := s.idempotencyRepo.SetStatus(ctx, tx, req.IdempotencyKey, keyStatus, order.ID); err != nil {
			return fmt.Errorf("update idempotency key: %w", err)
		}

		return nil
	})
	if txErr != nil {
		return nil, s.recoverFailedPersistence(ctx, req, buyerID, total, result, txErr)
	}

	s.publishOrderEvents(events)

	return orderResponse(order, items, result.ApproveURL), nil
}

// claimKey pins the settlement attempt to the client's idempotency
// key. A replayError carries the already-settled order for idempotent
// resubmissions.
func (s *settlementServiceImpl) claimKey(ctx context.Context, buyerID int64, key string) error {
	record, claimed, err := s.idempotencyRepo.Claim(ctx, key, buyerID)
	if err != nil {
		return fmt.Errorf("claim idempotency key: %w", err)
	}
	if claimed {
		return nil
	}

	switch record.Status {
	case model.IdemStatusSettled:
		return &replayError{orderID: record.OrderID}
	case model.IdemStatusFailed:
		ok, err := s.idempotencyRepo.Reclaim(ctx, key)
		if err != nil {
			return fmt.Errorf("reclaim idempotency key: %w", err)
		}
		if !ok {
			return apperr.New(apperr.KindConflict, "a settlement for this cart is already in progress")
		}
		return nil
	case model.IdemStatusUnknown:
		return apperr.New(apperr.KindGatewayUnknown,
			"a previous charge attempt is unconfirmed; the order must be reconciled before retrying")
	default:
		return apperr.New(apperr.KindConflict, "a settlement for this cart is already in progress")
	}
}

// releaseKey records the outcome of a failed charge on the key. A
// definite rejection frees the key for retry; an unconfirmed charge
// blocks it.
func (s *settlementServiceImpl) releaseKey(ctx context.Context, key string, chargeErr error) {
	status := model.IdemStatusFailed
	if apperr.IsKind(chargeErr, apperr.KindGatewayUnknown) {
		status = model.IdemStatusUnknown
	}

	if err := s.idempotencyRepo.SetStatus(ctx, s.db, key, status, 0); err != nil {
		zap.S().Errorw("failed to release idempotency key",
			"key", key, "status", status, "error", err)
	}
}

// applyCascades credits each seller, bumps sales counters, and records
// purchases. Runs only inside a settlement transaction, after the
// buyer's payment is confirmed.
func (s *settlementServiceImpl) applyCascades(ctx context.Context, tx *gorm.DB, order *model.Order, items []*model.OrderItem) ([]*event.OrderCompleted, error) {
	events := make([]*event.OrderCompleted, 0, len(items))
	for _, item := range items {
		if err := s.ledger.CreditSeller(ctx, tx, item.SellerID, item.SellerCredit); err != nil {
			return nil, err
		}
		if err := s.productRepo.IncrementSales(ctx, tx, item.ProductID); err != nil {
			return nil, fmt.Errorf("increment sales counter for product %d: %w", item.ProductID, err)
		}
		if err := s.purchaseRepo.Upsert(ctx, tx, order.BuyerID, item.ProductID); err != nil {
			return nil, fmt.Errorf("create purchase record for product %d: %w", item.ProductID, err)
		}

		events = append(events, &event.OrderCompleted{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			SellerID:   item.SellerID,
			ProductID:  item.ProductID,
			LineTotal:  item.LineTotal,
			TotalPrice: order.TotalPrice,
		})
	}

	return events, nil
}

// recoverFailedPersistence handles the one state that cannot simply be
// returned as an error: the buyer was charged but the order did not
// persist. Balance debits are compensated; external charges go to the
// reconciliation queue.
func (s *settlementServiceImpl) recoverFailedPersistence(ctx context.Context, req *dto.SubmitOrderRequest, buyerID, total int64, result *ChargeResult, txErr error) error {
	switch {
	case req.PaymentMethod == model.PaymentMethodBalance:
		if err := s.ledger.RefundBuyer(ctx, buyerID, total); err != nil {
			s.escalate(ctx, req, buyerID, total, txErr)
			return apperr.Wrap(apperr.KindPersistence, "order persistence failed after balance debit", txErr)
		}
		s.releaseKey(ctx, req.IdempotencyKey, apperr.Wrap(apperr.KindGateway, "persistence failed", txErr))
		return apperr.Wrap(apperr.KindInternal, "order could not be stored; balance was refunded", txErr)

	case result.Settled:
		// External card charge already captured.
		s.escalate(ctx, req, buyerID, total, txErr)
		return apperr.Wrap(apperr.KindPersistence, "payment settled but order persistence failed", txErr)

	default:
		// Wallet intent exists but the buyer has not paid yet; a
		// capture for the orphaned intent will be escalated when it
		// arrives.
		s.releaseKey(ctx, req.IdempotencyKey, apperr.Wrap(apperr.KindGateway, "persistence failed", txErr))
		return apperr.Wrap(apperr.KindInternal, "order could not be stored", txErr)
	}
}

// escalate files a reconciliation record and blocks the idempotency
// key. This is operator-visible by design: money moved with no order.
func (s *settlementServiceImpl) escalate(ctx context.Context, req *dto.SubmitOrderRequest, buyerID, total int64, cause error) {
	record := &model.ReconciliationRecord{
		ID:             uuid.NewString(),
		IdempotencyKey: req.IdempotencyKey,
		BuyerID:        buyerID,
		Amount:         total,
		PaymentMethod:  req.PaymentMethod,
		Reason:         fmt.Sprintf("payment settled but persistence failed: %v", cause),
	}

	zap.S().Errorw("RECONCILIATION REQUIRED: payment settled but order persistence failed",
		"buyer_id", buyerID,
		"amount", total,
		"payment_method", req.PaymentMethod,
		"idempotency_key", req.IdempotencyKey,
		"error", cause)

	if err := s.reconciliationRepo.Create(ctx, record); err != nil {
		zap.S().Errorw("failed to file reconciliation record; manual recovery from logs required",
			"buyer_id", buyerID, "amount", total, "error", err)
	}

	if err := s.idempotencyRepo.SetStatus(ctx, s.db, req.IdempotencyKey, model.IdemStatusUnknown, 0); err != nil {
		zap.S().Errorw("failed to block idempotency key after reconciliation escalation",
			"key", req.IdempotencyKey, "error", err)
	}
}

func (s *settlementServiceImpl) GetOrder(ctx context.Context, buyerID, orderID int64) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.BuyerID != buyerID {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}

	items, err := s.orderRepo.GetOrderItems(ctx, s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	return orderResponse(order, items, ""), nil
}

func (s *settlementServiceImpl) HasPurchased(ctx context.Context, buyerID, productID int64) (bool, error) {
	return s.purchaseRepo.Exists(ctx, buyerID, productID)
}

func (s *settlementServiceImpl) HandleWalletWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.walletClient.VerifyWebhookSignature(ctx, headers, body); err != nil {
		return apperr.Wrap(apperr.KindValidation, "webhook signature verification failed", err)
	}

	var payload model.WalletWebhookEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed webhook payload", err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, payload.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		return nil
	}

	switch payload.EventType {
	case model.WalletEventCaptureCompleted:
		intentID := payload.Resource.SupplementaryData.RelatedIDs.OrderID
		if intentID == "" {
			return apperr.New(apperr.KindValidation, "webhook payload is missing the payment intent id")
		}
		if err := s.settleWalletOrder(ctx, intentID); err != nil {
			return err
		}
	case model.WalletEventCaptureDenied:
		intentID := payload.Resource.SupplementaryData.RelatedIDs.OrderID
		if intentID != "" {
			s.failWalletOrder(ctx, intentID)
		}
	default:
		zap.S().Debugw("ignoring wallet webhook event", "event_type", payload.EventType)
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, payload.ID, payload.EventType); err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}

	return nil
}

// settleWalletOrder flips a pending wallet order to settled and runs
// the cascades exactly once. A capture for an order the sweeper already
// failed means the buyer paid for nothing: that goes to reconciliation.
// Escalation is terminal handling, so the event still dedups; a
// redelivered capture must not file a second record.
func (s *settlementServiceImpl) settleWalletOrder(ctx context.Context, intentID string) error {
	order, err := s.orderRepo.FindByWalletIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.escalateOrphanCapture(ctx, intentID)
			return nil
		}
		return fmt.Errorf("find order by wallet intent: %w", err)
	}

	var events []*event.OrderCompleted
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.MarkSettled(ctx, tx, order.ID); err != nil {
			return err
		}

		items, err := s.orderRepo.GetOrderItems(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("get order items: %w", err)
		}

		events, err = s.applyCascades(ctx, tx, order, items)
		if err != nil {
			return err
		}

		return s.idempotencyRepo.SetStatusByOrder(ctx, tx, order.ID, model.IdemStatusSettled)
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrRecordNotFound) {
			// The order left PENDING, but the snapshot read above may
			// predate the transition: the sweeper can expire the order
			// between the lookup and MarkSettled. Decide on the
			// current status, never the snapshot.
			current, err := s.orderRepo.FindByID(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("recheck order %d after capture: %w", order.ID, err)
			}
			if current.Status == model.OrderStatusFailed {
				s.escalateOrphanCapture(ctx, intentID)
				return nil
			}
			// Already settled; the gateway redelivered the capture.
			return nil
		}

		zap.S().Errorw("RECONCILIATION REQUIRED: wallet capture confirmed but cascades failed",
			"order_id", order.ID, "intent_id", intentID, "error", txErr)
		return apperr.Wrap(apperr.KindPersistence, "wallet capture settled but order update failed", txErr)
	}

	s.publishOrderEvents(events)

	return nil
}

func (s *settlementServiceImpl) failWalletOrder(ctx context.Context, intentID string) {
	order, err := s.orderRepo.FindByWalletIntent(ctx, intentID)
	if err != nil {
		zap.S().Warnw("capture denied for unknown payment intent", "intent_id", intentID)
		return
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.MarkFailed(ctx, tx, order.ID); err != nil {
			return err
		}
		return s.idempotencyRepo.SetStatusByOrder(ctx, tx, order.ID, model.IdemStatusFailed)
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.S().Errorw("failed to mark wallet order failed",
			"order_id", order.ID, "error", err)
	}
}

func (s *settlementServiceImpl) escalateOrphanCapture(ctx context.Context, intentID string) {
	zap.S().Errorw("RECONCILIATION REQUIRED: wallet capture with no matching order",
		"intent_id", intentID)

	record := &model.ReconciliationRecord{
		ID:            uuid.NewString(),
		BuyerID:       0,
		PaymentMethod: model.PaymentMethodWallet,
		Reason:        fmt.Sprintf("wallet capture confirmed for intent %s with no settleable order", intentID),
	}
	if err := s.reconciliationRepo.Create(ctx, record); err != nil {
		zap.S().Errorw("failed to file reconciliation record for orphan capture",
			"intent_id", intentID, "error", err)
	}
}

func (s *settlementServiceImpl) publishOrderEvents(events []*event.OrderCompleted) {
	for _, evt := range events {
		s.bus.Publish(event.TopicOrderCompleted, evt)
	}
}

func validateSubmission(req *dto.SubmitOrderRequest) error {
	if req.IdempotencyKey == "" {
		return apperr.Validation("idempotency_key", "idempotency key must be provided")
	}
	switch req.PaymentMethod {
	case model.PaymentMethodCard, model.PaymentMethodWallet, model.PaymentMethodBalance:
	default:
		return apperr.Validation("payment_method", fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
	}
	if req.PaymentMethod == model.PaymentMethodCard {
		if req.PaymentNonce == "" {
			return apperr.Validation("payment_nonce", "card payments require a payment nonce")
		}
		// The gateway customer profile is built from these.
		if req.Billing.Name == "" {
			return apperr.Validation("name", "card payments require the cardholder name")
		}
		if req.Billing.Email == "" {
			return apperr.Validation("email", "card payments require a billing email")
		}
	}

	billing := []struct {
		field string
		value string
	}{
		{"address", req.Billing.Address},
		{"zip", req.Billing.Zip},
		{"city", req.Billing.City},
		{"state", req.Billing.State},
		{"country", req.Billing.Country},
	}
	for _, f := range billing {
		if f.value == "" {
			return apperr.Validation(f.field, f.field+" must be provided")
		}
	}

	return nil
}

func orderResponse(order *model.Order, items []*model.OrderItem, approveURL string) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		ApproveURL:    approveURL,
		Items:         make([]*dto.OrderItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = &dto.OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			License:   item.License,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}

	return resp
}

// replayError short-circuits SubmitOrder into returning the order a
// previous attempt with the same idempotency key already settled.
type replayError struct {
	orderID int64
}

func (e *replayError) Error() string {
	return fmt.Sprintf("settlement already completed as order %d", e.orderID)
}
