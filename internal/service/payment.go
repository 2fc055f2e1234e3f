package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/apperr"
	"github.com/programerkawsar/marketplace-api/internal/client"
	"github.com/programerkawsar/marketplace-api/internal/dto"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	BuyerID int64
	// Amount is the server-computed order total in cents.
	Amount  int64
	Method  string
	Nonce   string
	Billing dto.Billing
}

type ChargeResult struct {
	// Settled is true for card and balance: the money has moved. For
	// wallet only the intent exists; capture is confirmed out-of-band.
	Settled       bool
	TransactionID string
	IntentID      string
	ApproveURL    string
}

// PaymentDispatcher routes a priced order to exactly one settlement
// channel. Card and balance settle synchronously; wallet returns a
// pending intent.
type PaymentDispatcher interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

type paymentDispatcherImpl struct {
	cardClient   client.CardClient
	walletClient client.WalletClient
	ledger       LedgerService
	baseURL      string
	currency     string
}

func NewPaymentDispatcher(
	cardClient client.CardClient,
	walletClient client.WalletClient,
	ledger LedgerService,
	baseURL string,
	currency string,
) PaymentDispatcher {
	return &paymentDispatcherImpl{
		cardClient:   cardClient,
		walletClient: walletClient,
		ledger:       ledger,
		baseURL:      baseURL,
		currency:     currency,
	}
}

func (d *paymentDispatcherImpl) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	switch req.Method {
	case model.PaymentMethodCard:
		return d.chargeCard(ctx, req)
	case model.PaymentMethodWallet:
		return d.createWalletIntent(ctx, req)
	case model.PaymentMethodBalance:
		return d.debitBalance(ctx, req)
	default:
		return nil, apperr.Validation("payment_method", fmt.Sprintf("unknown payment method %q", req.Method))
	}
}

func (d *paymentDispatcherImpl) chargeCard(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	firstName, lastName := splitName(req.Billing.Name)

	customerID, err := d.cardClient.CreateCustomer(ctx, &client.CustomerProfile{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        req.Billing.Email,
		PaymentNonce: req.Nonce,
		Address:      req.Billing.Address,
		Zip:          req.Billing.Zip,
		City:         req.Billing.City,
		State:        req.Billing.State,
		Country:      req.Billing.Country,
	})
	if err != nil {
		// No charge was attempted yet, so this is a clean rejection.
		return nil, apperr.Wrap(apperr.KindGateway, "card gateway rejected the customer profile", err)
	}

	description := fmt.Sprintf("Order has been processed at %s", time.Now().Format(time.RFC1123))
	transactionID, err := d.cardClient.Charge(ctx, customerID, req.Amount, d.currency, description)
	if err != nil {
		if errors.Is(err, client.ErrCardDeclined) {
			return nil, apperr.Wrap(apperr.KindGateway, "card was declined", err)
		}
		// Timeout or transport failure: the charge status is
		// unconfirmed and the idempotency key must block retries.
		return nil, apperr.Wrap(apperr.KindGatewayUnknown, "card charge status unconfirmed", err)
	}

	return &ChargeResult{
		Settled:       true,
		TransactionID: transactionID,
	}, nil
}

func (d *paymentDispatcherImpl) createWalletIntent(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	amount := decimal.NewFromInt(req.Amount).Div(decimal.NewFromInt(100)).StringFixed(2)
	description := fmt.Sprintf("Order has been processed at %s", time.Now().Format(time.RFC1123))

	intent, err := d.walletClient.CreatePaymentIntent(
		ctx,
		amount,
		d.currency,
		d.baseURL+"/api/wallet/success",
		d.baseURL,
		description,
	)
	if err != nil {
		// Intent creation failed: nothing was charged.
		return nil, apperr.Wrap(apperr.KindGateway, "wallet gateway rejected the payment intent", err)
	}

	return &ChargeResult{
		Settled:    false,
		IntentID:   intent.ID,
		ApproveURL: intent.ApproveURL,
	}, nil
}

func (d *paymentDispatcherImpl) debitBalance(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if err := d.ledger.DebitBuyer(ctx, req.BuyerID, req.Amount); err != nil {
		return nil, err
	}

	return &ChargeResult{Settled: true}, nil
}

func splitName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
