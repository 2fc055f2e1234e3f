package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/braintree-go/braintree-go"
	"github.com/programerkawsar/marketplace-api/internal/config"
)

// ErrCardDeclined marks a definitive gateway rejection: the charge did
// not happen. Any other error from Charge means the outcome is
// unconfirmed.
var ErrCardDeclined = errors.New("card declined by gateway")

type CustomerProfile struct {
	FirstName string
	LastName  string
	Email     string
	// PaymentNonce is the one-time token from the checkout frontend.
	PaymentNonce string
	Address      string
	Zip          string
	City         string
	State        string
	Country      string
}

// CardClient is the external card gateway: create a remote customer
// from the buyer's billing profile, then charge it.
type CardClient interface {
	CreateCustomer(ctx context.Context, profile *CustomerProfile) (string, error)
	// Charge debits amountMinor (cents) from the customer's vaulted
	// payment method and captures immediately.
	Charge(ctx context.Context, customerID string, amountMinor int64, currency, description string) (string, error)
}

type cardClientImpl struct {
	gateway *braintree.Braintree
}

func NewCardClient(cfg *config.Braintree) CardClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &cardClientImpl{
		gateway: gateway,
	}
}

func (c *cardClientImpl) CreateCustomer(ctx context.Context, profile *CustomerProfile) (string, error) {
	req := &braintree.CustomerRequest{
		FirstName:          profile.FirstName,
		LastName:           profile.LastName,
		Email:              profile.Email,
		PaymentMethodNonce: profile.PaymentNonce,
	}

	customer, err := c.gateway.Customer().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create gateway customer: %w", err)
	}

	if customer.DefaultPaymentMethod() == nil {
		return "", fmt.Errorf("no default payment method returned for customer")
	}

	return customer.Id, nil
}

func (c *cardClientImpl) Charge(ctx context.Context, customerID string, amountMinor int64, currency, description string) (string, error) {
	req := &braintree.TransactionRequest{
		Type:       "sale",
		Amount:     braintree.NewDecimal(amountMinor, 2),
		CustomerID: customerID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true, // capture immediately
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create gateway transaction: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined ||
		tx.Status == braintree.TransactionStatusGatewayRejected {
		return "", fmt.Errorf("%w: %s", ErrCardDeclined, tx.ProcessorResponseText)
	}

	return tx.Id, nil
}
