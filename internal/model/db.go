package model

import "time"

// License tiers a digital product can be sold under.
const (
	LicenseRegular  = "regular"
	LicenseExtended = "extended"
)

// Payment channels.
const (
	PaymentMethodCard    = "card"
	PaymentMethodWallet  = "wallet"
	PaymentMethodBalance = "balance"
)

// Order lifecycle. Wallet orders stay PENDING until the gateway
// confirms capture out-of-band.
const (
	OrderStatusPending = "PENDING"
	OrderStatusSettled = "SETTLED"
	OrderStatusFailed  = "FAILED"
)

// Idempotency key lifecycle. UNKNOWN means a charge may have happened
// but was never confirmed; the key is blocked until reconciled.
const (
	IdemStatusInFlight = "IN_FLIGHT"
	IdemStatusSettled  = "SETTLED"
	IdemStatusFailed   = "FAILED"
	IdemStatusUnknown  = "UNKNOWN"
)

type Product struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Slug        string `gorm:"size:120;index"`
	Description string
	Thumbnail   string
	// Prices are in minor currency units (cents).
	StandardPrice      int64 `gorm:"not null"`
	ExtendedPrice      int64 `gorm:"not null"`
	DiscountPercentage int64 `gorm:"not null;default:0"`
	SellerID           int64 `gorm:"index;not null"`
	// TotalSales counts completed line items; incremented atomically.
	TotalSales int64 `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type User struct {
	ID        int64  `gorm:"primaryKey"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	Country   string `gorm:"size:64"`
	// Balance is in cents. Mutated only through the ledger.
	Balance      int64  `gorm:"not null;default:0"`
	PayoutMethod string `gorm:"size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LicenseFee is the platform's flat fee per license tier. The unique
// index on License rejects duplicate fee rows for a tier, so lookup is
// never ambiguous.
type LicenseFee struct {
	ID      int64  `gorm:"primaryKey"`
	License string `gorm:"size:16;uniqueIndex;not null"`
	// Amount is in cents.
	Amount    int64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is created before its parent Order and bound to it when
// the order row is written. Immutable after creation. Priced amounts
// are denormalized so a wallet capture can credit sellers later
// without re-pricing.
type OrderItem struct {
	ID        int64  `gorm:"primaryKey"`
	OrderID   int64  `gorm:"index"`
	ProductID int64  `gorm:"index;not null"`
	SellerID  int64  `gorm:"index;not null"`
	License   string `gorm:"size:16;not null"`
	Quantity  int64  `gorm:"not null;default:1"`
	// UnitPrice is the undiscounted tier price in cents.
	UnitPrice int64 `gorm:"not null"`
	// SellerCredit is UnitPrice minus the platform fee, applied once
	// per line item regardless of quantity.
	SellerCredit int64 `gorm:"not null"`
	// LineTotal is the buyer-facing discounted total in cents.
	LineTotal int64 `gorm:"not null"`
	CreatedAt time.Time
}

type Order struct {
	ID      int64 `gorm:"primaryKey"`
	BuyerID int64 `gorm:"index;not null"`
	// TotalPrice is recomputed server-side, never trusted from the client.
	TotalPrice    int64  `gorm:"not null"`
	PaymentMethod string `gorm:"size:16;not null"`
	Status        string `gorm:"size:16;index;not null"`
	// WalletIntentID is set for wallet orders awaiting capture.
	WalletIntentID string `gorm:"size:64;index"`
	Address        string `gorm:"size:255;not null"`
	Zip            string `gorm:"size:16;not null"`
	City           string `gorm:"size:64;not null"`
	State          string `gorm:"size:64;not null"`
	Country        string `gorm:"size:64;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PurchaseRecord marks that a buyer completed an order containing the
// product. One row per (buyer, product); gates verified-purchaser
// reviews downstream.
type PurchaseRecord struct {
	BuyerID   int64 `gorm:"primaryKey;autoIncrement:false"`
	ProductID int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

type Notification struct {
	ID         int64  `gorm:"primaryKey"`
	ToUserID   int64  `gorm:"index;not null"`
	FromUserID int64  `gorm:"index"`
	ProductID  int64  `gorm:"index"`
	Kind       string `gorm:"size:32;not null"`
	Text       string
	Seen       bool `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IdempotencyKey pins one settlement attempt per client-supplied key.
type IdempotencyKey struct {
	Key       string `gorm:"primaryKey;size:64"`
	BuyerID   int64  `gorm:"index;not null"`
	Status    string `gorm:"size:16;not null"`
	OrderID   int64  `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WebhookEvent dedups wallet gateway callbacks.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// ReconciliationRecord is the operator queue for states where money
// moved externally but the matching records failed to persist.
type ReconciliationRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	OrderID        int64  `gorm:"index"`
	IdempotencyKey string `gorm:"size:64;index"`
	BuyerID        int64  `gorm:"index;not null"`
	Amount         int64  `gorm:"not null"`
	PaymentMethod  string `gorm:"size:16;not null"`
	Reason         string `gorm:"size:255;not null"`
	Resolved       bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Payout struct {
	ID        int64  `gorm:"primaryKey"`
	SellerID  int64  `gorm:"index;not null"`
	Amount    int64  `gorm:"not null"`
	Method    string `gorm:"size:64;not null"`
	CreatedAt time.Time
}
