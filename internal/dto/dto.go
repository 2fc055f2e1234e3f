package dto

// CartEntry is one line of a cart submission. Request-scoped, never
// persisted directly.
type CartEntry struct {
	ProductID int64  `json:"product_id"`
	License   string `json:"license"`
	Quantity  int64  `json:"quantity"`
}

type Billing struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type SubmitOrderRequest struct {
	IdempotencyKey string       `json:"idempotency_key"`
	Items          []*CartEntry `json:"items"`
	PaymentMethod  string       `json:"payment_method"`
	// PaymentNonce is the card gateway's one-time token from the
	// checkout frontend. Required for card payments only.
	PaymentNonce string  `json:"payment_nonce"`
	Billing      Billing `json:"billing"`
}

type OrderItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	License   string `json:"license"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type OrderResponse struct {
	OrderID       int64                `json:"order_id"`
	Status        string               `json:"status"`
	TotalPrice    int64                `json:"total_price"`
	PaymentMethod string               `json:"payment_method"`
	Items         []*OrderItemResponse `json:"items"`
	// ApproveURL is set for wallet orders; the buyer completes the
	// payment there before capture is confirmed out-of-band.
	ApproveURL string `json:"approve_url,omitempty"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type PayoutResponse struct {
	PayoutID int64  `json:"payout_id"`
	Amount   int64  `json:"amount"`
	Method   string `json:"method"`
}
