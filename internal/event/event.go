// Package event defines the post-commit events the settlement pipeline
// emits. The recorder returns them as an explicit list; a dispatcher
// publishes them after the transaction commits, so reactions can never
// roll back a settlement.
package event

const (
	TopicOrderCompleted  = "order.completed"
	TopicPayoutProcessed = "payout.processed"
	TopicPayoutFailed    = "payout.failed"
)

// OrderCompleted is emitted once per settled line item's seller.
type OrderCompleted struct {
	OrderID    int64
	BuyerID    int64
	SellerID   int64
	ProductID  int64
	LineTotal  int64
	TotalPrice int64
}

type PayoutProcessed struct {
	SellerID int64
	Amount   int64
	Method   string
}

type PayoutFailed struct {
	SellerID int64
	Balance  int64
	Reason   string
}
