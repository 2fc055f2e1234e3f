package model

// Wallet gateway webhook event types handled by the pipeline.
const (
	WalletEventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	WalletEventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
)

// WalletWebhookEvent is the gateway's callback payload. Only the
// fields the pipeline reads are mapped.
type WalletWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}
