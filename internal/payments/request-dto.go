package payments

import "github.com/google/uuid"

// StartPaymentRequest opens payment for a pending booking. Method falls back
// to the configured default when omitted.
type StartPaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Method    string    `json:"method" binding:"omitempty,oneof=STRIPE RAZORPAY PAYPAL CASH"`
}

// WebhookRequest is the gateway callback payload. The event type decides
// whether the transaction completed or failed.
type WebhookRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Event         string `json:"event" binding:"required,oneof=payment.completed payment.failed"`
	Reason        string `json:"reason" binding:"omitempty,max=255"`
}
