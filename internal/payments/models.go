package payments

import (
	"time"

	"github.com/google/uuid"
)

// Method is the payment rail used to settle a booking.
type Method string

const (
	MethodStripe   Method = "STRIPE"
	MethodRazorpay Method = "RAZORPAY"
	MethodPaypal   Method = "PAYPAL"
	MethodCash     Method = "CASH"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodStripe, MethodRazorpay, MethodPaypal, MethodCash:
		return true
	}
	return false
}

// Status tracks a payment through the gateway.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Payment records one settlement attempt for a booking. At most one payment
// row exists per booking; restarting payment returns the existing row.
type Payment struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"type:varchar(3);not null" json:"currency"`
	Method        Method    `gorm:"type:varchar(20);check:method IN ('STRIPE', 'RAZORPAY', 'PAYPAL', 'CASH');not null" json:"method"`
	Status        Status    `gorm:"type:varchar(20);check:status IN ('PENDING', 'PROCESSING', 'COMPLETED', 'FAILED', 'REFUNDED');default:'PENDING'" json:"status"`
	TransactionID string    `gorm:"uniqueIndex;not null" json:"transaction_id"`
	FailureReason string    `json:"failure_reason,omitempty"`

	// Refund bookkeeping, set when a confirmed booking is cancelled or when a
	// completed payment arrives for a dead booking.
	RefundAmount *float64   `json:"refund_amount,omitempty"`
	RefundReason string     `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// PaymentResponse is the API shape of a payment.
type PaymentResponse struct {
	ID            string     `json:"id"`
	BookingID     string     `json:"booking_id"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id"`
	FailureReason string     `json:"failure_reason,omitempty"`
	RefundAmount  *float64   `json:"refund_amount,omitempty"`
	RefundReason  string     `json:"refund_reason,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToResponse converts a Payment for API responses
func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:            p.ID.String(),
		BookingID:     p.BookingID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        string(p.Method),
		Status:        p.Status.String(),
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
		RefundAmount:  p.RefundAmount,
		RefundReason:  p.RefundReason,
		RefundedAt:    p.RefundedAt,
		CompletedAt:   p.CompletedAt,
		CreatedAt:     p.CreatedAt,
	}
}
