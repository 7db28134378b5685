package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Repository interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	// Guarded status transitions; zero affected rows means the payment was
	// not in an eligible state.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, amount float64, reason string, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePayment(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetPaymentByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).First(&payment, "booking_id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).First(&payment, "transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusProcessing)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status IN ?", id, []Status{StatusPending, StatusProcessing}).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status IN ?", id, []Status{StatusPending, StatusProcessing}).
		Updates(map[string]interface{}{
			"status":         StatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, amount float64, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status = ?", id, StatusCompleted).
		Updates(map[string]interface{}{
			"status":        StatusRefunded,
			"refund_amount": amount,
			"refund_reason": reason,
			"refunded_at":   at,
			"updated_at":    at,
		})
	return res.RowsAffected > 0, res.Error
}
