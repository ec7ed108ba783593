package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	"kartacademy_backend/internals/features/finance/payments/gateway"
	"kartacademy_backend/internals/features/finance/payments/model"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrAlreadyRefunded    = errors.New("payment already refunded")
	ErrNotRefundable      = errors.New("only completed payments can be refunded")
	ErrGatewayUnavailable = errors.New("refund failed at the payment gateway")
)

// DeclinedError carries the gateway's reason for rejecting a refund.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string { return "refund declined: " + e.Message }

// RefundStore is the persistence surface RefundService needs.
type RefundStore interface {
	// GetPayment returns nil, nil when the payment does not exist.
	GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	// MarkRefunded persists the refunded payment and cancels its enrollment
	// in one transaction.
	MarkRefunded(ctx context.Context, p *model.Payment) error
	AppendRefundNote(ctx context.Context, enrollmentID uuid.UUID, note string) error
}

// RefundService reverses a completed payment: the gateway is asked to return
// the exact charged amount against the original transaction id, then the
// payment flips to refunded and the enrollment is cancelled. The gateway call
// happens before any bookkeeping so a declined refund leaves both rows
// untouched.
type RefundService struct {
	Store   RefundStore
	Gateway gateway.PaymentGateway

	Now func() time.Time
}

func NewRefundService(store RefundStore, gw gateway.PaymentGateway) *RefundService {
	return &RefundService{Store: store, Gateway: gw}
}

// FromDB wires the service on top of GORM.
func FromDB(db *gorm.DB) *RefundService {
	return NewRefundService(&GormRefundStore{DB: db}, gateway.FromConfig(db))
}

func (s *RefundService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RefundService) Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*model.Payment, error) {
	pay, err := s.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		return nil, ErrPaymentNotFound
	}
	if pay.IsRefunded() {
		return nil, ErrAlreadyRefunded
	}
	if pay.PaymentStatus != model.PaymentStatusCompleted {
		return nil, ErrNotRefundable
	}

	res, err := s.Gateway.RefundPayment(ctx, pay.PaymentTransactionID, pay.PaymentAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if !res.Success {
		return nil, &DeclinedError{Message: res.ErrorMessage}
	}

	now := s.now()
	pay.PaymentStatus = model.PaymentStatusRefunded
	pay.PaymentRefundedAt = &now
	if err := s.Store.MarkRefunded(ctx, pay); err != nil {
		return nil, err
	}

	if reason != "" {
		if err := s.Store.AppendRefundNote(ctx, pay.PaymentEnrollmentID, "Refunded: "+reason); err != nil {
			log.Printf("[PAYMENT] refund note: %v", err)
		}
	}
	return pay, nil
}

/* ===================== GORM store ===================== */

type GormRefundStore struct{ DB *gorm.DB }

func (s *GormRefundStore) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var pay model.Payment
	err := s.DB.WithContext(ctx).First(&pay, "payment_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

func (s *GormRefundStore) MarkRefunded(ctx context.Context, p *model.Payment) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Payment{}).
			Where("payment_id = ?", p.PaymentID).
			Updates(map[string]interface{}{
				"payment_status":      p.PaymentStatus,
				"payment_refunded_at": p.PaymentRefundedAt,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&enrollModel.Enrollment{}).
			Where("enrollment_id = ?", p.PaymentEnrollmentID).
			Updates(map[string]interface{}{
				"enrollment_payment_status": enrollModel.EnrollPaymentStatusRefunded,
				"enrollment_status":         enrollModel.EnrollmentStatusCancelled,
			}).Error
	})
}

func (s *GormRefundStore) AppendRefundNote(ctx context.Context, enrollmentID uuid.UUID, note string) error {
	return s.DB.WithContext(ctx).Model(&enrollModel.Enrollment{}).
		Where("enrollment_id = ?", enrollmentID).
		Update("enrollment_notes",
			gorm.Expr("array_append(COALESCE(enrollment_notes, '{}'), ?)", note)).Error
}
