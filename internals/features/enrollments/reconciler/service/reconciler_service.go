package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/enrollments/enrollments/model"
)

// DefaultStaleAfter is how long a payment may sit unresolved before the sweep
// declares it dead.
const DefaultStaleAfter = 24 * time.Hour

// StaleStore is the data access the sweep needs.
type StaleStore interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Enrollment, error)
	MarkTimedOut(ctx context.Context, id uuid.UUID) error
}

// staleStatuses are the payment states a sweep may close: pending means the
// charge was never attempted, processing means a charge started and never
// resolved (crash or dropped gateway call mid-flight).
var staleStatuses = []string{
	model.EnrollPaymentStatusPending,
	model.EnrollPaymentStatusProcessing,
}

// Reconciler closes out enrollments whose payment never resolved. Each stale
// row gets payment status failed, the fixed timeout message, and the
// payment_failed enrollment status. Already-swept rows no longer match the
// stale filter, so running the sweep twice changes nothing.
type Reconciler struct {
	Store      StaleStore
	StaleAfter time.Duration
	Now        func() time.Time
}

func NewReconciler(store StaleStore) *Reconciler {
	return &Reconciler{Store: store, StaleAfter: DefaultStaleAfter}
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconciler) staleAfter() time.Duration {
	if r.StaleAfter > 0 {
		return r.StaleAfter
	}
	return DefaultStaleAfter
}

// Sweep marks every stale unresolved payment as timed out. A failure on one row
// is logged and skipped so the rest of the batch still gets processed.
// Returns how many rows were updated.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.staleAfter())

	rows, err := r.Store.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range rows {
		if err := r.Store.MarkTimedOut(ctx, rows[i].EnrollmentID); err != nil {
			log.Printf("[RECONCILER] mark timed out %s: %v", rows[i].EnrollmentID, err)
			continue
		}
		updated++
	}
	if updated > 0 {
		log.Printf("[RECONCILER] closed %d stale payment(s)", updated)
	}
	return updated, nil
}

/* ===================== GORM adapter ===================== */

type GormStaleStore struct{ DB *gorm.DB }

func (s *GormStaleStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Enrollment, error) {
	var rows []model.Enrollment
	err := s.DB.WithContext(ctx).
		Where("enrollment_payment_status IN ? AND enrollment_created_at < ?",
			staleStatuses, cutoff).
		Find(&rows).Error
	return rows, err
}

func (s *GormStaleStore) MarkTimedOut(ctx context.Context, id uuid.UUID) error {
	// filter repeated in the WHERE so a concurrent sweep cannot double-apply
	return s.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("enrollment_id = ? AND enrollment_payment_status IN ?",
			id, staleStatuses).
		Updates(map[string]interface{}{
			"enrollment_payment_status": model.EnrollPaymentStatusFailed,
			"enrollment_payment_error":  model.PaymentTimeoutMessage,
			"enrollment_status":         model.EnrollmentStatusPaymentFailed,
		}).Error
}

// FromDB builds the production reconciler.
func FromDB(db *gorm.DB) *Reconciler {
	return NewReconciler(&GormStaleStore{DB: db})
}
