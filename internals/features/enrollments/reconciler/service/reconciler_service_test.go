package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"kartacademy_backend/internals/features/enrollments/enrollments/model"
)

type memStaleStore struct {
	rows    map[uuid.UUID]*model.Enrollment
	failIDs map[uuid.UUID]bool
	marks   int
}

func newMemStaleStore() *memStaleStore {
	return &memStaleStore{
		rows:    map[uuid.UUID]*model.Enrollment{},
		failIDs: map[uuid.UUID]bool{},
	}
}

func (s *memStaleStore) add(paymentStatus string, age time.Duration, now time.Time) uuid.UUID {
	id := uuid.New()
	s.rows[id] = &model.Enrollment{
		EnrollmentID:            id,
		EnrollmentStatus:        model.EnrollmentStatusPending,
		EnrollmentPaymentStatus: paymentStatus,
		CreatedAt:               now.Add(-age),
	}
	return id
}

func unresolved(status string) bool {
	return status == model.EnrollPaymentStatusPending ||
		status == model.EnrollPaymentStatusProcessing
}

func (s *memStaleStore) ListStalePending(_ context.Context, cutoff time.Time) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range s.rows {
		if unresolved(e.EnrollmentPaymentStatus) && e.CreatedAt.Before(cutoff) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memStaleStore) MarkTimedOut(_ context.Context, id uuid.UUID) error {
	if s.failIDs[id] {
		return errors.New("row locked")
	}
	e := s.rows[id]
	if !unresolved(e.EnrollmentPaymentStatus) {
		return nil
	}
	s.marks++
	e.EnrollmentPaymentStatus = model.EnrollPaymentStatusFailed
	msg := model.PaymentTimeoutMessage
	e.EnrollmentPaymentError = &msg
	e.EnrollmentStatus = model.EnrollmentStatusPaymentFailed
	return nil
}

func newTestReconciler(store StaleStore, now time.Time) *Reconciler {
	r := NewReconciler(store)
	r.Now = func() time.Time { return now }
	return r
}

func TestSweepMarksOnlyStalePending(t *testing.T) {
	now := time.Now()
	store := newMemStaleStore()

	stale := store.add(model.EnrollPaymentStatusPending, 25*time.Hour, now)
	fresh := store.add(model.EnrollPaymentStatusPending, 23*time.Hour, now)
	done := store.add(model.EnrollPaymentStatusCompleted, 48*time.Hour, now)
	failed := store.add(model.EnrollPaymentStatusFailed, 48*time.Hour, now)

	updated, err := newTestReconciler(store, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	got := store.rows[stale]
	if got.EnrollmentPaymentStatus != model.EnrollPaymentStatusFailed {
		t.Fatalf("payment status = %s", got.EnrollmentPaymentStatus)
	}
	if got.EnrollmentStatus != model.EnrollmentStatusPaymentFailed {
		t.Fatalf("status = %s", got.EnrollmentStatus)
	}
	if got.EnrollmentPaymentError == nil || *got.EnrollmentPaymentError != "Payment timeout - no response received" {
		t.Fatalf("error message = %v", got.EnrollmentPaymentError)
	}

	if store.rows[fresh].EnrollmentPaymentStatus != model.EnrollPaymentStatusPending {
		t.Fatal("payment younger than the timeout must stay pending")
	}
	if store.rows[done].EnrollmentPaymentStatus != model.EnrollPaymentStatusCompleted {
		t.Fatal("completed payment must not be touched")
	}
	if store.rows[failed].EnrollmentStatus != model.EnrollmentStatusPending {
		t.Fatal("already-failed payment must not be re-marked")
	}
}

// A charge can start and never resolve: the flow marks the payment
// processing, then the process dies or the gateway call is abandoned. Those
// rows must be closed by the sweep just like never-attempted ones.
func TestSweepClosesAbandonedProcessingPayment(t *testing.T) {
	now := time.Now()
	store := newMemStaleStore()

	abandoned := store.add(model.EnrollPaymentStatusProcessing, 25*time.Hour, now)
	inFlight := store.add(model.EnrollPaymentStatusProcessing, 1*time.Hour, now)

	updated, err := newTestReconciler(store, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	got := store.rows[abandoned]
	if got.EnrollmentPaymentStatus != model.EnrollPaymentStatusFailed {
		t.Fatalf("abandoned processing row not closed: %s", got.EnrollmentPaymentStatus)
	}
	if got.EnrollmentStatus != model.EnrollmentStatusPaymentFailed {
		t.Fatalf("status = %s", got.EnrollmentStatus)
	}
	if got.EnrollmentPaymentError == nil || *got.EnrollmentPaymentError != model.PaymentTimeoutMessage {
		t.Fatalf("error message = %v", got.EnrollmentPaymentError)
	}

	if store.rows[inFlight].EnrollmentPaymentStatus != model.EnrollPaymentStatusProcessing {
		t.Fatal("a recent processing charge must be left alone")
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Now()
	store := newMemStaleStore()
	store.add(model.EnrollPaymentStatusPending, 30*time.Hour, now)
	store.add(model.EnrollPaymentStatusPending, 40*time.Hour, now)

	rec := newTestReconciler(store, now)
	ctx := context.Background()

	first, err := rec.Sweep(ctx)
	if err != nil || first != 2 {
		t.Fatalf("first sweep = %d, %v", first, err)
	}
	second, err := rec.Sweep(ctx)
	if err != nil || second != 0 {
		t.Fatalf("second sweep = %d, %v; want 0", second, err)
	}
	if store.marks != 2 {
		t.Fatalf("marks = %d, want 2", store.marks)
	}
}

func TestSweepSkipsFailingRow(t *testing.T) {
	now := time.Now()
	store := newMemStaleStore()
	bad := store.add(model.EnrollPaymentStatusPending, 30*time.Hour, now)
	store.add(model.EnrollPaymentStatusPending, 30*time.Hour, now)
	store.add(model.EnrollPaymentStatusPending, 30*time.Hour, now)
	store.failIDs[bad] = true

	updated, err := newTestReconciler(store, now).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated = %d, want 2 despite one failing row", updated)
	}
	if store.rows[bad].EnrollmentPaymentStatus != model.EnrollPaymentStatusPending {
		t.Fatal("failing row must be left for the next sweep")
	}
}

func TestSweepCustomTimeout(t *testing.T) {
	now := time.Now()
	store := newMemStaleStore()
	store.add(model.EnrollPaymentStatusPending, 3*time.Hour, now)

	rec := newTestReconciler(store, now)
	rec.StaleAfter = 2 * time.Hour

	updated, err := rec.Sweep(context.Background())
	if err != nil || updated != 1 {
		t.Fatalf("updated = %d, %v; want 1", updated, err)
	}
}
