package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"kartacademy_backend/internals/features/finance/payments/gateway"
	"kartacademy_backend/internals/features/finance/payments/model"
)

type memRefundStore struct {
	payments map[uuid.UUID]*model.Payment
	notes    map[uuid.UUID][]string

	marks   int
	markErr error
	noteErr error
}

func newMemRefundStore(payments ...*model.Payment) *memRefundStore {
	s := &memRefundStore{
		payments: map[uuid.UUID]*model.Payment{},
		notes:    map[uuid.UUID][]string{},
	}
	for _, p := range payments {
		s.payments[p.PaymentID] = p
	}
	return s
}

func (s *memRefundStore) GetPayment(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memRefundStore) MarkRefunded(_ context.Context, p *model.Payment) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marks++
	s.payments[p.PaymentID] = p
	return nil
}

func (s *memRefundStore) AppendRefundNote(_ context.Context, enrollmentID uuid.UUID, note string) error {
	if s.noteErr != nil {
		return s.noteErr
	}
	s.notes[enrollmentID] = append(s.notes[enrollmentID], note)
	return nil
}

type refundGatewaySpy struct {
	result gateway.RefundResult
	err    error

	calls  int
	gotTx  string
	gotAmt float64
}

func (g *refundGatewaySpy) ProcessPayment(_ context.Context, _ gateway.ChargeRequest) (gateway.ChargeResult, error) {
	return gateway.ChargeResult{}, errors.New("not used")
}

func (g *refundGatewaySpy) RefundPayment(_ context.Context, transactionID string, amount float64) (gateway.RefundResult, error) {
	g.calls++
	g.gotTx = transactionID
	g.gotAmt = amount
	return g.result, g.err
}

func (g *refundGatewaySpy) ListStoredPaymentMethods(_ context.Context, _ uuid.UUID) ([]model.PaymentToken, error) {
	return nil, nil
}

func completedPayment() *model.Payment {
	return &model.Payment{
		PaymentID:            uuid.New(),
		PaymentEnrollmentID:  uuid.New(),
		PaymentAmount:        299,
		PaymentCurrency:      "USD",
		PaymentStatus:        model.PaymentStatusCompleted,
		PaymentTransactionID: "tx_abc123",
	}
}

func TestRefundHappyPath(t *testing.T) {
	ctx := context.Background()
	pay := completedPayment()
	store := newMemRefundStore(pay)
	gw := &refundGatewaySpy{result: gateway.RefundResult{Success: true}}

	refundedAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc := NewRefundService(store, gw)
	svc.Now = func() time.Time { return refundedAt }

	got, err := svc.Refund(ctx, pay.PaymentID, "customer request")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}

	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if gw.gotTx != "tx_abc123" || gw.gotAmt != 299 {
		t.Fatalf("gateway got tx=%s amount=%.2f", gw.gotTx, gw.gotAmt)
	}

	if got.PaymentStatus != model.PaymentStatusRefunded {
		t.Fatalf("status = %s", got.PaymentStatus)
	}
	if got.PaymentRefundedAt == nil || !got.PaymentRefundedAt.Equal(refundedAt) {
		t.Fatalf("refunded at = %v", got.PaymentRefundedAt)
	}
	if store.marks != 1 {
		t.Fatalf("marks = %d, want 1", store.marks)
	}
	if notes := store.notes[pay.PaymentEnrollmentID]; len(notes) != 1 || notes[0] != "Refunded: customer request" {
		t.Fatalf("notes = %v", notes)
	}
}

func TestRefundWithoutReasonSkipsNote(t *testing.T) {
	pay := completedPayment()
	store := newMemRefundStore(pay)
	svc := NewRefundService(store, &refundGatewaySpy{result: gateway.RefundResult{Success: true}})

	if _, err := svc.Refund(context.Background(), pay.PaymentID, ""); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if len(store.notes) != 0 {
		t.Fatalf("notes = %v, want none", store.notes)
	}
}

func TestRefundUnknownPayment(t *testing.T) {
	gw := &refundGatewaySpy{result: gateway.RefundResult{Success: true}}
	svc := NewRefundService(newMemRefundStore(), gw)

	if _, err := svc.Refund(context.Background(), uuid.New(), ""); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway calls = %d, want 0", gw.calls)
	}
}

func TestRefundAlreadyRefunded(t *testing.T) {
	pay := completedPayment()
	pay.PaymentStatus = model.PaymentStatusRefunded
	gw := &refundGatewaySpy{result: gateway.RefundResult{Success: true}}
	svc := NewRefundService(newMemRefundStore(pay), gw)

	if _, err := svc.Refund(context.Background(), pay.PaymentID, ""); !errors.Is(err, ErrAlreadyRefunded) {
		t.Fatalf("err = %v, want ErrAlreadyRefunded", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway calls = %d, want 0", gw.calls)
	}
}

func TestRefundDeclineLeavesPaymentUntouched(t *testing.T) {
	pay := completedPayment()
	store := newMemRefundStore(pay)
	gw := &refundGatewaySpy{result: gateway.RefundResult{Success: false, ErrorMessage: "Refund window expired"}}
	svc := NewRefundService(store, gw)

	_, err := svc.Refund(context.Background(), pay.PaymentID, "too late")
	var declined *DeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("err = %v, want DeclinedError", err)
	}
	if declined.Message != "Refund window expired" {
		t.Fatalf("message = %q", declined.Message)
	}
	if store.marks != 0 {
		t.Fatalf("marks = %d, want 0", store.marks)
	}
	if store.payments[pay.PaymentID].PaymentStatus != model.PaymentStatusCompleted {
		t.Fatalf("status = %s, want completed", store.payments[pay.PaymentID].PaymentStatus)
	}
	if len(store.notes) != 0 {
		t.Fatalf("notes = %v, want none", store.notes)
	}
}

func TestRefundGatewayTransportError(t *testing.T) {
	pay := completedPayment()
	store := newMemRefundStore(pay)
	svc := NewRefundService(store, &refundGatewaySpy{err: errors.New("connection reset")})

	if _, err := svc.Refund(context.Background(), pay.PaymentID, ""); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
	if store.marks != 0 {
		t.Fatalf("marks = %d, want 0", store.marks)
	}
}

func TestRefundBookkeepingErrorPropagates(t *testing.T) {
	pay := completedPayment()
	store := newMemRefundStore(pay)
	store.markErr = errors.New("db down")
	svc := NewRefundService(store, &refundGatewaySpy{result: gateway.RefundResult{Success: true}})

	if _, err := svc.Refund(context.Background(), pay.PaymentID, ""); err == nil {
		t.Fatal("expected error when bookkeeping fails")
	}
}

func TestRefundNoteFailureIsBestEffort(t *testing.T) {
	pay := completedPayment()
	store := newMemRefundStore(pay)
	store.noteErr = errors.New("notes table locked")
	svc := NewRefundService(store, &refundGatewaySpy{result: gateway.RefundResult{Success: true}})

	got, err := svc.Refund(context.Background(), pay.PaymentID, "customer request")
	if err != nil {
		t.Fatalf("note failure must not fail the refund: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusRefunded {
		t.Fatalf("status = %s", got.PaymentStatus)
	}
}
