package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	"kartacademy_backend/internals/features/finance/payments/gateway"
	paymentModel "kartacademy_backend/internals/features/finance/payments/model"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
)

/* ===================== fakes ===================== */

type fakeCourses struct {
	byID map[uuid.UUID]*CourseRef
}

func (f *fakeCourses) GetActive(_ context.Context, id uuid.UUID) (*CourseRef, error) {
	return f.byID[id], nil
}

type fakeProfiles struct {
	byUser   map[uuid.UUID]*parentModel.Parent
	students []*studentModel.Student
	links    map[uuid.UUID][]uuid.UUID
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		byUser: map[uuid.UUID]*parentModel.Parent{},
		links:  map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeProfiles) FindParentByUserID(_ context.Context, userID uuid.UUID) (*parentModel.Parent, error) {
	return f.byUser[userID], nil
}

func (f *fakeProfiles) CreateParent(_ context.Context, p *parentModel.Parent) error {
	p.ParentID = uuid.New()
	if p.ParentUserID != nil {
		f.byUser[*p.ParentUserID] = p
	}
	return nil
}

func (f *fakeProfiles) CreateStudent(_ context.Context, s *studentModel.Student) error {
	s.StudentID = uuid.New()
	f.students = append(f.students, s)
	return nil
}

func (f *fakeProfiles) LinkStudent(_ context.Context, parentID, studentID uuid.UUID) error {
	f.links[parentID] = append(f.links[parentID], studentID)
	return nil
}

type fakeEnrollments struct {
	byID    map[uuid.UUID]*enrollModel.Enrollment
	byKey   map[string]uuid.UUID
	upserts int
}

func newFakeEnrollments() *fakeEnrollments {
	return &fakeEnrollments{
		byID:  map[uuid.UUID]*enrollModel.Enrollment{},
		byKey: map[string]uuid.UUID{},
	}
}

func (f *fakeEnrollments) UpsertPending(_ context.Context, e *enrollModel.Enrollment) (*enrollModel.Enrollment, error) {
	f.upserts++
	if id, ok := f.byKey[*e.EnrollmentIdempotencyKey]; ok {
		return f.byID[id], nil
	}
	cp := *e
	cp.EnrollmentID = uuid.New()
	cp.CreatedAt = time.Now()
	f.byID[cp.EnrollmentID] = &cp
	f.byKey[*cp.EnrollmentIdempotencyKey] = cp.EnrollmentID
	return &cp, nil
}

func (f *fakeEnrollments) GetByID(_ context.Context, id uuid.UUID) (*enrollModel.Enrollment, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnrollments) MarkProcessing(_ context.Context, id uuid.UUID) error {
	f.byID[id].EnrollmentPaymentStatus = enrollModel.EnrollPaymentStatusProcessing
	return nil
}

func (f *fakeEnrollments) RecordPaymentSuccess(_ context.Context, id uuid.UUID, txID string, paymentID uuid.UUID) error {
	e := f.byID[id]
	e.EnrollmentPaymentStatus = enrollModel.EnrollPaymentStatusCompleted
	e.EnrollmentPaymentTransactionID = &txID
	e.EnrollmentPaymentID = &paymentID
	e.EnrollmentPaymentError = nil
	return nil
}

func (f *fakeEnrollments) RecordPaymentFailure(_ context.Context, id uuid.UUID, msg string) error {
	e := f.byID[id]
	e.EnrollmentPaymentStatus = enrollModel.EnrollPaymentStatusFailed
	e.EnrollmentPaymentError = &msg
	return nil
}

func (f *fakeEnrollments) AttachStudentAndConfirm(_ context.Context, id, studentID uuid.UUID) error {
	e := f.byID[id]
	e.EnrollmentStudentID = &studentID
	e.EnrollmentStatus = enrollModel.EnrollmentStatusConfirmed
	return nil
}

func (f *fakeEnrollments) Cancel(_ context.Context, id uuid.UUID) error {
	f.byID[id].EnrollmentStatus = enrollModel.EnrollmentStatusCancelled
	return nil
}

type fakePayments struct {
	created []*paymentModel.Payment
}

func (f *fakePayments) Create(_ context.Context, p *paymentModel.Payment) error {
	p.PaymentID = uuid.New()
	f.created = append(f.created, p)
	return nil
}

type fakeGateway struct {
	results []gateway.ChargeResult
	errs    []error
	calls   int
}

func (f *fakeGateway) ProcessPayment(_ context.Context, _ gateway.ChargeRequest) (gateway.ChargeResult, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var res gateway.ChargeResult
	if i < len(f.results) {
		res = f.results[i]
	}
	return res, err
}

func (f *fakeGateway) RefundPayment(_ context.Context, _ string, _ float64) (gateway.RefundResult, error) {
	return gateway.RefundResult{Success: true}, nil
}

func (f *fakeGateway) ListStoredPaymentMethods(_ context.Context, _ uuid.UUID) ([]paymentModel.PaymentToken, error) {
	return nil, nil
}

type fakeNotifier struct {
	enrollSent int
	paySent    int
	enrollErr  error
	payErr     error
}

func (f *fakeNotifier) SendEnrollmentConfirmation(_ context.Context, _ ConfirmationNotice) error {
	f.enrollSent++
	return f.enrollErr
}

func (f *fakeNotifier) SendPaymentConfirmation(_ context.Context, _ PaymentNotice) error {
	f.paySent++
	return f.payErr
}

type memSnapshots struct {
	m map[string]FlowState
}

func newMemSnapshots() *memSnapshots { return &memSnapshots{m: map[string]FlowState{}} }

func (f *memSnapshots) Save(_ context.Context, st *FlowState) error {
	f.m[st.FlowKey] = *st
	return nil
}

func (f *memSnapshots) Load(_ context.Context, key string) (*FlowState, error) {
	st, ok := f.m[key]
	if !ok {
		return nil, ErrFlowNotFound
	}
	cp := st
	return &cp, nil
}

func (f *memSnapshots) Delete(_ context.Context, key string) error {
	delete(f.m, key)
	return nil
}

/* ===================== harness ===================== */

type flowFixture struct {
	svc         *FlowService
	courses     *fakeCourses
	profiles    *fakeProfiles
	enrollments *fakeEnrollments
	payments    *fakePayments
	gateway     *fakeGateway
	notifier    *fakeNotifier
	snapshots   *memSnapshots

	courseID uuid.UUID
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	courseID := uuid.New()
	fx := &flowFixture{
		courses: &fakeCourses{byID: map[uuid.UUID]*CourseRef{
			courseID: {ID: courseID, Name: "Rookie Racer Camp", Amount: 299, Currency: "USD"},
		}},
		profiles:    newFakeProfiles(),
		enrollments: newFakeEnrollments(),
		payments:    &fakePayments{},
		gateway:     &fakeGateway{results: []gateway.ChargeResult{{Success: true, TransactionID: "tx_ok"}}},
		notifier:    &fakeNotifier{},
		snapshots:   newMemSnapshots(),
		courseID:    courseID,
	}
	fx.svc = &FlowService{
		Courses:         fx.courses,
		Profiles:        fx.profiles,
		Enrollments:     fx.enrollments,
		Payments:        fx.payments,
		Gateway:         fx.gateway,
		Notifier:        fx.notifier,
		Snapshots:       fx.snapshots,
		GatewayProvider: "simulated",
	}
	return fx
}

func (fx *flowFixture) startAndAuth(t *testing.T, userID uuid.UUID) *FlowState {
	t.Helper()
	ctx := context.Background()
	st, err := fx.svc.Start(ctx, fx.courseID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, err = fx.svc.SubmitAuth(ctx, st.FlowKey, userID)
	if err != nil {
		t.Fatalf("SubmitAuth: %v", err)
	}
	return st
}

func (fx *flowFixture) toPayment(t *testing.T) *FlowState {
	t.Helper()
	ctx := context.Background()
	st := fx.startAndAuth(t, uuid.New())
	if st.Step != StepParent {
		t.Fatalf("expected parent step for new user, got %s", st.Step)
	}
	st, err := fx.svc.SubmitParent(ctx, st.FlowKey, ParentInput{
		FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com", Phone: "555-0101",
	})
	if err != nil {
		t.Fatalf("SubmitParent: %v", err)
	}
	return st
}

var cardInput = PaymentInput{Card: &gateway.CardDetails{
	Number: "4242424242424242", HolderName: "Dana Reyes", ExpMonth: 4, ExpYear: 2030, CVV: "123",
}}

/* ===================== tests ===================== */

func TestFlowHappyPath(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	st := fx.toPayment(t)
	if st.Step != StepPayment {
		t.Fatalf("step = %s, want %s", st.Step, StepPayment)
	}
	if st.EnrollmentID == nil || st.ParentID == nil {
		t.Fatal("enrollment and parent must be set before payment")
	}

	enr := fx.enrollments.byID[*st.EnrollmentID]
	if enr.EnrollmentPaymentAmount != 299 || enr.EnrollmentPaymentCurrency != "USD" {
		t.Fatalf("price snapshot = %v %s", enr.EnrollmentPaymentAmount, enr.EnrollmentPaymentCurrency)
	}

	st, err := fx.svc.SubmitPayment(ctx, st.FlowKey, cardInput)
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if st.Step != StepStudent || st.PaymentError != "" {
		t.Fatalf("after success: step=%s err=%q", st.Step, st.PaymentError)
	}
	if len(fx.payments.created) != 1 {
		t.Fatalf("payments created = %d, want 1", len(fx.payments.created))
	}
	if fx.payments.created[0].PaymentTransactionID != "tx_ok" {
		t.Fatalf("transaction id = %s", fx.payments.created[0].PaymentTransactionID)
	}

	st, err = fx.svc.SubmitStudent(ctx, st.FlowKey, StudentInput{
		FirstName: "Max", LastName: "Reyes",
		DateOfBirth:   time.Date(2016, 5, 2, 0, 0, 0, 0, time.UTC),
		EmergencyName: "Dana Reyes", EmergencyPhone: "555-0101", Experience: "none",
	})
	if err != nil {
		t.Fatalf("SubmitStudent: %v", err)
	}
	if st.Step != StepConfirmation {
		t.Fatalf("step = %s, want %s", st.Step, StepConfirmation)
	}

	enr = fx.enrollments.byID[*st.EnrollmentID]
	if enr.EnrollmentStatus != enrollModel.EnrollmentStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", enr.EnrollmentStatus)
	}
	if enr.EnrollmentStudentID == nil {
		t.Fatal("student not attached")
	}
	if got := fx.profiles.links[*st.ParentID]; len(got) != 1 || got[0] != *enr.EnrollmentStudentID {
		t.Fatalf("parent link = %v", got)
	}
	if fx.notifier.paySent != 1 || fx.notifier.enrollSent != 1 {
		t.Fatalf("notices sent: payment=%d enrollment=%d, want 1 each",
			fx.notifier.paySent, fx.notifier.enrollSent)
	}

	if err := fx.svc.Close(ctx, st.FlowKey); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := fx.svc.Resume(ctx, st.FlowKey); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("expected flow gone after close, got %v", err)
	}
}

func TestFlowAuthSkipsParentStepForExistingProfile(t *testing.T) {
	fx := newFlowFixture(t)
	userID := uuid.New()
	parent := &parentModel.Parent{ParentID: uuid.New(), ParentUserID: &userID, ParentEmail: "known@example.com"}
	fx.profiles.byUser[userID] = parent

	st := fx.startAndAuth(t, userID)
	if st.Step != StepPayment {
		t.Fatalf("step = %s, want %s", st.Step, StepPayment)
	}
	if st.ParentID == nil || *st.ParentID != parent.ParentID {
		t.Fatal("flow should carry the existing parent")
	}
	if st.EnrollmentID == nil {
		t.Fatal("enrollment should be created when jumping to payment")
	}
}

func TestFlowForwardOnly(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	st := fx.toPayment(t)

	// stepping backwards or repeating an earlier step is rejected
	if _, err := fx.svc.SubmitAuth(ctx, st.FlowKey, uuid.New()); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SubmitAuth at payment: %v", err)
	}
	if _, err := fx.svc.SubmitParent(ctx, st.FlowKey, ParentInput{}); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SubmitParent at payment: %v", err)
	}
	// and skipping ahead is rejected too
	if _, err := fx.svc.SubmitStudent(ctx, st.FlowKey, StudentInput{}); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SubmitStudent at payment: %v", err)
	}
}

func TestFlowDeclineKeepsPaymentStep(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.gateway.results = []gateway.ChargeResult{
		{Success: false, ErrorMessage: "Card declined"},
		{Success: true, TransactionID: "tx_retry"},
	}

	st := fx.toPayment(t)

	st, err := fx.svc.SubmitPayment(ctx, st.FlowKey, cardInput)
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if st.Step != StepPayment {
		t.Fatalf("declined payment moved flow to %s", st.Step)
	}
	if st.PaymentError != "Card declined" {
		t.Fatalf("payment error = %q", st.PaymentError)
	}
	enr := fx.enrollments.byID[*st.EnrollmentID]
	if enr.EnrollmentPaymentStatus != enrollModel.EnrollPaymentStatusFailed {
		t.Fatalf("payment status = %s", enr.EnrollmentPaymentStatus)
	}
	if enr.EnrollmentPaymentError == nil || *enr.EnrollmentPaymentError != "Card declined" {
		t.Fatalf("payment error on enrollment = %v", enr.EnrollmentPaymentError)
	}
	if len(fx.payments.created) != 0 {
		t.Fatal("no payment record may exist for a decline")
	}

	// retry on the same flow succeeds and clears the error
	st, err = fx.svc.SubmitPayment(ctx, st.FlowKey, cardInput)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if st.Step != StepStudent || st.PaymentError != "" {
		t.Fatalf("after retry: step=%s err=%q", st.Step, st.PaymentError)
	}
}

func TestFlowGatewayErrorIsNotFatal(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.gateway.errs = []error{errors.New("connection reset")}

	st := fx.toPayment(t)
	st, err := fx.svc.SubmitPayment(ctx, st.FlowKey, cardInput)
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if st.Step != StepPayment || st.PaymentError == "" {
		t.Fatalf("transport failure: step=%s err=%q", st.Step, st.PaymentError)
	}
}

func TestFlowEnrollmentCreatedOnce(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.gateway.results = []gateway.ChargeResult{
		{Success: false, ErrorMessage: "Card declined"},
		{Success: false, ErrorMessage: "Card declined"},
	}

	st := fx.toPayment(t)
	for i := 0; i < 2; i++ {
		var err error
		st, err = fx.svc.SubmitPayment(ctx, st.FlowKey, cardInput)
		if err != nil {
			t.Fatalf("SubmitPayment %d: %v", i, err)
		}
	}
	if len(fx.enrollments.byID) != 1 {
		t.Fatalf("enrollments = %d, want 1", len(fx.enrollments.byID))
	}
}

func TestFlowStudentRequiresClearedPayment(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	st := fx.toPayment(t)

	// force the step forward without the payment actually clearing
	st.Step = StepStudent
	if err := fx.snapshots.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	_, err := fx.svc.SubmitStudent(ctx, st.FlowKey, StudentInput{FirstName: "Max"})
	if !errors.Is(err, ErrPaymentNotClear) {
		t.Fatalf("err = %v, want ErrPaymentNotClear", err)
	}
}

func TestFlowNotificationFailure(t *testing.T) {
	submitAll := func(t *testing.T, fx *flowFixture) (*FlowState, error) {
		ctx := context.Background()
		st := fx.toPayment(t)
		st, err := fx.svc.SubmitPayment(ctx, st.FlowKey, cardInput)
		if err != nil {
			t.Fatalf("SubmitPayment: %v", err)
		}
		return fx.svc.SubmitStudent(ctx, st.FlowKey, StudentInput{
			FirstName: "Max", EmergencyName: "Dana", EmergencyPhone: "555-0101", Experience: "none",
			DateOfBirth: time.Date(2016, 5, 2, 0, 0, 0, 0, time.UTC),
		})
	}

	t.Run("best effort by default", func(t *testing.T) {
		fx := newFlowFixture(t)
		fx.notifier.enrollErr = errors.New("smtp down")
		fx.notifier.payErr = errors.New("smtp down")
		st, err := submitAll(t, fx)
		if err != nil {
			t.Fatalf("notification failure must not fail the step: %v", err)
		}
		if st.Step != StepConfirmation {
			t.Fatalf("step = %s", st.Step)
		}
	})

	t.Run("hard failure when required", func(t *testing.T) {
		fx := newFlowFixture(t)
		fx.svc.NotifyRequired = true
		fx.notifier.enrollErr = errors.New("smtp down")
		if _, err := submitAll(t, fx); err == nil {
			t.Fatal("expected error with NotifyRequired set")
		}
		// the receipt still goes out even though the confirmation failed
		if fx.notifier.paySent != 1 {
			t.Fatalf("payment notices sent = %d, want 1", fx.notifier.paySent)
		}
	})

	t.Run("receipt failure does not suppress confirmation", func(t *testing.T) {
		fx := newFlowFixture(t)
		fx.notifier.payErr = errors.New("smtp down")
		st, err := submitAll(t, fx)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if st.Step != StepConfirmation {
			t.Fatalf("step = %s", st.Step)
		}
		if fx.notifier.enrollSent != 1 {
			t.Fatalf("enrollment notices sent = %d, want 1", fx.notifier.enrollSent)
		}
	})
}

func TestFlowResumeAfterInterruption(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	st := fx.toPayment(t)

	// a fresh load of the flow key lands on the same step with the same ids
	got, err := fx.svc.Resume(ctx, st.FlowKey)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got.Step != st.Step || *got.EnrollmentID != *st.EnrollmentID {
		t.Fatalf("resumed state mismatch: %+v vs %+v", got, st)
	}
}

func TestFlowAbortCancelsUnpaidEnrollment(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	st := fx.toPayment(t)
	if err := fx.svc.Abort(ctx, st.FlowKey); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	enr := fx.enrollments.byID[*st.EnrollmentID]
	if enr.EnrollmentStatus != enrollModel.EnrollmentStatusCancelled {
		t.Fatalf("status = %s, want cancelled", enr.EnrollmentStatus)
	}
	if _, err := fx.svc.Resume(ctx, st.FlowKey); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("snapshot should be gone, got %v", err)
	}
}

func TestFlowStartUnknownCourse(t *testing.T) {
	fx := newFlowFixture(t)
	if _, err := fx.svc.Start(context.Background(), uuid.New()); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}
