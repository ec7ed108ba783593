package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	"kartacademy_backend/internals/features/finance/payments/gateway"
	paymentModel "kartacademy_backend/internals/features/finance/payments/model"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
)

// FlowService drives the multi-step enrollment checkout:
// auth -> parent_profile -> payment -> student_registration -> confirmation.
// Movement is forward-only; a declined payment keeps the flow at the payment
// step with the decline message in state.
type FlowService struct {
	Courses     CourseStore
	Profiles    ProfileStore
	Enrollments EnrollmentStore
	Payments    PaymentStore
	Gateway     gateway.PaymentGateway
	Notifier    NotificationSender
	Snapshots   SnapshotStore

	// NotifyRequired turns a confirmation-notice failure into a hard error.
	// Default is best-effort: log and keep the enrollment confirmed.
	NotifyRequired bool

	GatewayProvider string

	Now func() time.Time
}

func (s *FlowService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

/* =========================================================
   Start / Resume
   ========================================================= */

func (s *FlowService) Start(ctx context.Context, courseID uuid.UUID) (*FlowState, error) {
	course, err := s.Courses.GetActive(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	st := &FlowState{
		FlowKey:   newFlowKey(),
		Step:      StepAuth,
		CourseID:  course.ID,
		StartedAt: s.now(),
	}
	if err := s.Snapshots.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *FlowService) Resume(ctx context.Context, flowKey string) (*FlowState, error) {
	return s.Snapshots.Load(ctx, flowKey)
}

/* =========================================================
   Step: auth
   ========================================================= */

// SubmitAuth records the authenticated user on the flow. When the user
// already has a parent profile the parent step is skipped: the enrollment is
// created immediately and the flow lands on payment.
func (s *FlowService) SubmitAuth(ctx context.Context, flowKey string, userID uuid.UUID) (*FlowState, error) {
	st, err := s.Snapshots.Load(ctx, flowKey)
	if err != nil {
		return nil, err
	}
	if st.Step != StepAuth {
		return nil, ErrWrongStep
	}

	st.UserID = &userID

	parent, err := s.Profiles.FindParentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		st.Step = StepParent
		if err := s.Snapshots.Save(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	st.ParentID = &parent.ParentID
	if err := s.ensureEnrollment(ctx, st); err != nil {
		return nil, err
	}
	st.Step = StepPayment
	if err := s.Snapshots.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

/* =========================================================
   Step: parent_profile
   ========================================================= */

type ParentInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   *string
}

func (s *FlowService) SubmitParent(ctx context.Context, flowKey string, in ParentInput) (*FlowState, error) {
	st, err := s.Snapshots.Load(ctx, flowKey)
	if err != nil {
		return nil, err
	}
	if st.Step != StepParent {
		return nil, ErrWrongStep
	}

	parent := &parentModel.Parent{
		ParentUserID:    st.UserID,
		ParentFirstName: in.FirstName,
		ParentLastName:  in.LastName,
		ParentEmail:     in.Email,
		ParentPhone:     in.Phone,
		ParentAddress:   in.Address,
	}
	if err := s.Profiles.CreateParent(ctx, parent); err != nil {
		return nil, err
	}

	st.ParentID = &parent.ParentID
	if err := s.ensureEnrollment(ctx, st); err != nil {
		return nil, err
	}
	st.Step = StepPayment
	if err := s.Snapshots.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ensureEnrollment creates the pending enrollment for (parent, course, flow)
// exactly once; re-entering the step finds the existing row through the
// idempotency key.
func (s *FlowService) ensureEnrollment(ctx context.Context, st *FlowState) error {
	if st.EnrollmentID != nil {
		return nil
	}
	course, err := s.Courses.GetActive(ctx, st.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrCourseNotFound
	}

	key := idempotencyKey(*st.ParentID, st.CourseID, st.FlowKey)
	row, err := s.Enrollments.UpsertPending(ctx, &enrollModel.Enrollment{
		EnrollmentParentID:        *st.ParentID,
		EnrollmentCourseID:        st.CourseID,
		EnrollmentStatus:          enrollModel.EnrollmentStatusPending,
		EnrollmentPaymentAmount:   course.Amount,
		EnrollmentPaymentCurrency: course.Currency,
		EnrollmentPaymentStatus:   enrollModel.EnrollPaymentStatusPending,
		EnrollmentIdempotencyKey:  &key,
	})
	if err != nil {
		return err
	}
	st.EnrollmentID = &row.EnrollmentID
	return nil
}

/* =========================================================
   Step: payment
   ========================================================= */

type PaymentInput struct {
	Card     *gateway.CardDetails
	TokenID  *uuid.UUID
	SaveCard bool
}

// SubmitPayment charges the gateway. Success moves the flow to the student
// step and writes the finalized payment record; a decline records the failure
// on the enrollment and keeps the flow at payment so the form can be retried.
func (s *FlowService) SubmitPayment(ctx context.Context, flowKey string, in PaymentInput) (*FlowState, error) {
	st, err := s.Snapshots.Load(ctx, flowKey)
	if err != nil {
		return nil, err
	}
	if st.Step != StepPayment {
		return nil, ErrWrongStep
	}
	if !st.hasEnrollmentAndParent() {
		return nil, ErrGuardViolated
	}

	enr, err := s.Enrollments.GetByID(ctx, *st.EnrollmentID)
	if err != nil {
		return nil, err
	}

	// resubmit after a success that the client missed: just advance
	if enr.EnrollmentPaymentStatus == enrollModel.EnrollPaymentStatusCompleted {
		st.Step = StepStudent
		st.PaymentError = ""
		if err := s.Snapshots.Save(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	if err := s.Enrollments.MarkProcessing(ctx, enr.EnrollmentID); err != nil {
		return nil, err
	}

	course, err := s.Courses.GetActive(ctx, st.CourseID)
	if err != nil {
		return nil, err
	}
	courseName := ""
	if course != nil {
		courseName = course.Name
	}

	res, err := s.Gateway.ProcessPayment(ctx, gateway.ChargeRequest{
		EnrollmentID: enr.EnrollmentID,
		CourseID:     st.CourseID,
		CourseName:   courseName,
		CustomerID:   *st.ParentID,
		Amount:       enr.EnrollmentPaymentAmount,
		Currency:     enr.EnrollmentPaymentCurrency,
		Card:         in.Card,
		TokenID:      in.TokenID,
		SaveCard:     in.SaveCard,
	})
	if err != nil {
		// transport-level failure, not a decline
		msg := fmt.Sprintf("Payment processing error: %v", err)
		if ferr := s.Enrollments.RecordPaymentFailure(ctx, enr.EnrollmentID, msg); ferr != nil {
			log.Printf("[FLOW] record payment failure: %v", ferr)
		}
		st.PaymentError = msg
		if serr := s.Snapshots.Save(ctx, st); serr != nil {
			return nil, serr
		}
		return st, nil
	}

	if !res.Success {
		if ferr := s.Enrollments.RecordPaymentFailure(ctx, enr.EnrollmentID, res.ErrorMessage); ferr != nil {
			log.Printf("[FLOW] record payment failure: %v", ferr)
		}
		st.PaymentError = res.ErrorMessage
		if serr := s.Snapshots.Save(ctx, st); serr != nil {
			return nil, serr
		}
		return st, nil
	}

	pay := &paymentModel.Payment{
		PaymentEnrollmentID:    enr.EnrollmentID,
		PaymentParentID:        st.ParentID,
		PaymentAmount:          enr.EnrollmentPaymentAmount,
		PaymentCurrency:        enr.EnrollmentPaymentCurrency,
		PaymentStatus:          paymentModel.PaymentStatusCompleted,
		PaymentMethod:          methodFor(in),
		PaymentGatewayProvider: s.GatewayProvider,
		PaymentTransactionID:   res.TransactionID,
	}
	if in.Card != nil && len(in.Card.Number) >= 4 {
		last4 := in.Card.Number[len(in.Card.Number)-4:]
		pay.PaymentCardLast4 = &last4
	}
	if res.StoredToken != nil {
		pay.PaymentTokenID = &res.StoredToken.TokenID
	} else if in.TokenID != nil {
		pay.PaymentTokenID = in.TokenID
	}
	if err := s.Payments.Create(ctx, pay); err != nil {
		return nil, err
	}
	if err := s.Enrollments.RecordPaymentSuccess(ctx, enr.EnrollmentID, res.TransactionID, pay.PaymentID); err != nil {
		return nil, err
	}

	st.Step = StepStudent
	st.PaymentError = ""
	if err := s.Snapshots.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func methodFor(in PaymentInput) string {
	if in.TokenID != nil {
		return paymentModel.PaymentMethodStoredCard
	}
	return paymentModel.PaymentMethodCard
}

/* =========================================================
   Step: student_registration
   ========================================================= */

type StudentInput struct {
	FirstName      string
	LastName       string
	DateOfBirth    time.Time
	EmergencyName  string
	EmergencyPhone string
	MedicalNotes   *string
	Experience     string
}

func (s *FlowService) SubmitStudent(ctx context.Context, flowKey string, in StudentInput) (*FlowState, error) {
	st, err := s.Snapshots.Load(ctx, flowKey)
	if err != nil {
		return nil, err
	}
	if st.Step != StepStudent {
		return nil, ErrWrongStep
	}
	if !st.hasEnrollmentAndParent() {
		return nil, ErrGuardViolated
	}

	enr, err := s.Enrollments.GetByID(ctx, *st.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if !enr.CanConfirm() {
		return nil, ErrPaymentNotClear
	}

	student := &studentModel.Student{
		StudentParentID:       *st.ParentID,
		StudentFirstName:      in.FirstName,
		StudentLastName:       in.LastName,
		StudentDateOfBirth:    in.DateOfBirth,
		StudentEmergencyName:  in.EmergencyName,
		StudentEmergencyPhone: in.EmergencyPhone,
		StudentMedicalNotes:   in.MedicalNotes,
		StudentExperience:     in.Experience,
	}
	if err := s.Profiles.CreateStudent(ctx, student); err != nil {
		return nil, err
	}
	if err := s.Profiles.LinkStudent(ctx, *st.ParentID, student.StudentID); err != nil {
		return nil, err
	}
	if err := s.Enrollments.AttachStudentAndConfirm(ctx, enr.EnrollmentID, student.StudentID); err != nil {
		return nil, err
	}

	if err := s.notify(ctx, st, enr, student); err != nil && s.NotifyRequired {
		return nil, err
	}

	st.Step = StepConfirmation
	if err := s.Snapshots.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// notify sends the payment receipt and the enrollment confirmation. The two
// notices are independent: a failed receipt does not suppress the
// confirmation, and vice versa.
func (s *FlowService) notify(ctx context.Context, st *FlowState, enr *enrollModel.Enrollment, student *studentModel.Student) error {
	if s.Notifier == nil {
		return nil
	}
	parentEmail, parentName := "", ""
	if st.UserID != nil {
		if p, err := s.Profiles.FindParentByUserID(ctx, *st.UserID); err == nil && p != nil {
			parentEmail = p.ParentEmail
			parentName = p.FullName()
		}
	}
	courseName := ""
	if c, err := s.Courses.GetActive(ctx, st.CourseID); err == nil && c != nil {
		courseName = c.Name
	}

	txID := ""
	if enr.EnrollmentPaymentTransactionID != nil {
		txID = *enr.EnrollmentPaymentTransactionID
	}

	var errs []error
	if err := s.Notifier.SendPaymentConfirmation(ctx, PaymentNotice{
		EnrollmentID:  enr.EnrollmentID,
		ParentID:      *st.ParentID,
		ParentEmail:   parentEmail,
		ParentName:    parentName,
		CourseName:    courseName,
		Amount:        enr.EnrollmentPaymentAmount,
		Currency:      enr.EnrollmentPaymentCurrency,
		TransactionID: txID,
	}); err != nil {
		log.Printf("[FLOW] payment notice failed (enrollment %s): %v", enr.EnrollmentID, err)
		errs = append(errs, err)
	}
	if err := s.Notifier.SendEnrollmentConfirmation(ctx, ConfirmationNotice{
		EnrollmentID: enr.EnrollmentID,
		ParentID:     *st.ParentID,
		ParentEmail:  parentEmail,
		ParentName:   parentName,
		StudentName:  student.StudentFirstName + " " + student.StudentLastName,
		CourseName:   courseName,
		Amount:       enr.EnrollmentPaymentAmount,
		Currency:     enr.EnrollmentPaymentCurrency,
	}); err != nil {
		log.Printf("[FLOW] confirmation notice failed (enrollment %s): %v", enr.EnrollmentID, err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

/* =========================================================
   Close / Abort
   ========================================================= */

// Close finishes a flow that reached confirmation and drops its snapshot.
func (s *FlowService) Close(ctx context.Context, flowKey string) error {
	st, err := s.Snapshots.Load(ctx, flowKey)
	if err != nil {
		return err
	}
	if st.Step != StepConfirmation {
		return ErrWrongStep
	}
	return s.Snapshots.Delete(ctx, flowKey)
}

// Abort discards the flow at any step. A pending enrollment that never saw a
// successful charge is cancelled along the way.
func (s *FlowService) Abort(ctx context.Context, flowKey string) error {
	st, err := s.Snapshots.Load(ctx, flowKey)
	if err != nil {
		return err
	}
	if st.EnrollmentID != nil {
		enr, err := s.Enrollments.GetByID(ctx, *st.EnrollmentID)
		if err == nil && enr.EnrollmentPaymentStatus != enrollModel.EnrollPaymentStatusCompleted {
			if cerr := s.Enrollments.Cancel(ctx, enr.EnrollmentID); cerr != nil {
				log.Printf("[FLOW] cancel on abort: %v", cerr)
			}
		}
	}
	return s.Snapshots.Delete(ctx, flowKey)
}

/* ===================== keys ===================== */

func newFlowKey() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

func idempotencyKey(parentID, courseID uuid.UUID, flowKey string) string {
	sum := sha256.Sum256([]byte(parentID.String() + "|" + courseID.String() + "|" + flowKey))
	return hex.EncodeToString(sum[:])
}
