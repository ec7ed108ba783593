package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	paymentModel "kartacademy_backend/internals/features/finance/payments/model"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
)

/* ===================== Steps ===================== */

const (
	StepAuth         = "auth"
	StepParent       = "parent_profile"
	StepPayment      = "payment"
	StepStudent      = "student_registration"
	StepConfirmation = "confirmation"
)

// stepRank enforces forward-only movement through the flow.
var stepRank = map[string]int{
	StepAuth:         0,
	StepParent:       1,
	StepPayment:      2,
	StepStudent:      3,
	StepConfirmation: 4,
}

/* ===================== Errors ===================== */

var (
	ErrFlowNotFound    = errors.New("enrollment flow not found")
	ErrWrongStep       = errors.New("operation not valid at current step")
	ErrGuardViolated   = errors.New("enrollment and parent profile must exist before this step")
	ErrCourseNotFound  = errors.New("course not found or inactive")
	ErrPaymentNotClear = errors.New("payment has not completed")
)

/* ===================== State ===================== */

// FlowState is the snapshot payload. Everything the flow needs to resume
// lives here; the client only ever holds the opaque flow key.
type FlowState struct {
	FlowKey  string    `json:"flow_key"`
	Step     string    `json:"step"`
	CourseID uuid.UUID `json:"course_id"`

	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	EnrollmentID *uuid.UUID `json:"enrollment_id,omitempty"`

	// last gateway failure shown on the payment form; cleared on success
	PaymentError string `json:"payment_error,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

func (s *FlowState) hasEnrollmentAndParent() bool {
	return s.EnrollmentID != nil && s.ParentID != nil
}

/* ===================== Ports ===================== */

type CourseStore interface {
	// GetActive returns the course only when it exists and is active.
	GetActive(ctx context.Context, id uuid.UUID) (*CourseRef, error)
}

// CourseRef is the subset of a course the flow cares about.
type CourseRef struct {
	ID       uuid.UUID
	Name     string
	Amount   float64
	Currency string
}

type ProfileStore interface {
	// FindParentByUserID returns (nil, nil) when no profile exists yet.
	FindParentByUserID(ctx context.Context, userID uuid.UUID) (*parentModel.Parent, error)
	CreateParent(ctx context.Context, p *parentModel.Parent) error
	CreateStudent(ctx context.Context, s *studentModel.Student) error
	LinkStudent(ctx context.Context, parentID, studentID uuid.UUID) error
}

type EnrollmentStore interface {
	// UpsertPending creates the enrollment or returns the existing row
	// carrying the same idempotency key.
	UpsertPending(ctx context.Context, e *enrollModel.Enrollment) (*enrollModel.Enrollment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*enrollModel.Enrollment, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	RecordPaymentSuccess(ctx context.Context, id uuid.UUID, transactionID string, paymentID uuid.UUID) error
	RecordPaymentFailure(ctx context.Context, id uuid.UUID, message string) error
	AttachStudentAndConfirm(ctx context.Context, id, studentID uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *paymentModel.Payment) error
}

// ConfirmationNotice is everything the confirmation email/in-app message needs.
type ConfirmationNotice struct {
	EnrollmentID uuid.UUID
	ParentID     uuid.UUID
	ParentEmail  string
	ParentName   string
	StudentName  string
	CourseName   string
	Amount       float64
	Currency     string
}

// PaymentNotice is the receipt for a cleared charge.
type PaymentNotice struct {
	EnrollmentID  uuid.UUID
	ParentID      uuid.UUID
	ParentEmail   string
	ParentName    string
	CourseName    string
	Amount        float64
	Currency      string
	TransactionID string
}

type NotificationSender interface {
	SendEnrollmentConfirmation(ctx context.Context, n ConfirmationNotice) error
	SendPaymentConfirmation(ctx context.Context, n PaymentNotice) error
}

type SnapshotStore interface {
	Save(ctx context.Context, st *FlowState) error
	// Load returns ErrFlowNotFound for an unknown key. An unreadable payload
	// is discarded and replaced with a fresh auth-step state for the same
	// course, never surfaced as an error.
	Load(ctx context.Context, flowKey string) (*FlowState, error)
	Delete(ctx context.Context, flowKey string) error
}
