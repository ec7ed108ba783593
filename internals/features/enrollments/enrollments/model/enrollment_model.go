package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* enrollment_status is a closed set; payment_failed is part of it
   (terminal state set by the stale-payment sweep). */

const (
	EnrollmentStatusPending       = "pending"
	EnrollmentStatusConfirmed     = "confirmed"
	EnrollmentStatusCancelled     = "cancelled"
	EnrollmentStatusCompleted     = "completed"
	EnrollmentStatusPaymentFailed = "payment_failed"
)

const (
	EnrollPaymentStatusPending    = "pending"
	EnrollPaymentStatusProcessing = "processing"
	EnrollPaymentStatusCompleted  = "completed"
	EnrollPaymentStatusFailed     = "failed"
	EnrollPaymentStatusRefunded   = "refunded"
)

// Fixed message attached by the stale-payment sweep.
const PaymentTimeoutMessage = "Payment timeout - no response received"

/* ===================== Model ===================== */

// Enrollment is one (student, course) registration attempt with its embedded
// payment sub-record. The student id stays nil until the racer form is
// submitted after payment clears.
type Enrollment struct {
	EnrollmentID uuid.UUID `gorm:"column:enrollment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"enrollment_id"`

	EnrollmentStudentID *uuid.UUID `gorm:"column:enrollment_student_id;type:uuid;index" json:"enrollment_student_id,omitempty"`
	EnrollmentParentID  uuid.UUID  `gorm:"column:enrollment_parent_id;type:uuid;not null;index" json:"enrollment_parent_id"`
	EnrollmentCourseID  uuid.UUID  `gorm:"column:enrollment_course_id;type:uuid;not null;index" json:"enrollment_course_id"`

	EnrollmentStatus string `gorm:"column:enrollment_status;type:varchar(20);not null;default:'pending'" json:"enrollment_status"`

	// payment sub-record: amount/currency are a snapshot of the course price
	// at creation time and must not drift afterwards
	EnrollmentPaymentAmount        float64    `gorm:"column:enrollment_payment_amount;type:numeric(12,2);not null;check:enrollment_payment_amount >= 0" json:"enrollment_payment_amount"`
	EnrollmentPaymentCurrency      string     `gorm:"column:enrollment_payment_currency;type:varchar(3);not null" json:"enrollment_payment_currency"`
	EnrollmentPaymentStatus        string     `gorm:"column:enrollment_payment_status;type:varchar(20);not null;default:'pending'" json:"enrollment_payment_status"`
	EnrollmentPaymentTransactionID *string    `gorm:"column:enrollment_payment_transaction_id;type:varchar(64)" json:"enrollment_payment_transaction_id,omitempty"`
	EnrollmentPaymentError         *string    `gorm:"column:enrollment_payment_error;type:text" json:"enrollment_payment_error,omitempty"`
	EnrollmentPaymentID            *uuid.UUID `gorm:"column:enrollment_payment_id;type:uuid" json:"enrollment_payment_id,omitempty"`

	// duplicate-submit guard: sha256(parent|course|flow key)
	EnrollmentIdempotencyKey *string `gorm:"column:enrollment_idempotency_key;type:varchar(64);uniqueIndex" json:"-"`

	// append-only
	EnrollmentNotes         pq.StringArray `gorm:"column:enrollment_notes;type:text[]" json:"enrollment_notes"`
	EnrollmentCommunication datatypes.JSON `gorm:"column:enrollment_communication;type:jsonb" json:"enrollment_communication,omitempty"`

	CreatedAt time.Time      `gorm:"column:enrollment_created_at;autoCreateTime" json:"enrollment_created_at"`
	UpdatedAt time.Time      `gorm:"column:enrollment_updated_at;autoUpdateTime" json:"enrollment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:enrollment_deleted_at;index" json:"enrollment_deleted_at,omitempty"`
}

func (Enrollment) TableName() string { return "enrollments" }

/* ===================== Helpers ===================== */

// IsPaymentStale reports whether the payment never resolved within the
// timeout. Both pending and processing count as unresolved; processing means
// a charge started and the outcome never came back.
func (e *Enrollment) IsPaymentStale(now time.Time, timeout time.Duration) bool {
	if e.EnrollmentPaymentStatus != EnrollPaymentStatusPending &&
		e.EnrollmentPaymentStatus != EnrollPaymentStatusProcessing {
		return false
	}
	return now.Sub(e.CreatedAt) > timeout
}

func (e *Enrollment) CanConfirm() bool {
	return e.EnrollmentPaymentStatus == EnrollPaymentStatusCompleted
}

func (e *Enrollment) CanRefund() bool {
	return e.EnrollmentPaymentStatus == EnrollPaymentStatusCompleted &&
		e.EnrollmentPaymentTransactionID != nil
}

// CommunicationRecord is one entry in enrollment_communication.
type CommunicationRecord struct {
	At      time.Time `json:"at"`
	Channel string    `json:"channel"` // email | phone | in_app
	Subject string    `json:"subject"`
	Body    string    `json:"body,omitempty"`
}
