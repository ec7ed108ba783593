package dto

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentFilter collects the admin list query params.
type EnrollmentFilter struct {
	Status        string     `query:"status"`
	PaymentStatus string     `query:"payment_status"`
	ParentID      *uuid.UUID `query:"parent_id"`
	StudentID     *uuid.UUID `query:"student_id"`
	CourseID      *uuid.UUID `query:"course_id"`
	CreatedFrom   *time.Time `query:"created_from"`
	CreatedTo     *time.Time `query:"created_to"`
}

type AppendNoteRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

type AppendCommunicationRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email phone in_app"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"max=5000"`
}

type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed payment_failed"`
}
