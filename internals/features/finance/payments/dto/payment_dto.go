package dto

import (
	"time"

	"github.com/google/uuid"

	"kartacademy_backend/internals/features/finance/payments/model"
)

// PaymentFilter collects the admin dashboard query params.
type PaymentFilter struct {
	Status   string     `query:"status"`
	Provider string     `query:"provider"`
	ParentID *uuid.UUID `query:"parent_id"`
	From     *time.Time `query:"from"`
	To       *time.Time `query:"to"`
}

// PaymentRow is one dashboard line: the payment plus the names an admin
// actually wants to see next to it.
type PaymentRow struct {
	Payment model.Payment `json:"payment"`

	CourseName  string `json:"course_name,omitempty"`
	ParentName  string `json:"parent_name,omitempty"`
	StudentName string `json:"student_name,omitempty"`
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
