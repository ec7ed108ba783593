package gateway

import (
	"context"

	"github.com/google/uuid"

	"kartacademy_backend/internals/features/finance/payments/model"
)

// CardDetails is a raw card entered on the payment form. Never persisted.
type CardDetails struct {
	Number     string `json:"number" validate:"required,min=12,max=19"`
	HolderName string `json:"holder_name" validate:"required,min=2"`
	ExpMonth   int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear    int    `json:"exp_year" validate:"required,min=2024"`
	CVV        string `json:"cvv" validate:"required,min=3,max=4"`
}

// ChargeRequest carries everything a gateway needs for one charge.
// Exactly one of Card / TokenID must be set.
type ChargeRequest struct {
	EnrollmentID uuid.UUID
	CourseID     uuid.UUID
	CourseName   string
	CustomerID   uuid.UUID // owning parent id
	Amount       float64
	Currency     string

	Card    *CardDetails
	TokenID *uuid.UUID

	// SaveCard: tokenize and store the method for later enrollments
	SaveCard bool
}

type ChargeResult struct {
	Success       bool
	TransactionID string
	ErrorMessage  string
	// set when SaveCard was requested and tokenization succeeded
	StoredToken *model.PaymentToken
}

type RefundResult struct {
	Success      bool
	ErrorMessage string
}

// PaymentGateway is the seam between the enrollment flow and whatever
// processes money. Adapters: SimulatedGateway (default), MidtransGateway.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	RefundPayment(ctx context.Context, transactionID string, amount float64) (RefundResult, error)
	ListStoredPaymentMethods(ctx context.Context, customerID uuid.UUID) ([]model.PaymentToken, error)
}
