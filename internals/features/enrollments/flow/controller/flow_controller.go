package controller

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/configs"
	"kartacademy_backend/internals/features/enrollments/flow/service"
	"kartacademy_backend/internals/features/finance/payments/gateway"
	helper "kartacademy_backend/internals/helpers"
)

const flowKeyHeader = "X-Flow-Key"

type FlowController struct {
	Svc      *service.FlowService
	Validate *validator.Validate
}

// NewFlowController wires the state machine onto GORM stores and the
// configured payment gateway.
func NewFlowController(db *gorm.DB, notifier service.NotificationSender) *FlowController {
	return &FlowController{
		Svc: &service.FlowService{
			Courses:         &service.GormCourseStore{DB: db},
			Profiles:        &service.GormProfileStore{DB: db},
			Enrollments:     &service.GormEnrollmentStore{DB: db},
			Payments:        &service.GormPaymentStore{DB: db},
			Gateway:         gateway.FromConfig(db),
			Notifier:        notifier,
			Snapshots:       &service.GormSnapshotStore{DB: db},
			NotifyRequired:  configs.NotifyRequired,
			GatewayProvider: configs.PaymentGatewayProvider,
		},
		Validate: validator.New(),
	}
}

func (ctl *FlowController) flowKey(c *fiber.Ctx) string {
	return c.Get(flowKeyHeader)
}

// flowError maps state-machine errors onto HTTP responses.
func flowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrFlowNotFound):
		return helper.Error(c, fiber.StatusNotFound, "Enrollment flow not found, start again")
	case errors.Is(err, service.ErrWrongStep):
		return helper.Error(c, fiber.StatusConflict, "Step not available from the current state")
	case errors.Is(err, service.ErrGuardViolated):
		return helper.Error(c, fiber.StatusConflict, "Enrollment and parent profile are required first")
	case errors.Is(err, service.ErrCourseNotFound):
		return helper.Error(c, fiber.StatusNotFound, "Course not found or no longer open")
	case errors.Is(err, service.ErrPaymentNotClear):
		return helper.Error(c, fiber.StatusConflict, "Payment must complete before registering the racer")
	default:
		return helper.Error(c, fiber.StatusInternalServerError, "Enrollment flow error")
	}
}

/* =========================================================
   POST /api/u/enroll/start
   ========================================================= */

type startRequest struct {
	CourseID uuid.UUID `json:"course_id"`
}

func (ctl *FlowController) Start(c *fiber.Ctx) error {
	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.CourseID == uuid.Nil {
		return helper.Error(c, fiber.StatusBadRequest, "course_id is required")
	}

	st, err := ctl.Svc.Start(c.Context(), req.CourseID)
	if err != nil {
		return flowError(c, err)
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Enrollment flow started", st)
}

/* =========================================================
   GET /api/u/enroll/state
   ========================================================= */

func (ctl *FlowController) State(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	st, err := ctl.Svc.Resume(c.Context(), key)
	if err != nil {
		return flowError(c, err)
	}
	return helper.Success(c, "OK", st)
}

/* =========================================================
   POST /api/u/enroll/auth
   ========================================================= */

func (ctl *FlowController) SubmitAuth(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Sign in to continue enrollment")
	}

	st, err := ctl.Svc.SubmitAuth(c.Context(), key, userID)
	if err != nil {
		return flowError(c, err)
	}
	return helper.Success(c, "Signed in", st)
}

/* =========================================================
   POST /api/u/enroll/parent
   ========================================================= */

type parentRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=2,max=80"`
	LastName  string  `json:"last_name" validate:"max=80"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     string  `json:"phone" validate:"required,min=6,max=32"`
	Address   *string `json:"address,omitempty"`
}

func (ctl *FlowController) SubmitParent(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	var req parentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	st, err := ctl.Svc.SubmitParent(c.Context(), key, service.ParentInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		return flowError(c, err)
	}
	return helper.Success(c, "Parent profile saved", st)
}

/* =========================================================
   POST /api/u/enroll/payment
   ========================================================= */

type paymentRequest struct {
	Card     *gateway.CardDetails `json:"card,omitempty"`
	TokenID  *uuid.UUID           `json:"token_id,omitempty"`
	SaveCard bool                 `json:"save_card"`
}

func (ctl *FlowController) SubmitPayment(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if (req.Card == nil) == (req.TokenID == nil) {
		return helper.Error(c, fiber.StatusBadRequest, "Provide either card details or a saved payment method")
	}
	if req.Card != nil {
		if err := ctl.Validate.Struct(req.Card); err != nil {
			return helper.ValidationError(c, err)
		}
	}

	st, err := ctl.Svc.SubmitPayment(c.Context(), key, service.PaymentInput{
		Card:     req.Card,
		TokenID:  req.TokenID,
		SaveCard: req.SaveCard,
	})
	if err != nil {
		return flowError(c, err)
	}
	if st.PaymentError != "" {
		// declined: the flow stays at payment so the form can retry
		return helper.ErrorWithDetails(c, fiber.StatusPaymentRequired, st.PaymentError, st)
	}
	return helper.Success(c, "Payment completed", st)
}

/* =========================================================
   POST /api/u/enroll/student
   ========================================================= */

type studentRequest struct {
	FirstName      string  `json:"first_name" validate:"required,min=2,max=80"`
	LastName       string  `json:"last_name" validate:"max=80"`
	DateOfBirth    string  `json:"date_of_birth" validate:"required"`
	EmergencyName  string  `json:"emergency_name" validate:"required,min=2,max=120"`
	EmergencyPhone string  `json:"emergency_phone" validate:"required,min=6,max=32"`
	MedicalNotes   *string `json:"medical_notes,omitempty"`
	Experience     string  `json:"experience" validate:"required,oneof=none some racing"`
}

func (ctl *FlowController) SubmitStudent(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	var req studentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
	}

	st, err := ctl.Svc.SubmitStudent(c.Context(), key, service.StudentInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    dob,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
		MedicalNotes:   req.MedicalNotes,
		Experience:     req.Experience,
	})
	if err != nil {
		return flowError(c, err)
	}
	return helper.Success(c, "Racer registered, enrollment confirmed", st)
}

/* =========================================================
   POST /api/u/enroll/complete
   DELETE /api/u/enroll
   ========================================================= */

func (ctl *FlowController) Complete(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	if err := ctl.Svc.Close(c.Context(), key); err != nil {
		return flowError(c, err)
	}
	return helper.Success(c, "Enrollment flow completed", nil)
}

func (ctl *FlowController) Abort(c *fiber.Ctx) error {
	key := ctl.flowKey(c)
	if key == "" {
		return helper.Error(c, fiber.StatusBadRequest, "Missing "+flowKeyHeader+" header")
	}
	if err := ctl.Svc.Abort(c.Context(), key); err != nil {
		return flowError(c, err)
	}
	return helper.Success(c, "Enrollment flow discarded", nil)
}

/* =========================================================
   GET /api/u/enroll/payment-methods
   ========================================================= */

// PaymentMethods lists the caller's stored cards for the payment form.
func (ctl *FlowController) PaymentMethods(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Sign in first")
	}
	parent, err := ctl.Svc.Profiles.FindParentByUserID(c.Context(), userID)
	if err != nil || parent == nil {
		return helper.Success(c, "OK", fiber.Map{"methods": []any{}})
	}
	methods, err := ctl.Svc.Gateway.ListStoredPaymentMethods(c.Context(), parent.ParentID)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to list payment methods")
	}
	return helper.Success(c, "OK", fiber.Map{"methods": methods})
}
