package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	courseModel "kartacademy_backend/internals/features/academy/courses/model"
	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	reconcilerService "kartacademy_backend/internals/features/enrollments/reconciler/service"
	"kartacademy_backend/internals/features/finance/payments/dto"
	"kartacademy_backend/internals/features/finance/payments/gateway"
	"kartacademy_backend/internals/features/finance/payments/model"
	paymentService "kartacademy_backend/internals/features/finance/payments/service"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
	helper "kartacademy_backend/internals/helpers"
)

type PaymentController struct {
	DB         *gorm.DB
	Gateway    gateway.PaymentGateway
	Refunds    *paymentService.RefundService
	Reconciler *reconcilerService.Reconciler
	Validate   *validator.Validate
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	gw := gateway.FromConfig(db)
	return &PaymentController{
		DB:         db,
		Gateway:    gw,
		Refunds:    paymentService.NewRefundService(&paymentService.GormRefundStore{DB: db}, gw),
		Reconciler: reconcilerService.FromDB(db),
		Validate:   validator.New(),
	}
}

var paymentOrderable = map[string]string{
	"created_at": "payment_created_at",
	"amount":     "payment_amount",
	"status":     "payment_status",
}

/* =========================================================
   GET /api/a/payments
   ========================================================= */

// ListAll is the admin payments dashboard. Stale pending payments are swept
// before filtering so the list never shows a payment the timeout already
// killed as still pending.
func (ctl *PaymentController) ListAll(c *fiber.Ctx) error {
	if _, err := ctl.Reconciler.Sweep(c.Context()); err != nil {
		log.Printf("[PAYMENT] pre-list sweep failed: %v", err)
	}

	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	var f dto.PaymentFilter
	if err := c.QueryParser(&f); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid query parameters")
	}

	tx := ctl.DB.Model(&model.Payment{})
	if f.Status != "" {
		tx = tx.Where("payment_status = ?", f.Status)
	}
	if f.Provider != "" {
		tx = tx.Where("payment_gateway_provider = ?", f.Provider)
	}
	if f.ParentID != nil {
		tx = tx.Where("payment_parent_id = ?", *f.ParentID)
	}
	if f.From != nil {
		tx = tx.Where("payment_created_at >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("payment_created_at <= ?", *f.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load payments")
	}

	order, err := p.SafeOrderClause(paymentOrderable, "created_at")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	var payments []model.Payment
	if err := tx.Order(order[len("ORDER BY "):]).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&payments).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load payments")
	}

	rows, err := ctl.hydrateRows(c, payments)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load payment details")
	}

	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}

// hydrateRows attaches course/parent/student names to each payment. The
// lookups fan out concurrently; a missing reference leaves the name blank
// instead of failing the page.
func (ctl *PaymentController) hydrateRows(c *fiber.Ctx, payments []model.Payment) ([]dto.PaymentRow, error) {
	rows := make([]dto.PaymentRow, len(payments))

	g, ctx := errgroup.WithContext(c.Context())
	g.SetLimit(8)
	for i := range payments {
		i := i
		g.Go(func() error {
			rows[i].Payment = payments[i]

			var enr enrollModel.Enrollment
			if err := ctl.DB.WithContext(ctx).
				First(&enr, "enrollment_id = ?", payments[i].PaymentEnrollmentID).Error; err != nil {
				return nil
			}

			var course courseModel.Course
			if err := ctl.DB.WithContext(ctx).
				Select("course_name").
				First(&course, "course_id = ?", enr.EnrollmentCourseID).Error; err == nil {
				rows[i].CourseName = course.CourseName
			}
			var parent parentModel.Parent
			if err := ctl.DB.WithContext(ctx).
				First(&parent, "parent_id = ?", enr.EnrollmentParentID).Error; err == nil {
				rows[i].ParentName = parent.FullName()
			}
			if enr.EnrollmentStudentID != nil {
				var student studentModel.Student
				if err := ctl.DB.WithContext(ctx).
					First(&student, "student_id = ?", *enr.EnrollmentStudentID).Error; err == nil {
					rows[i].StudentName = student.StudentFirstName + " " + student.StudentLastName
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

/* =========================================================
   GET /api/a/payments/:id
   ========================================================= */

func (ctl *PaymentController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid payment id")
	}

	var pay model.Payment
	if err := ctl.DB.First(&pay, "payment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Payment not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to fetch payment")
	}

	return helper.Success(c, "OK", pay)
}

/* =========================================================
   POST /api/a/payments/:id/refund
   ========================================================= */

// Refund reverses a completed payment through the gateway, then flips the
// payment to refunded and cancels the enrollment.
func (ctl *PaymentController) Refund(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid payment id")
	}

	var req dto.RefundRequest
	_ = c.BodyParser(&req) // reason is optional
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	pay, err := ctl.Refunds.Refund(c.Context(), id, req.Reason)
	if err != nil {
		var declined *paymentService.DeclinedError
		switch {
		case errors.Is(err, paymentService.ErrPaymentNotFound):
			return helper.Error(c, fiber.StatusNotFound, "Payment not found")
		case errors.Is(err, paymentService.ErrAlreadyRefunded):
			return helper.Error(c, fiber.StatusConflict, "Payment already refunded")
		case errors.Is(err, paymentService.ErrNotRefundable):
			return helper.Error(c, fiber.StatusConflict, "Only completed payments can be refunded")
		case errors.As(err, &declined):
			return helper.Error(c, fiber.StatusUnprocessableEntity, declined.Message)
		case errors.Is(err, paymentService.ErrGatewayUnavailable):
			log.Printf("[PAYMENT] refund %s failed: %v", id, err)
			return helper.Error(c, fiber.StatusBadGateway, "Refund failed at the payment gateway")
		default:
			log.Printf("[PAYMENT] refund %s: %v", id, err)
			return helper.Error(c, fiber.StatusInternalServerError, "Failed to process refund")
		}
	}

	return helper.Success(c, "Payment refunded", fiber.Map{
		"payment_id":     pay.PaymentID,
		"payment_status": pay.PaymentStatus,
	})
}

/* =========================================================
   GET /api/a/parents/:id/payment-methods
   ========================================================= */

// StoredMethods lists a parent's saved cards for support workflows.
func (ctl *PaymentController) StoredMethods(c *fiber.Ctx) error {
	parentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid parent id")
	}
	methods, err := ctl.Gateway.ListStoredPaymentMethods(c.Context(), parentID)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to list payment methods")
	}
	return helper.Success(c, "OK", fiber.Map{"methods": methods})
}
