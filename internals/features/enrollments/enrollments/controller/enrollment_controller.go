package controller

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	courseModel "kartacademy_backend/internals/features/academy/courses/model"
	"kartacademy_backend/internals/features/enrollments/enrollments/dto"
	"kartacademy_backend/internals/features/enrollments/enrollments/model"
	reconcilerService "kartacademy_backend/internals/features/enrollments/reconciler/service"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
	helper "kartacademy_backend/internals/helpers"
)

type EnrollmentController struct {
	DB         *gorm.DB
	Reconciler *reconcilerService.Reconciler
	Validate   *validator.Validate
}

func NewEnrollmentController(db *gorm.DB) *EnrollmentController {
	return &EnrollmentController{
		DB:         db,
		Reconciler: reconcilerService.FromDB(db),
		Validate:   validator.New(),
	}
}

var enrollmentOrderable = map[string]string{
	"created_at":     "enrollment_created_at",
	"updated_at":     "enrollment_updated_at",
	"status":         "enrollment_status",
	"payment_status": "enrollment_payment_status",
	"amount":         "enrollment_payment_amount",
}

/* =========================================================
   GET /api/a/enrollments
   ========================================================= */

// ListAll is the admin enrollments list. Stale unresolved payments are swept
// first so filtering by failed status reflects timeouts from this same load,
// not from whenever the background sweep last ran.
func (ctl *EnrollmentController) ListAll(c *fiber.Ctx) error {
	if _, err := ctl.Reconciler.Sweep(c.Context()); err != nil {
		log.Printf("[ENROLLMENT] pre-list sweep failed: %v", err)
	}

	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	var f dto.EnrollmentFilter
	if err := c.QueryParser(&f); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid query parameters")
	}

	tx := ctl.DB.Model(&model.Enrollment{})
	if f.Status != "" {
		tx = tx.Where("enrollment_status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		tx = tx.Where("enrollment_payment_status = ?", f.PaymentStatus)
	}
	if f.ParentID != nil {
		tx = tx.Where("enrollment_parent_id = ?", *f.ParentID)
	}
	if f.StudentID != nil {
		tx = tx.Where("enrollment_student_id = ?", *f.StudentID)
	}
	if f.CourseID != nil {
		tx = tx.Where("enrollment_course_id = ?", *f.CourseID)
	}
	if f.CreatedFrom != nil {
		tx = tx.Where("enrollment_created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		tx = tx.Where("enrollment_created_at <= ?", *f.CreatedTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		log.Printf("[ENROLLMENT] count failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to list enrollments")
	}

	order, err := p.SafeOrderClause(enrollmentOrderable, "created_at")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	var rows []model.Enrollment
	if err := tx.
		Order(order[len("ORDER BY "):]).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		log.Printf("[ENROLLMENT] list failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to list enrollments")
	}

	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}

/* =========================================================
   GET /api/a/enrollments/:id
   ========================================================= */

func (ctl *EnrollmentController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid enrollment id")
	}

	var row model.Enrollment
	if err := ctl.DB.First(&row, "enrollment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Enrollment not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to fetch enrollment")
	}

	// hydrate related rows; each is best-effort so a broken reference
	// still returns the enrollment itself
	resp := fiber.Map{"enrollment": row}

	var course courseModel.Course
	if err := ctl.DB.First(&course, "course_id = ?", row.EnrollmentCourseID).Error; err == nil {
		resp["course"] = course
	}
	var parent parentModel.Parent
	if err := ctl.DB.First(&parent, "parent_id = ?", row.EnrollmentParentID).Error; err == nil {
		resp["parent"] = parent
	}
	if row.EnrollmentStudentID != nil {
		var student studentModel.Student
		if err := ctl.DB.First(&student, "student_id = ?", *row.EnrollmentStudentID).Error; err == nil {
			resp["student"] = student
		}
	}

	return helper.Success(c, "OK", resp)
}

/* =========================================================
   PATCH /api/a/enrollments/:id/status
   ========================================================= */

func (ctl *EnrollmentController) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid enrollment id")
	}

	var req dto.UpdateEnrollmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	res := ctl.DB.Model(&model.Enrollment{}).
		Where("enrollment_id = ?", id).
		Update("enrollment_status", req.Status)
	if res.Error != nil {
		log.Printf("[ENROLLMENT] status update failed: %v", res.Error)
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to update status")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Enrollment not found")
	}

	return helper.Success(c, "Status updated", fiber.Map{"enrollment_status": req.Status})
}

/* =========================================================
   POST /api/a/enrollments/:id/notes
   ========================================================= */

func (ctl *EnrollmentController) AppendNote(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid enrollment id")
	}

	var req dto.AppendNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	res := ctl.DB.Model(&model.Enrollment{}).
		Where("enrollment_id = ?", id).
		Update("enrollment_notes",
			gorm.Expr("array_append(COALESCE(enrollment_notes, '{}'), ?)", req.Note))
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to add note")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Enrollment not found")
	}

	return helper.Success(c, "Note added", nil)
}

/* =========================================================
   POST /api/a/enrollments/:id/communications
   ========================================================= */

func (ctl *EnrollmentController) AppendCommunication(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid enrollment id")
	}

	var req dto.AppendCommunicationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec := model.CommunicationRecord{
		At:      time.Now(),
		Channel: req.Channel,
		Subject: req.Subject,
		Body:    req.Body,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to encode record")
	}

	// jsonb array concat; initialize to [] when the column is still null
	res := ctl.DB.Model(&model.Enrollment{}).
		Where("enrollment_id = ?", id).
		Update("enrollment_communication",
			gorm.Expr("COALESCE(enrollment_communication, '[]'::jsonb) || ?::jsonb", string(raw)))
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to record communication")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Enrollment not found")
	}

	return helper.Success(c, "Communication recorded", rec)
}

/* =========================================================
   DELETE /api/a/enrollments/:id
   ========================================================= */

// Delete removes an enrollment. Only failed or cancelled enrollments can be
// deleted; everything else has money or a confirmed seat attached.
func (ctl *EnrollmentController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid enrollment id")
	}

	var row model.Enrollment
	if err := ctl.DB.First(&row, "enrollment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Enrollment not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to fetch enrollment")
	}

	if row.EnrollmentStatus != model.EnrollmentStatusPaymentFailed &&
		row.EnrollmentStatus != model.EnrollmentStatusCancelled {
		return helper.Error(c, fiber.StatusConflict, "Only failed or cancelled enrollments can be deleted")
	}

	if err := ctl.DB.Delete(&row).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to delete enrollment")
	}

	return helper.Success(c, "Enrollment deleted", nil)
}
