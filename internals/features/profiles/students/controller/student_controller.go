package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/profiles/students/model"
	helper "kartacademy_backend/internals/helpers"
)

type StudentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewStudentController(db *gorm.DB) *StudentController {
	return &StudentController{DB: db, Validator: validator.New()}
}

type updateStudentRequest struct {
	StudentFirstName      *string `json:"student_first_name" validate:"omitempty,min=2,max=80"`
	StudentLastName       *string `json:"student_last_name" validate:"omitempty,max=80"`
	StudentEmergencyName  *string `json:"student_emergency_name" validate:"omitempty,min=2,max=120"`
	StudentEmergencyPhone *string `json:"student_emergency_phone" validate:"omitempty,min=6,max=32"`
	StudentMedicalNotes   *string `json:"student_medical_notes,omitempty"`
	StudentExperience     *string `json:"student_experience" validate:"omitempty,oneof=none some racing"`
}

// GET /api/a/students
func (h *StudentController) ListAll(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	q := h.DB.WithContext(c.Context()).Model(&model.Student{})
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(student_first_name) LIKE ? OR LOWER(student_last_name) LIKE ?", like, like)
	}
	if pid := c.Query("parent_id"); pid != "" {
		q = q.Where("student_parent_id = ?", pid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load students")
	}

	var rows []model.Student
	if err := q.Order("student_created_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load students")
	}
	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}

// GET /api/a/students/:id
func (h *StudentController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var m model.Student
	dbErr := h.DB.WithContext(c.Context()).First(&m, "student_id = ?", id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusNotFound, "Student not found")
	}
	if dbErr != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load student")
	}
	return helper.Success(c, "OK", m)
}

// PATCH /api/a/students/:id
func (h *StudentController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var req updateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	patch := map[string]interface{}{}
	if req.StudentFirstName != nil {
		patch["student_first_name"] = strings.TrimSpace(*req.StudentFirstName)
	}
	if req.StudentLastName != nil {
		patch["student_last_name"] = strings.TrimSpace(*req.StudentLastName)
	}
	if req.StudentEmergencyName != nil {
		patch["student_emergency_name"] = strings.TrimSpace(*req.StudentEmergencyName)
	}
	if req.StudentEmergencyPhone != nil {
		patch["student_emergency_phone"] = strings.TrimSpace(*req.StudentEmergencyPhone)
	}
	if req.StudentMedicalNotes != nil {
		patch["student_medical_notes"] = *req.StudentMedicalNotes
	}
	if req.StudentExperience != nil {
		patch["student_experience"] = *req.StudentExperience
	}
	if len(patch) == 0 {
		return helper.Error(c, fiber.StatusBadRequest, "Nothing to update")
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Student{}).
		Where("student_id = ?", id).Updates(patch)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Update student failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Student not found")
	}
	return helper.Success(c, "Student updated", nil)
}
