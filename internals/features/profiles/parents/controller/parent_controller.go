package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
	helper "kartacademy_backend/internals/helpers"
)

type ParentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewParentController(db *gorm.DB) *ParentController {
	return &ParentController{DB: db, Validator: validator.New()}
}

type updateParentRequest struct {
	ParentFirstName *string `json:"parent_first_name" validate:"omitempty,min=2,max=80"`
	ParentLastName  *string `json:"parent_last_name" validate:"omitempty,max=80"`
	ParentEmail     *string `json:"parent_email" validate:"omitempty,email"`
	ParentPhone     *string `json:"parent_phone" validate:"omitempty,min=6,max=32"`
	ParentAddress   *string `json:"parent_address,omitempty"`
}

// GET /api/u/parents/me — the signed-in guardian's own profile
func (h *ParentController) Me(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var m model.Parent
	dbErr := h.DB.WithContext(c.Context()).First(&m, "parent_user_id = ?", userID).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusNotFound, "No guardian profile yet")
	}
	if dbErr != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	return helper.Success(c, "OK", m)
}

// PATCH /api/u/parents/me
func (h *ParentController) UpdateMe(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req updateParentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	patch := map[string]interface{}{}
	if req.ParentFirstName != nil {
		patch["parent_first_name"] = strings.TrimSpace(*req.ParentFirstName)
	}
	if req.ParentLastName != nil {
		patch["parent_last_name"] = strings.TrimSpace(*req.ParentLastName)
	}
	if req.ParentEmail != nil {
		patch["parent_email"] = strings.ToLower(strings.TrimSpace(*req.ParentEmail))
	}
	if req.ParentPhone != nil {
		patch["parent_phone"] = strings.TrimSpace(*req.ParentPhone)
	}
	if req.ParentAddress != nil {
		patch["parent_address"] = *req.ParentAddress
	}
	if len(patch) == 0 {
		return helper.Error(c, fiber.StatusBadRequest, "Nothing to update")
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Parent{}).
		Where("parent_user_id = ?", userID).Updates(patch)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Update failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "No guardian profile yet")
	}
	return helper.Success(c, "Profile updated", nil)
}

// GET /api/u/parents/me/students — the guardian's racers
func (h *ParentController) MyStudents(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var parent model.Parent
	if err := h.DB.WithContext(c.Context()).First(&parent, "parent_user_id = ?", userID).Error; err != nil {
		return helper.Error(c, fiber.StatusNotFound, "No guardian profile yet")
	}

	var rows []studentModel.Student
	if err := h.DB.WithContext(c.Context()).
		Where("student_parent_id = ?", parent.ParentID).
		Order("student_created_at ASC").
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load students")
	}
	return helper.Success(c, "OK", rows)
}

/* ===================== Admin ===================== */

// GET /api/a/parents?search=
func (h *ParentController) ListAll(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	q := h.DB.WithContext(c.Context()).Model(&model.Parent{})
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(parent_first_name) LIKE ? OR LOWER(parent_last_name) LIKE ? OR LOWER(parent_email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load parents")
	}

	var rows []model.Parent
	if err := q.Order("parent_created_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load parents")
	}
	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}

// GET /api/a/parents/:id
func (h *ParentController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var m model.Parent
	dbErr := h.DB.WithContext(c.Context()).First(&m, "parent_id = ?", id).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusNotFound, "Parent not found")
	}
	if dbErr != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load parent")
	}

	var students []studentModel.Student
	_ = h.DB.WithContext(c.Context()).
		Where("student_parent_id = ?", m.ParentID).
		Find(&students).Error

	return helper.Success(c, "OK", fiber.Map{
		"parent":   m,
		"students": students,
	})
}
