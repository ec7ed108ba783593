package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/academy/instructors/model"
	helper "kartacademy_backend/internals/helpers"
	ossHelper "kartacademy_backend/internals/helpers/oss"
)

type InstructorController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewInstructorController(db *gorm.DB) *InstructorController {
	return &InstructorController{DB: db, Validator: validator.New()}
}

type upsertInstructorRequest struct {
	InstructorName        string   `json:"instructor_name" validate:"required,min=2,max=100"`
	InstructorBio         string   `json:"instructor_bio"`
	InstructorCredentials []string `json:"instructor_credentials"`
	InstructorIsActive    *bool    `json:"instructor_is_active,omitempty"`
}

// GET /api/public/instructors
func (h *InstructorController) ListActive(c *fiber.Ctx) error {
	var rows []model.Instructor
	if err := h.DB.WithContext(c.Context()).
		Where("instructor_is_active = TRUE").
		Order("instructor_name ASC").
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load instructors")
	}
	return helper.Success(c, "OK", rows)
}

// GET /api/a/instructors
func (h *InstructorController) ListAll(c *fiber.Ctx) error {
	var rows []model.Instructor
	if err := h.DB.WithContext(c.Context()).
		Order("instructor_created_at DESC").
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load instructors")
	}
	return helper.Success(c, "OK", rows)
}

// POST /api/a/instructors
func (h *InstructorController) Create(c *fiber.Ctx) error {
	var req upsertInstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := model.Instructor{
		InstructorName:        strings.TrimSpace(req.InstructorName),
		InstructorBio:         req.InstructorBio,
		InstructorCredentials: pq.StringArray(req.InstructorCredentials),
		InstructorIsActive:    true,
	}
	if req.InstructorIsActive != nil {
		m.InstructorIsActive = *req.InstructorIsActive
	}
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Create instructor failed")
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Instructor created", m)
}

// PUT /api/a/instructors/:id
func (h *InstructorController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var req upsertInstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	patch := map[string]interface{}{
		"instructor_name":        strings.TrimSpace(req.InstructorName),
		"instructor_bio":         req.InstructorBio,
		"instructor_credentials": pq.StringArray(req.InstructorCredentials),
	}
	if req.InstructorIsActive != nil {
		patch["instructor_is_active"] = *req.InstructorIsActive
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Instructor{}).
		Where("instructor_id = ?", id).Updates(patch)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Update instructor failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Instructor not found")
	}
	return helper.Success(c, "Instructor updated", nil)
}

// DELETE /api/a/instructors/:id
func (h *InstructorController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.Instructor{}, "instructor_id = ?", id)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Delete instructor failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Instructor not found")
	}
	return helper.Success(c, "Instructor deleted", nil)
}

// POST /api/a/instructors/:id/photo
func (h *InstructorController) UploadPhoto(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Missing photo file")
	}

	url, err := ossHelper.UploadImageToOSSScoped("instructors", fh)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.Error(c, fe.Code, fe.Message)
		}
		return helper.Error(c, fiber.StatusBadGateway, "Photo upload failed")
	}

	if err := h.DB.WithContext(c.Context()).Model(&model.Instructor{}).
		Where("instructor_id = ?", id).
		Update("instructor_photo_url", url).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Save photo url failed")
	}
	return helper.Success(c, "Photo uploaded", fiber.Map{"url": url})
}
