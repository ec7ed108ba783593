package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	courseDTO "kartacademy_backend/internals/features/academy/courses/dto"
	"kartacademy_backend/internals/features/academy/facilities/model"
	helper "kartacademy_backend/internals/helpers"
	ossHelper "kartacademy_backend/internals/helpers/oss"
)

type FacilityController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewFacilityController(db *gorm.DB) *FacilityController {
	return &FacilityController{DB: db, Validator: validator.New()}
}

type upsertFacilityRequest struct {
	FacilityName        string            `json:"facility_name" validate:"required,min=2,max=120"`
	FacilityDescription string            `json:"facility_description"`
	FacilitySpecs       datatypes.JSONMap `json:"facility_specs,omitempty"`
	FacilityIsActive    *bool             `json:"facility_is_active,omitempty"`
}

// GET /api/public/facilities
func (h *FacilityController) ListActive(c *fiber.Ctx) error {
	var rows []model.Facility
	if err := h.DB.WithContext(c.Context()).
		Where("facility_is_active = TRUE").
		Order("facility_name ASC").
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load facilities")
	}
	return helper.Success(c, "OK", rows)
}

// GET /api/public/facilities/:slug
func (h *FacilityController) GetBySlug(c *fiber.Ctx) error {
	var m model.Facility
	err := h.DB.WithContext(c.Context()).
		First(&m, "facility_slug = ? AND facility_is_active = TRUE", c.Params("slug")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusNotFound, "Facility not found")
	}
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load facility")
	}
	return helper.Success(c, "OK", m)
}

// POST /api/a/facilities
func (h *FacilityController) Create(c *fiber.Ctx) error {
	var req upsertFacilityRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := model.Facility{
		FacilityName:        strings.TrimSpace(req.FacilityName),
		FacilitySlug:        courseDTO.Slugify(req.FacilityName),
		FacilityDescription: req.FacilityDescription,
		FacilitySpecs:       req.FacilitySpecs,
		FacilityIsActive:    true,
	}
	if req.FacilityIsActive != nil {
		m.FacilityIsActive = *req.FacilityIsActive
	}
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Create facility failed")
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Facility created", m)
}

// PUT /api/a/facilities/:id
func (h *FacilityController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var req upsertFacilityRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	patch := map[string]interface{}{
		"facility_name":        strings.TrimSpace(req.FacilityName),
		"facility_description": req.FacilityDescription,
	}
	if req.FacilitySpecs != nil {
		patch["facility_specs"] = req.FacilitySpecs
	}
	if req.FacilityIsActive != nil {
		patch["facility_is_active"] = *req.FacilityIsActive
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Facility{}).
		Where("facility_id = ?", id).Updates(patch)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Update facility failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Facility not found")
	}
	return helper.Success(c, "Facility updated", nil)
}

// DELETE /api/a/facilities/:id
func (h *FacilityController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.Facility{}, "facility_id = ?", id)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Delete facility failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Facility not found")
	}
	return helper.Success(c, "Facility deleted", nil)
}

// POST /api/a/facilities/:id/gallery — append one photo to the gallery
func (h *FacilityController) AddGalleryPhoto(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Missing photo file")
	}

	url, err := ossHelper.UploadImageToOSSScoped("facilities", fh)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.Error(c, fe.Code, fe.Message)
		}
		return helper.Error(c, fiber.StatusBadGateway, "Photo upload failed")
	}

	// array_append keeps this a single round trip
	res := h.DB.WithContext(c.Context()).Model(&model.Facility{}).
		Where("facility_id = ?", id).
		Update("facility_gallery", gorm.Expr("array_append(COALESCE(facility_gallery, '{}'), ?)", url))
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Save gallery failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Facility not found")
	}
	return helper.Success(c, "Photo added", fiber.Map{"url": url})
}
