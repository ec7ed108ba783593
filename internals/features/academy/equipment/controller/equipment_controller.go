package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/academy/equipment/model"
	helper "kartacademy_backend/internals/helpers"
)

type EquipmentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewEquipmentController(db *gorm.DB) *EquipmentController {
	return &EquipmentController{DB: db, Validator: validator.New()}
}

type upsertEquipmentRequest struct {
	EquipmentLabel      string `json:"equipment_label" validate:"required,min=2,max=60"`
	EquipmentCategory   string `json:"equipment_category" validate:"required,oneof=kart helmet suit gloves other"`
	EquipmentSize       string `json:"equipment_size" validate:"omitempty,max=20"`
	EquipmentCondition  string `json:"equipment_condition" validate:"omitempty,oneof=new good worn maintenance retired"`
	EquipmentIsAssigned *bool  `json:"equipment_is_assigned,omitempty"`
}

type maintenanceNoteRequest struct {
	Note string `json:"note" validate:"required,min=3"`
}

// GET /api/a/equipment?category=&condition=
func (h *EquipmentController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	q := h.DB.WithContext(c.Context()).Model(&model.Equipment{})
	if v := c.Query("category"); v != "" {
		q = q.Where("equipment_category = ?", v)
	}
	if v := c.Query("condition"); v != "" {
		q = q.Where("equipment_condition = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load equipment")
	}

	var rows []model.Equipment
	if err := q.Order("equipment_label ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load equipment")
	}
	return helper.Success(c, "OK", fiber.Map{
		"items": rows,
		"meta":  helper.BuildMeta(total, p),
	})
}

// POST /api/a/equipment
func (h *EquipmentController) Create(c *fiber.Ctx) error {
	var req upsertEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	cond := req.EquipmentCondition
	if cond == "" {
		cond = model.EquipmentConditionGood
	}
	m := model.Equipment{
		EquipmentLabel:     strings.ToUpper(strings.TrimSpace(req.EquipmentLabel)),
		EquipmentCategory:  req.EquipmentCategory,
		EquipmentSize:      req.EquipmentSize,
		EquipmentCondition: cond,
	}
	if req.EquipmentIsAssigned != nil {
		m.EquipmentIsAssigned = *req.EquipmentIsAssigned
	}
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return helper.Error(c, fiber.StatusConflict, "Equipment label already exists")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "Create equipment failed")
	}
	return helper.SuccessWithCode(c, fiber.StatusCreated, "Equipment created", m)
}

// PUT /api/a/equipment/:id
func (h *EquipmentController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var req upsertEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	patch := map[string]interface{}{
		"equipment_label":    strings.ToUpper(strings.TrimSpace(req.EquipmentLabel)),
		"equipment_category": req.EquipmentCategory,
		"equipment_size":     req.EquipmentSize,
	}
	if req.EquipmentCondition != "" {
		patch["equipment_condition"] = req.EquipmentCondition
	}
	if req.EquipmentIsAssigned != nil {
		patch["equipment_is_assigned"] = *req.EquipmentIsAssigned
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Equipment{}).
		Where("equipment_id = ?", id).Updates(patch)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Update equipment failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Equipment not found")
	}
	return helper.Success(c, "Equipment updated", nil)
}

// POST /api/a/equipment/:id/maintenance — append one note to the log
func (h *EquipmentController) AddMaintenanceNote(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	var req maintenanceNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res := h.DB.WithContext(c.Context()).Model(&model.Equipment{}).
		Where("equipment_id = ?", id).
		Update("equipment_maintenance_notes",
			gorm.Expr("array_append(COALESCE(equipment_maintenance_notes, '{}'), ?)", strings.TrimSpace(req.Note)))
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Save note failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Equipment not found")
	}
	return helper.Success(c, "Note added", nil)
}

// DELETE /api/a/equipment/:id
func (h *EquipmentController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid id")
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.Equipment{}, "equipment_id = ?", id)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Delete equipment failed")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Equipment not found")
	}
	return helper.Success(c, "Equipment deleted", nil)
}
