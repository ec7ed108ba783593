package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/home/notifications/model"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	helper "kartacademy_backend/internals/helpers"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

func (ctl *NotificationController) callerParentID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return uuid.Nil, false
	}
	var parent parentModel.Parent
	if err := ctl.DB.First(&parent, "parent_user_id = ?", userID).Error; err != nil {
		return uuid.Nil, false
	}
	return parent.ParentID, true
}

// GET /api/u/notifications
func (ctl *NotificationController) ListMine(c *fiber.Ctx) error {
	parentID, ok := ctl.callerParentID(c)
	if !ok {
		return helper.Success(c, "OK", fiber.Map{"items": []any{}})
	}

	var rows []model.Notification
	if err := ctl.DB.
		Where("notification_parent_id = ?", parentID).
		Order("notification_created_at DESC").
		Limit(50).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to load notifications")
	}

	return helper.Success(c, "OK", fiber.Map{"items": rows})
}

// PATCH /api/u/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid notification id")
	}
	parentID, ok := ctl.callerParentID(c)
	if !ok {
		return helper.Error(c, fiber.StatusNotFound, "Notification not found")
	}

	res := ctl.DB.Model(&model.Notification{}).
		Where("notification_id = ? AND notification_parent_id = ?", id, parentID).
		Update("notification_is_read", true)
	if res.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Failed to update notification")
	}
	if res.RowsAffected == 0 {
		return helper.Error(c, fiber.StatusNotFound, "Notification not found")
	}

	return helper.Success(c, "Notification read", nil)
}
