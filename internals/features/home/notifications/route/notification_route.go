package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/home/notifications/controller"
)

func UserNotificationRoutes(user fiber.Router, db *gorm.DB) {
	ctl := controller.NewNotificationController(db)

	g := user.Group("/notifications")
	g.Get("/", ctl.ListMine)
	g.Patch("/:id/read", ctl.MarkRead)
}
