package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	equipmentController "kartacademy_backend/internals/features/academy/equipment/controller"
)

func AdminEquipmentRoutes(r fiber.Router, db *gorm.DB) {
	h := equipmentController.NewEquipmentController(db)

	equipment := r.Group("/equipment")
	{
		equipment.Get("/", h.List)
		equipment.Post("/", h.Create)
		equipment.Put("/:id", h.Update)
		equipment.Post("/:id/maintenance", h.AddMaintenanceNote)
		equipment.Delete("/:id", h.Delete)
	}
}
