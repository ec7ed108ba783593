package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	instructorController "kartacademy_backend/internals/features/academy/instructors/controller"
)

func PublicInstructorRoutes(r fiber.Router, db *gorm.DB) {
	h := instructorController.NewInstructorController(db)
	r.Get("/instructors", h.ListActive)
}

func AdminInstructorRoutes(r fiber.Router, db *gorm.DB) {
	h := instructorController.NewInstructorController(db)

	instructors := r.Group("/instructors")
	{
		instructors.Get("/", h.ListAll)
		instructors.Post("/", h.Create)
		instructors.Put("/:id", h.Update)
		instructors.Delete("/:id", h.Delete)
		instructors.Post("/:id/photo", h.UploadPhoto)
	}
}
