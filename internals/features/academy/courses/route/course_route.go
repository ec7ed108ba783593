package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	courseController "kartacademy_backend/internals/features/academy/courses/controller"
)

func PublicCourseRoutes(r fiber.Router, db *gorm.DB) {
	h := courseController.NewCourseController(db)

	courses := r.Group("/courses")
	{
		courses.Get("/", h.ListActive)
		courses.Get("/calendar", h.Calendar)
		courses.Get("/:slug", h.GetBySlug)
	}
}

func AdminCourseRoutes(r fiber.Router, db *gorm.DB) {
	h := courseController.NewCourseController(db)

	courses := r.Group("/courses")
	{
		courses.Get("/", h.ListAll)
		courses.Post("/", h.Create)
		courses.Patch("/:id", h.Update)
		courses.Delete("/:id", h.Delete)
		courses.Post("/:id/image", h.UploadImage)
	}
}
