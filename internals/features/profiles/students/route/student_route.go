package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	studentController "kartacademy_backend/internals/features/profiles/students/controller"
)

func AdminStudentRoutes(r fiber.Router, db *gorm.DB) {
	h := studentController.NewStudentController(db)

	students := r.Group("/students")
	{
		students.Get("/", h.ListAll)
		students.Get("/:id", h.GetByID)
		students.Patch("/:id", h.Update)
	}
}
