package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/enrollments/enrollments/controller"
)

// AdminEnrollmentRoutes mounts the back-office enrollment endpoints.
func AdminEnrollmentRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewEnrollmentController(db)

	g := admin.Group("/enrollments")
	g.Get("/", ctl.ListAll)
	g.Get("/:id", ctl.GetByID)
	g.Patch("/:id/status", ctl.UpdateStatus)
	g.Post("/:id/notes", ctl.AppendNote)
	g.Post("/:id/communications", ctl.AppendCommunication)
	g.Delete("/:id", ctl.Delete)
}
