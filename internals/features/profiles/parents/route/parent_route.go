package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	parentController "kartacademy_backend/internals/features/profiles/parents/controller"
)

func UserParentRoutes(r fiber.Router, db *gorm.DB) {
	h := parentController.NewParentController(db)

	parents := r.Group("/parents")
	{
		parents.Get("/me", h.Me)
		parents.Patch("/me", h.UpdateMe)
		parents.Get("/me/students", h.MyStudents)
	}
}

func AdminParentRoutes(r fiber.Router, db *gorm.DB) {
	h := parentController.NewParentController(db)

	parents := r.Group("/parents")
	{
		parents.Get("/", h.ListAll)
		parents.Get("/:id", h.GetByID)
	}
}
