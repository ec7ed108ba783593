package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	facilityController "kartacademy_backend/internals/features/academy/facilities/controller"
)

func PublicFacilityRoutes(r fiber.Router, db *gorm.DB) {
	h := facilityController.NewFacilityController(db)

	facilities := r.Group("/facilities")
	{
		facilities.Get("/", h.ListActive)
		facilities.Get("/:slug", h.GetBySlug)
	}
}

func AdminFacilityRoutes(r fiber.Router, db *gorm.DB) {
	h := facilityController.NewFacilityController(db)

	facilities := r.Group("/facilities")
	{
		facilities.Post("/", h.Create)
		facilities.Put("/:id", h.Update)
		facilities.Delete("/:id", h.Delete)
		facilities.Post("/:id/gallery", h.AddGalleryPhoto)
	}
}
