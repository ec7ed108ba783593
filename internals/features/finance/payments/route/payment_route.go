package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/finance/payments/controller"
)

// AdminPaymentRoutes mounts the payments dashboard and refund endpoints.
func AdminPaymentRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewPaymentController(db)

	g := admin.Group("/payments")
	g.Get("/", ctl.ListAll)
	g.Get("/:id", ctl.GetByID)
	g.Post("/:id/refund", ctl.Refund)

	admin.Get("/parents/:id/payment-methods", ctl.StoredMethods)
}
