package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/enrollments/flow/controller"
	"kartacademy_backend/internals/features/enrollments/flow/service"
	"kartacademy_backend/internals/middlewares"
)

// UserFlowRoutes mounts the enrollment checkout endpoints. The flow key
// travels in the X-Flow-Key header; auth-dependent steps read the JWT.
func UserFlowRoutes(user fiber.Router, db *gorm.DB, notifier service.NotificationSender) {
	ctl := controller.NewFlowController(db, notifier)

	g := user.Group("/enroll")
	g.Post("/start", ctl.Start)
	g.Get("/state", ctl.State)
	g.Post("/auth", ctl.SubmitAuth)
	g.Post("/parent", ctl.SubmitParent)
	g.Post("/payment", middlewares.StrictRateLimiter(), ctl.SubmitPayment)
	g.Get("/payment-methods", ctl.PaymentMethods)
	g.Post("/student", ctl.SubmitStudent)
	g.Post("/complete", ctl.Complete)
	g.Delete("/", ctl.Abort)
}
