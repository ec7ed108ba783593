package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"kartacademy_backend/internals/constants"
	authMiddleware "kartacademy_backend/internals/middlewares/auth"

	courseRoute "kartacademy_backend/internals/features/academy/courses/route"
	equipmentRoute "kartacademy_backend/internals/features/academy/equipment/route"
	facilityRoute "kartacademy_backend/internals/features/academy/facilities/route"
	instructorRoute "kartacademy_backend/internals/features/academy/instructors/route"
	enrollmentRoute "kartacademy_backend/internals/features/enrollments/enrollments/route"
	flowRoute "kartacademy_backend/internals/features/enrollments/flow/route"
	paymentRoute "kartacademy_backend/internals/features/finance/payments/route"
	notificationRoute "kartacademy_backend/internals/features/home/notifications/route"
	notificationService "kartacademy_backend/internals/features/home/notifications/service"
	parentRoute "kartacademy_backend/internals/features/profiles/parents/route"
	studentRoute "kartacademy_backend/internals/features/profiles/students/route"
	authController "kartacademy_backend/internals/features/users/auth/controller"
	authRoute "kartacademy_backend/internals/features/users/auth/route"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app)

	log.Println("[INFO] Setting up AuthRoutes...")
	authRoute.AuthRoutes(app.Group("/api"), db)

	jwtOpts := authMiddleware.AuthJWTOpts{
		Secret:              os.Getenv("JWT_SECRET"),
		BlacklistChecker:    authController.IsBlacklisted(db),
		AllowCookieFallback: true,
	}

	// PUBLIC: marketing site, no auth
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")
	courseRoute.PublicCourseRoutes(public, db)
	instructorRoute.PublicInstructorRoutes(public, db)
	facilityRoute.PublicFacilityRoutes(public, db)

	// USER: signed-in parents and guest checkout sessions
	log.Println("[INFO] Setting up USER group...")
	user := app.Group("/api/u", authMiddleware.AuthJWT(jwtOpts))
	notifier := notificationService.NewSender(db)
	flowRoute.UserFlowRoutes(user, db, notifier)
	parentRoute.UserParentRoutes(user, db)
	notificationRoute.UserNotificationRoutes(user, db)

	// ADMIN: back office
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(jwtOpts),
		authMiddleware.RequireRoles("back office", constants.AdminAndAbove...),
	)
	courseRoute.AdminCourseRoutes(admin, db)
	instructorRoute.AdminInstructorRoutes(admin, db)
	facilityRoute.AdminFacilityRoutes(admin, db)
	equipmentRoute.AdminEquipmentRoutes(admin, db)
	parentRoute.AdminParentRoutes(admin, db)
	studentRoute.AdminStudentRoutes(admin, db)
	enrollmentRoute.AdminEnrollmentRoutes(admin, db)
	paymentRoute.AdminPaymentRoutes(admin, db)
}
