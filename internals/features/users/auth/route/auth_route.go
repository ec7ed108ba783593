package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authController "kartacademy_backend/internals/features/users/auth/controller"
	"kartacademy_backend/internals/middlewares"
)

func AuthRoutes(r fiber.Router, db *gorm.DB) {
	h := authController.NewAuthController(db)

	auth := r.Group("/auth", middlewares.StrictRateLimiter())
	{
		auth.Post("/register", h.Register)
		auth.Post("/login", h.Login)
		auth.Post("/google", h.GoogleLogin)
		auth.Post("/guest", h.GuestSession)
		auth.Post("/refresh-token", h.RefreshToken)
		auth.Post("/logout", h.Logout)
	}
}
