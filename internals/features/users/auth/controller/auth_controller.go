package controller

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/futurenda/google-auth-id-token-verifier"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/configs"
	"kartacademy_backend/internals/constants"
	"kartacademy_backend/internals/features/users/auth/dto"
	"kartacademy_backend/internals/features/users/auth/model"
	"kartacademy_backend/internals/features/users/auth/service"
	helper "kartacademy_backend/internals/helpers"
)

type AuthController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db, Validator: validator.New()}
}

// POST /api/auth/register
func (h *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	u := model.User{
		UserName:     strings.TrimSpace(req.Name),
		UserEmail:    strings.ToLower(strings.TrimSpace(req.Email)),
		UserPassword: &hash,
		UserRole:     constants.RoleParent,
	}
	if p := strings.TrimSpace(req.Phone); p != "" {
		u.UserPhone = &p
	}

	if err := h.DB.WithContext(c.Context()).Create(&u).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return helper.Error(c, fiber.StatusConflict, "Email is already registered")
		}
		log.Printf("[AUTH] register failed: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Register failed")
	}

	return h.issueSession(c, &u, fiber.StatusCreated)
}

// POST /api/auth/login
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var u model.User
	err := h.DB.WithContext(c.Context()).
		First(&u, "user_email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.Error(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Login failed")
	}
	if !u.UserIsActive {
		return helper.Error(c, fiber.StatusForbidden, "Account is disabled")
	}
	if u.UserPassword == nil || !service.CheckPassword(*u.UserPassword, req.Password) {
		return helper.Error(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return h.issueSession(c, &u, fiber.StatusOK)
}

// POST /api/auth/google
// Sign-in with a Google ID token; creates the account on first sign-in.
func (h *AuthController) GoogleLogin(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if configs.GoogleClientID == "" {
		return helper.Error(c, fiber.StatusInternalServerError, "Google sign-in is not configured")
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(req.IDToken, []string{configs.GoogleClientID}); err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Invalid Google token")
	}
	claims, err := googleAuthIDTokenVerifier.Decode(req.IDToken)
	if err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Invalid Google token")
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	var u model.User
	err = h.DB.WithContext(c.Context()).First(&u, "user_google_id = ? OR user_email = ?", claims.Sub, email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub := claims.Sub
		u = model.User{
			UserName:     strings.TrimSpace(claims.Name),
			UserEmail:    email,
			UserGoogleID: &sub,
			UserRole:     constants.RoleParent,
		}
		if err := h.DB.WithContext(c.Context()).Create(&u).Error; err != nil {
			log.Printf("[AUTH] google create failed: %v", err)
			return helper.Error(c, fiber.StatusInternalServerError, "Sign-in failed")
		}
	case err != nil:
		return helper.Error(c, fiber.StatusInternalServerError, "Sign-in failed")
	default:
		if u.UserGoogleID == nil {
			sub := claims.Sub
			u.UserGoogleID = &sub
			_ = h.DB.WithContext(c.Context()).Model(&u).Update("user_google_id", sub).Error
		}
		if !u.UserIsActive {
			return helper.Error(c, fiber.StatusForbidden, "Account is disabled")
		}
	}

	return h.issueSession(c, &u, fiber.StatusOK)
}

// POST /api/auth/guest
// Mint a short-lived guest session so the enrollment flow can run without an account.
func (h *AuthController) GuestSession(c *fiber.Ctx) error {
	guestID := uuid.New()
	access, err := service.IssueAccessToken(guestID, constants.RoleGuest, true)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Guest session failed")
	}
	setAccessCookie(c, access, service.GuestTokenTTL)
	return helper.Success(c, "Guest session created", dto.AuthResponse{
		UserID:      guestID.String(),
		Name:        "Guest",
		Role:        constants.RoleGuest,
		IsGuest:     true,
		AccessToken: access,
	})
}

// POST /api/auth/refresh-token
func (h *AuthController) RefreshToken(c *fiber.Ctx) error {
	refresh := helper.GetRefreshTokenFromCookie(c)
	if refresh == "" {
		return helper.Error(c, fiber.StatusUnauthorized, "Missing refresh token")
	}
	userID, err := service.ParseRefreshToken(refresh)
	if err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, err.Error())
	}

	var u model.User
	if err := h.DB.WithContext(c.Context()).First(&u, "user_id = ?", userID).Error; err != nil {
		return helper.Error(c, fiber.StatusUnauthorized, "User not found")
	}
	if !u.UserIsActive {
		return helper.Error(c, fiber.StatusForbidden, "Account is disabled")
	}

	return h.issueSession(c, &u, fiber.StatusOK)
}

// POST /api/auth/logout
func (h *AuthController) Logout(c *fiber.Ctx) error {
	raw := helper.GetRawAccessToken(c)
	if raw != "" {
		bl := model.TokenBlacklist{Token: raw, ExpiredAt: service.TokenExpiry(raw)}
		if err := h.DB.WithContext(c.Context()).Create(&bl).Error; err != nil {
			log.Printf("[AUTH] blacklist insert failed: %v", err)
		}
	}
	clearAuthCookies(c)
	return helper.Success(c, "Logged out", nil)
}

// IsBlacklisted is plugged into the auth middleware.
func IsBlacklisted(db *gorm.DB) func(string) (bool, error) {
	return func(raw string) (bool, error) {
		var n int64
		err := db.Model(&model.TokenBlacklist{}).
			Where("token = ? AND deleted_at IS NULL", raw).
			Count(&n).Error
		return n > 0, err
	}
}

/* ===================== session plumbing ===================== */

func (h *AuthController) issueSession(c *fiber.Ctx, u *model.User, code int) error {
	access, err := service.IssueAccessToken(u.UserID, u.UserRole, false)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Token issue failed")
	}
	refresh, err := service.IssueRefreshToken(u.UserID)
	if err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "Token issue failed")
	}

	setAccessCookie(c, access, service.AccessTokenTTL)
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refresh,
		Expires:  time.Now().Add(service.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
	})

	return helper.SuccessWithCode(c, code, "Authenticated", dto.AuthResponse{
		UserID:      u.UserID.String(),
		Name:        u.UserName,
		Email:       u.UserEmail,
		Role:        u.UserRole,
		AccessToken: access,
	})
}

func setAccessCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
	})
}

func clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "None",
			Path:     "/",
		})
	}
}
