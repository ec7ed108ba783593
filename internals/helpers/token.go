package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Locals keys hydrated by the auth middleware
const (
	LocRawToken = "raw_token"
	LocUserID   = "user_id"
	LocRole     = "role"
	LocIsGuest  = "is_guest"
)

// GetRawAccessToken returns the access token from:
// 1) cookie "access_token"
// 2) Locals("raw_token") set by the middleware
// 3) Authorization header "Bearer <token>"
func GetRawAccessToken(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Cookies("access_token")); v != "" {
		return v
	}
	if v, ok := c.Locals(LocRawToken).(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	const p = "Bearer "
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > len(p) && strings.HasPrefix(auth, p) {
		return strings.TrimSpace(auth[len(p):])
	}
	return ""
}

func GetRefreshTokenFromCookie(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Cookies("refresh_token"))
}

func SetRawAccessToken(c *fiber.Ctx, raw string) {
	if strings.TrimSpace(raw) != "" {
		c.Locals(LocRawToken, strings.TrimSpace(raw))
	}
}

// GetUserIDFromToken reads the authenticated user id hydrated into Locals.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	switch v := c.Locals(LocUserID).(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user id in token")
		}
		return id, nil
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
}

func GetRoleFromToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocRole).(string); ok {
		return v
	}
	return ""
}

func IsGuestSession(c *fiber.Ctx) bool {
	v, _ := c.Locals(LocIsGuest).(bool)
	return v
}

// UserIDFromClaims pulls "sub" (fallback "user_id") out of raw claims.
func UserIDFromClaims(claims jwt.MapClaims) (uuid.UUID, bool) {
	for _, key := range []string{"sub", "user_id"} {
		if raw, ok := claims[key]; ok {
			if s, ok := raw.(string); ok {
				if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
					return id, true
				}
			}
		}
	}
	return uuid.Nil, false
}
