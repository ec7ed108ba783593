package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helper "kartacademy_backend/internals/helpers"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(rawToken string) (bool, error) // return true if revoked
	AllowCookieFallback bool                                // accept cookie access_token when no Bearer
}

// AuthJWT verifies the access token and hydrates Locals (user_id, role, is_guest).
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		// 1) Take token: Authorization: Bearer xxx (or cookie when allowed)
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		// 2) Blacklist check (optional)
		if o.BlacklistChecker != nil {
			if black, err := o.BlacklistChecker(raw); err == nil && black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		// 3) Parse + verify algorithm
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}

		c.Locals("jwt_claims", claims)
		helper.SetRawAccessToken(c, raw)

		if id, ok := helper.UserIDFromClaims(claims); ok {
			c.Locals(helper.LocUserID, id)
		}
		if role, ok := claims["role"].(string); ok && role != "" {
			c.Locals(helper.LocRole, role)
		}
		if g, ok := claims["is_guest"].(bool); ok {
			c.Locals(helper.LocIsGuest, g)
		}

		return c.Next()
	}
}

// RequireRoles gates a group to the given roles (after AuthJWT).
func RequireRoles(feature string, roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := strings.ToLower(helper.GetRoleFromToken(c))
		if _, ok := allowed[role]; !ok {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden: "+feature)
		}
		return c.Next()
	}
}
