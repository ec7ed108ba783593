package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"kartacademy_backend/internals/configs"
)

const (
	AccessTokenTTL  = 2 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
	GuestTokenTTL   = 24 * time.Hour
)

// IssueAccessToken signs an access JWT carrying id + role.
func IssueAccessToken(userID uuid.UUID, role string, isGuest bool) (string, error) {
	if configs.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	ttl := AccessTokenTTL
	if isGuest {
		ttl = GuestTokenTTL
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID.String(),
		"role":     role,
		"is_guest": isGuest,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(configs.JWTSecret))
}

func IssueRefreshToken(userID uuid.UUID) (string, error) {
	if configs.JWTRefreshSecret == "" {
		return "", errors.New("JWT_REFRESH_SECRET is not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(RefreshTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(configs.JWTRefreshSecret))
}

// ParseRefreshToken validates the refresh JWT and returns the subject id.
func ParseRefreshToken(raw string) (uuid.UUID, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(configs.JWTRefreshSecret), nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, errors.New("refresh token invalid")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("refresh token invalid")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New("refresh token invalid")
	}
	return id, nil
}

// TokenExpiry reads exp so logout can blacklist until expiry only.
func TokenExpiry(raw string) time.Time {
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Now().Add(AccessTokenTTL)
	}
	if claims, ok := tok.Claims.(jwt.MapClaims); ok {
		if exp, ok := claims["exp"].(float64); ok {
			return time.Unix(int64(exp), 0)
		}
	}
	return time.Now().Add(AccessTokenTTL)
}
