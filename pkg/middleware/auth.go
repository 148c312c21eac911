// Package middleware provides HTTP middleware for the organization-facing
// endpoints.
package middleware

import (
	"errors"

	"github.com/doemais/marketplace/pkg/config"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JwtProtected guards a route with bearer token verification. The verified
// token lands in c.Locals("user") for handlers to read claims from.
func JwtProtected(cfg config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// ErrNoTokenClaims is returned when the request carries no verified token.
var ErrNoTokenClaims = errors.New("missing token claims in request context")

// OrganizationClaims is the identity carried by an organization token.
type OrganizationClaims struct {
	OrganizationID uuid.UUID
	IsAdmin        bool
}

// ClaimsFromContext extracts the organization identity from the verified
// token placed in the context by JwtProtected.
func ClaimsFromContext(c *fiber.Ctx) (*OrganizationClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, ErrNoTokenClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNoTokenClaims
	}
	sub, _ := claims["org_id"].(string)
	orgID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("token carries no valid organization id")
	}
	isAdmin, _ := claims["is_admin"].(bool)
	return &OrganizationClaims{OrganizationID: orgID, IsAdmin: isAdmin}, nil
}
