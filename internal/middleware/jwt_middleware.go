package middleware

import (
	"strings"

	"quickpoll/internal/apperror"
	"quickpoll/internal/models"
	"quickpoll/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthorized("Unauthorized: No token provided or invalid format.")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return apperror.Unauthorized("Unauthorized: No token provided or invalid format.")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return apperror.Unauthorized("Unauthorized: Token missing.")
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			return err
		}

		c.Locals(localUserID, claims.ID)
		c.Locals(localUserRole, claims.Role)
		return c.Next()
	}
}

// Authorize decides whether a caller with role actual may use a route requiring role required.
func Authorize(required, actual models.Role) error {
	if actual == "" {
		return apperror.Unauthorized("Unauthorized: User role not found.")
	}
	if required == models.RoleAdmin && actual != models.RoleAdmin {
		return apperror.Forbidden("Forbidden: Admin access required.")
	}
	return nil
}

// RequireRole rejects requests whose authenticated role does not satisfy required.
// It must run after AuthRequired.
func RequireRole(required models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Authorize(required, UserRole(c)); err != nil {
			return err
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's id, or 0.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

// UserRole returns the authenticated user's role, or "".
func UserRole(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(localUserRole).(models.Role)
	return role
}
