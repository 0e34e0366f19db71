package auth

import (
	"strings"

	"seedprocure-backend/internal/apperr"
	"seedprocure-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxEmployeeIDKey = "employee_id"
	CtxRoleKey       = "employee_role"
)

// JWTMiddleware resolves the caller once per request and stores the identity
// in request locals. Handlers read it back with ActorID and pass it on by value.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Unauthorized("missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Unauthorized("Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil || claims.EmployeeID == 0 {
			return apperr.Unauthorized("invalid or expired token")
		}

		c.Locals(CtxEmployeeIDKey, claims.EmployeeID)
		c.Locals(CtxRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.EmployeeRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxRoleKey).(models.EmployeeRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role not resolved")
		}
		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "not allowed for this role")
	}
}

// ActorID returns the resolved employee id, or Unauthorized when the request
// carries none.
func ActorID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals(CtxEmployeeIDKey).(uint)
	if !ok || id == 0 {
		return 0, apperr.Unauthorized("no authenticated employee")
	}
	return id, nil
}
