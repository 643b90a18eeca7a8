package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "churchhub_backend/internals/helpers"
)

// RoleMiddlewareWithCustomError lets the request through only for allowedRoles.
// It must run after AuthMiddleware.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(helper.LocUserRole).(string)
		if !ok || role == "" {
			return helper.NewAuthError("unauthorized - missing role information")
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		if customForbiddenMessage == "" {
			customForbiddenMessage = "forbidden - you are not authorized to access this resource"
		}
		return helper.NewForbidden(customForbiddenMessage)
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
