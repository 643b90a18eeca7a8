package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	LocUserID   = "user_id"
	LocUserRole = "user_role"
)

// CurrentUserID returns the authenticated user id stored by the auth middleware.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	if raw, ok := c.Locals(LocUserID).(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// ParseUUIDParam parses a path parameter, reporting a validation error on the param name.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, NewValidationError(name, "must be a valid uuid")
	}
	return id, nil
}
