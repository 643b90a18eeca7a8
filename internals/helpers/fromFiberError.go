package helper

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is installed as fiber.Config.ErrorHandler so every error a handler
// returns leaves as the standard JSON envelope with a status code.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ae *AppError
	if errors.As(err, &ae) {
		status := ae.Status()
		if status >= 500 {
			zap.L().Error("request failed",
				zap.String("request_id", RequestID(c)),
				zap.String("path", c.Path()),
				zap.String("kind", ae.Kind.String()),
				zap.Error(err),
			)
		}
		if ae.Kind == KindValidation && ae.Field != "" {
			return JsonValidationError(c, status, ae.Message, map[string][]string{ae.Field: {ae.Message}})
		}
		return JsonError(c, status, ae.Message)
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, fiber.StatusBadRequest, "validation failed", ValidationMessages(ve))
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	zap.L().Error("unhandled error",
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return JsonError(c, fiber.StatusInternalServerError, "")
}

// RequestID returns the id set by the request-id middleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocRequestID).(string); ok {
		return id
	}
	return ""
}

const LocRequestID = "reqid"
