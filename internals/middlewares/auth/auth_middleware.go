package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authRepo "churchhub_backend/internals/features/users/auth/repository"
	authService "churchhub_backend/internals/features/users/auth/service"
	helper "churchhub_backend/internals/helpers"
)

// AuthMiddleware requires a valid access token (Bearer header or access_token cookie)
// belonging to an active user. The role stored in the database wins over the token claim.
func AuthMiddleware(db *gorm.DB, svc *authService.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := helper.GetRawAccessToken(c)
		if raw == "" {
			return helper.NewAuthError("unauthorized - missing access token")
		}

		_, userID, err := svc.ParseToken(raw)
		if err != nil {
			zap.L().Debug("token rejected", zap.String("request_id", helper.RequestID(c)), zap.Error(err))
			return helper.NewAuthError("unauthorized - invalid or expired token")
		}

		user, err := authRepo.FindActiveFlag(c.UserContext(), db, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NewAuthError("unauthorized - user not found")
			}
			return helper.NewInternal("load user", err)
		}
		if !user.IsActive {
			return helper.NewForbidden("account is disabled")
		}

		c.Locals(helper.LocUserID, user.ID.String())
		c.Locals(helper.LocUserRole, user.Role)
		return c.Next()
	}
}
