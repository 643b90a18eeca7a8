package controller

import (
	"github.com/gofiber/fiber/v2"

	"churchhub_backend/internals/features/users/auth/dto"
	"churchhub_backend/internals/features/users/auth/service"
	helper "churchhub_backend/internals/helpers"
)

type AuthController struct {
	Svc *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Svc: svc}
}

// POST /api/auth/login
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.NewValidationError("body", "invalid json body")
	}
	res, err := h.Svc.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "login successful", res)
}

// GET /api/auth/me
func (h *AuthController) Me(c *fiber.Ctx) error {
	userID, ok := helper.CurrentUserID(c)
	if !ok {
		return helper.NewAuthError("unauthorized")
	}
	user, err := h.Svc.Me(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.LoginUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}
