package route

import (
	"github.com/gofiber/fiber/v2"

	"churchhub_backend/internals/features/users/auth/controller"
	"churchhub_backend/internals/features/users/auth/service"
)

// AuthRoutes mounts /api/auth. login is rate limited by the caller.
func AuthRoutes(r fiber.Router, svc *service.AuthService, limiter fiber.Handler, requireAuth fiber.Handler) {
	ctrl := controller.NewAuthController(svc)

	g := r.Group("/auth")
	g.Post("/login", limiter, ctrl.Login)
	g.Get("/me", requireAuth, ctrl.Me)
}
