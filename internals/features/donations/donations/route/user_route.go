package route

import (
	"github.com/gofiber/fiber/v2"

	"churchhub_backend/internals/features/donations/donations/controller"
	"churchhub_backend/internals/features/donations/donations/service"
)

// PaymentRoutes mounts the public /payments endpoints. The webhook stays outside the limiter.
func PaymentRoutes(api fiber.Router, svc *service.DonationService, limiter fiber.Handler) {
	ctl := controller.NewPaymentController(svc)

	g := api.Group("/payments")
	g.Post("/checkout", limiter, ctl.Checkout)
	g.Post("/verify", limiter, ctl.Verify)
	g.Post("/webhook", ctl.Webhook)
}
