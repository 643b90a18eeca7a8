package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/donations/gateway_events/controller"
)

func GatewayEventAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewGatewayEventController(db)
	admin.Get("/gateway-events", ctl.List)
}
