package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/donations/donations/controller"
	"churchhub_backend/internals/features/donations/donations/service"
)

// DonationAdminRoutes expects admin to already carry auth and role middleware.
func DonationAdminRoutes(admin fiber.Router, db *gorm.DB, svc *service.DonationService, loc *time.Location) {
	ctl := controller.NewDonationAdminController(db, svc, loc)

	g := admin.Group("/donations")
	g.Get("/", ctl.List)
	g.Get("/export", ctl.Export)
	g.Post("/verify", ctl.Verify)
	g.Get("/:id", ctl.Detail)

	admin.Get("/dashboard", ctl.Dashboard)
}
