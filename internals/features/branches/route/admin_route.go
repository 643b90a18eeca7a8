package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/branches/controller"
)

func BranchAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewBranchController(db)

	g := admin.Group("/branches")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Put("/:id", ctl.Update)
}
