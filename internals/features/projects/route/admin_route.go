package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/projects/controller"
	"churchhub_backend/internals/features/projects/service"
)

func ProjectAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewProjectController(service.NewProjectService(db))

	g := admin.Group("/projects")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Put("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)
}
