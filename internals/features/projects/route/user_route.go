package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/projects/controller"
	"churchhub_backend/internals/features/projects/service"
)

// ProjectPublicRoutes lists active projects only.
func ProjectPublicRoutes(public fiber.Router, db *gorm.DB) {
	ctl := controller.NewProjectController(service.NewProjectService(db))
	public.Get("/projects", ctl.PublicList)
}
