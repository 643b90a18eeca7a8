package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/features/branches/controller"
)

// BranchPublicRoutes is read only.
func BranchPublicRoutes(public fiber.Router, db *gorm.DB) {
	ctl := controller.NewBranchController(db)
	public.Get("/branches", ctl.PublicList)
}
