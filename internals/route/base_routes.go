package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"churchhub_backend/internals/configs"
	databases "churchhub_backend/internals/databases"
)

func BaseRoutes(app *fiber.App, db *gorm.DB, cfg configs.AppConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("churchhub donations api")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "connected"
		serverStatus := "ok"
		httpStatus := fiber.StatusOK
		if err := databases.Ping(c.UserContext(), db); err != nil {
			dbStatus = "database connection error"
			serverStatus = "down"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    cfg.Env,
		})
	})
}
