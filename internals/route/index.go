package routes

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"churchhub_backend/internals/configs"
	"churchhub_backend/internals/constants"
	branchRoute "churchhub_backend/internals/features/branches/route"
	donationRoute "churchhub_backend/internals/features/donations/donations/route"
	donationService "churchhub_backend/internals/features/donations/donations/service"
	"churchhub_backend/internals/features/donations/gateway"
	eventRoute "churchhub_backend/internals/features/donations/gateway_events/route"
	projectRoute "churchhub_backend/internals/features/projects/route"
	authRoute "churchhub_backend/internals/features/users/auth/route"
	authService "churchhub_backend/internals/features/users/auth/service"
	helper "churchhub_backend/internals/helpers"
	"churchhub_backend/internals/helpers/dbtime"
	"churchhub_backend/internals/middlewares"
	authMiddleware "churchhub_backend/internals/middlewares/auth"
)

var startTime time.Time

// Limiters are swappable so tests can run without rate limits.
type Limiters struct {
	Login   fiber.Handler
	Payment fiber.Handler
}

func DefaultLimiters() Limiters {
	return Limiters{
		Login:   middlewares.LoginRateLimiter(),
		Payment: middlewares.PaymentRateLimiter(),
	}
}

// NewApp builds the fiber app with the error handler, global middlewares and all routes.
func NewApp(cfg *configs.Config, db *gorm.DB, gw gateway.Client, limiters Limiters) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          helper.ErrorHandler,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})
	middlewares.SetupMiddlewares(app, cfg.App)
	SetupRoutes(app, cfg, db, gw, limiters)
	return app
}

func SetupRoutes(app *fiber.App, cfg *configs.Config, db *gorm.DB, gw gateway.Client, limiters Limiters) {
	startTime = time.Now()
	BaseRoutes(app, db, cfg.App)

	authSvc := authService.NewAuthService(db, cfg.JWT)
	donationSvc := donationService.NewDonationService(db, gw, cfg.Payment)
	requireAuth := authMiddleware.AuthMiddleware(db, authSvc)

	api := app.Group("/api")

	zap.L().Info("setting up auth routes")
	authRoute.AuthRoutes(api, authSvc, limiters.Login, requireAuth)

	zap.L().Info("setting up payment routes", zap.String("provider", gw.Provider()))
	donationRoute.PaymentRoutes(api, donationSvc, limiters.Payment)

	public := api.Group("/public")
	branchRoute.BranchPublicRoutes(public, db)
	projectRoute.ProjectPublicRoutes(public, db)

	zap.L().Info("setting up admin routes")
	admin := api.Group("/admin",
		requireAuth,
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("the admin api"), constants.AdminRoles...),
	)
	branchRoute.BranchAdminRoutes(admin, db)
	projectRoute.ProjectAdminRoutes(admin, db)
	donationRoute.DonationAdminRoutes(admin, db, donationSvc, dbtime.LoadLocation(cfg.App.Timezone))
	eventRoute.GatewayEventAdminRoutes(admin, db)
}
