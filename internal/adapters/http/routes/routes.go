package routes

import (
	"time"

	"realestate-crm/internal/adapters/http/handlers"
	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/config"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/services"
	"realestate-crm/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// entityRoute describes which CRUD verbs are mounted for one kind
type entityRoute struct {
	path   string
	kind   domain.EntityKind
	update bool
	delete bool
}

var entityRoutes = []entityRoute{
	{path: "/clients", kind: domain.KindClient, update: true, delete: true},
	{path: "/properties", kind: domain.KindProperty, update: true, delete: true},
	{path: "/transactions", kind: domain.KindTransaction, update: true, delete: true},
	{path: "/documents", kind: domain.KindDocument, update: true, delete: true},
	{path: "/reports", kind: domain.KindReport, update: true, delete: true},
	{path: "/users", kind: domain.KindUser, update: true},
	{path: "/accounting", kind: domain.KindAccounting, update: true, delete: true},
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	logger := config.GetLogger()
	validator := validation.New(cfg.PhoneRegion)

	// Initialize repositories
	repos := repositories.NewSet(db)

	// Initialize services
	authService := services.NewAuthService(repos.Users, repos.RefreshTokens, cfg, logger)
	userService := services.NewUserService(repos.Users, repos.RefreshTokens, validator, logger)
	reportService := services.NewReportService(repos, validator)
	entityService := services.NewEntityService(repos, validator, reportService, logger)
	dashboardService := services.NewDashboardService(repos)
	location, err := cfg.Location()
	if err != nil {
		config.LogError(logger, "routes", "Setup", "load CRON_TIMEZONE", cfg.Jobs.Timezone, err)
		location = time.UTC
	}
	closingService := services.NewClosingService(repos, location, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, config.GetRedisDB(), cfg.AppMode)
	authHandler := handlers.NewAuthHandler(authService, cfg, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger)
	reportHandler := handlers.NewReportHandler(reportService, logger)
	accountingHandler := handlers.NewAccountingHandler(closingService, logger)

	entityHandlers := make(map[domain.EntityKind]*handlers.EntityHandler, len(entityRoutes))
	for _, r := range entityRoutes {
		entityHandlers[r.kind] = handlers.NewEntityHandler(entityService, r.kind, logger)
	}

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", middleware.CacheControl(5*time.Minute), healthHandler.APIInfo)

	authRequired := middleware.AuthMiddleware(authService)

	// ============================================================
	// Auth routes
	// ============================================================
	auth := apiV1.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", authRequired, authHandler.LogoutAll)
	auth.Get("/me", authRequired, authHandler.Me)

	// ============================================================
	// Profile routes
	// ============================================================
	profile := apiV1.Group("/profile", authRequired, middleware.NoStore())
	profile.Get("/", userHandler.GetProfile)
	profile.Put("/", userHandler.UpdateProfile)
	profile.Put("/password", middleware.StrictRateLimiter(), userHandler.ChangePassword)

	// ============================================================
	// Entity routes
	// ============================================================
	entities := apiV1.Group("/entities", authRequired, middleware.NoStore())

	// Routes that are not plain CRUD go first
	entities.Get("/reports/:id/export", reportHandler.Export)
	entities.Post("/accounting/close", accountingHandler.CloseMonth)

	for _, r := range entityRoutes {
		h := entityHandlers[r.kind]
		group := entities.Group(r.path)
		group.Get("/", h.List)
		group.Post("/", h.Create)
		group.Get("/:id", h.Get)
		if r.update {
			group.Put("/:id", h.Update)
		}
		if r.delete {
			group.Delete("/:id", h.Delete)
		}
	}

	// ============================================================
	// Dashboard routes
	// ============================================================
	dashboard := apiV1.Group("/dashboard", authRequired, middleware.NoStore())
	dashboard.Get("/stats", dashboardHandler.GetStats)
}
