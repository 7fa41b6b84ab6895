package middleware

import (
	"errors"
	"fmt"
	"time"

	"realestate-crm/internal/config"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	corsMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsHeaders = "Origin,Content-Type,Accept,Authorization"
)

// Setup configures all middlewares for the application
func Setup(app *fiber.App, cfg *config.Config) {
	log := config.GetLogger()

	// Panics become 500s; the stack goes to the application log
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			config.LogError(log, "middleware", "recover", c.Method()+" "+c.Path(), nil, fmt.Errorf("panic: %v", e))
		},
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// General API limit: 100 requests per minute per IP
	app.Use(rateLimiter(100, "api", "Too many requests"))

	accessLog := logger.Config{
		Format: "${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		Output: log.Writer(),
	}
	if !cfg.IsDev() {
		accessLog.Format = "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n"
		accessLog.TimeFormat = time.RFC3339
	}
	app.Use(logger.New(accessLog))

	// Dev accepts any origin without cookies; prod sends the session
	// cookies to the configured frontends only.
	corsConfig := cors.Config{
		AllowOrigins: "*",
		AllowMethods: corsMethods,
		AllowHeaders: corsHeaders,
	}
	if !cfg.IsDev() {
		corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
		corsConfig.AllowCredentials = true
	}
	app.Use(cors.New(corsConfig))
}

func rateLimiter(limit int, bucket, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "-" + bucket
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// AuthRateLimiter allows 5 login attempts per minute per IP
func AuthRateLimiter() fiber.Handler {
	return rateLimiter(5, "auth", "Too many login attempts, try again in a minute")
}

// StrictRateLimiter allows 3 password changes per minute per IP
func StrictRateLimiter() fiber.Handler {
	return rateLimiter(3, "strict", "Rate limit exceeded")
}

// CustomErrorHandler renders errors that escape the handlers
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return response.FromError(c, config.GetLogger(), err)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Code, fe.Message)
	}

	config.LogError(config.GetLogger(), "middleware", "CustomErrorHandler", c.Path(), nil, err)
	return response.Error(c, fiber.StatusInternalServerError, "Internal Server Error")
}
