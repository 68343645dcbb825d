// Package bootstrap wires configuration, adapters, and services into the API
// server and the background worker.
package bootstrap

import (
	"strings"
	"time"

	"lexflow_server/adapter/in/http"
	"lexflow_server/config"
	"lexflow_server/infra/middleware"
	"lexflow_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "lexflow-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialize dependencies")
		return nil, nil, err
	}

	middleware.InitAuditLogger(deps.Redis)

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:   10 * 1024 * 1024,
		Concurrency: 256 * 1024,

		StreamRequestBody: true,
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS: credentials require explicit origins.
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health checks (no auth)
	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis, deps.MongoDB)
	healthHandler.Register(app)

	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	rateLimiter := middleware.NewRateLimiter(cfg.APIRateLimit, time.Minute)
	api.Use(rateLimiter.Handler())
	api.Use(middleware.Audit())

	http.NewEmailHandler(deps.MailroomService).RegisterRoutes(api)
	http.NewCaseHandler(deps.MatterService).RegisterRoutes(api)
	http.NewClientHandler(deps.DirectoryService).RegisterRoutes(api)
	http.NewSourceHandler(deps.DirectoryService).RegisterRoutes(api)
	http.NewBillingHandler(deps.BillingService).RegisterRoutes(api)
	http.NewChatHandler(deps.ChatService).RegisterRoutes(api)

	if deps.DocumentService != nil {
		http.NewDocumentHandler(deps.DocumentService).RegisterRoutes(api)
	}
	if deps.AIService != nil {
		http.NewAIHandler(deps.AIService).RegisterRoutes(api)
	}

	logger.Info("API server initialized")

	return app, cleanup, nil
}
