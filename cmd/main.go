package main

import (
	"opinian/internal/handler"
	"opinian/internal/middleware"
	"opinian/internal/model"
	"opinian/internal/notify"
	"opinian/internal/service"
	"opinian/pkg/config"
	"opinian/pkg/database"
	"opinian/pkg/jwtutil"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting platform core service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Run migrations for the core models
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.Account{},
		&model.Content{},
		&model.ModerationQueueItem{},
		&model.AuditLogEntry{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Author notifications go to the log until a delivery collaborator is
	// wired in
	service.SetNotifier(notify.LogNotifier{})

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Account management
	accounts := api.Group("/accounts")
	accounts.POST("", handler.CreateAccount)
	accounts.GET("", handler.ListAccounts)
	accounts.PATCH("/:id", handler.UpdateAccount)
	accounts.POST("/:id/ban", handler.BanAccount)

	// Tenant management
	tenants := api.Group("/tenants")
	tenants.POST("", handler.CreateTenant)
	tenants.GET("/:id", handler.GetTenant)
	tenants.PATCH("/:id/active", handler.SetTenantActive)
	tenants.POST("/:id/admin", handler.ReassignAdmin)

	// Content
	content := api.Group("/content")
	content.POST("", handler.CreateContent)
	content.GET("/:id", handler.GetContent)
	content.PATCH("/:id", handler.UpdateContent)
	content.POST("/:id/unpublish", handler.UnpublishContent)

	// Moderation queue
	moderation := api.Group("/moderation")
	moderation.GET("", handler.ListModeration)
	moderation.POST("/:id/approve", handler.ApproveItem)
	moderation.POST("/:id/reject", handler.RejectItem)
	moderation.POST("/bulk", handler.BulkResolve)

	// Audit trail
	api.GET("/audit", handler.ListAuditLog)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
