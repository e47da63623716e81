package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/draftsign/draftsign-api/docs" // Swagger docs
	"github.com/draftsign/draftsign-api/internal/config"
	"github.com/draftsign/draftsign-api/internal/database"
	"github.com/draftsign/draftsign-api/internal/handlers"
	"github.com/draftsign/draftsign-api/internal/jobs"
	"github.com/draftsign/draftsign-api/internal/middleware"
	"github.com/draftsign/draftsign-api/internal/repository"
	"github.com/draftsign/draftsign-api/internal/services"
	"github.com/draftsign/draftsign-api/internal/storage"
	"github.com/draftsign/draftsign-api/pkg/logger"
)

// @title DraftSign API
// @version 1.0
// @description REST API for document generation, signing and invoicing workflows

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize artifact storage
	var artifacts storage.Artifacts
	switch cfg.StorageDriver {
	case "s3":
		artifacts, err = storage.NewS3Artifacts(cfg)
	default:
		artifacts, err = storage.NewLocalArtifacts(cfg.StoragePath)
	}
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "driver", cfg.StorageDriver)
		os.Exit(1)
	}
	logger.Info("Initialized artifact storage", "driver", cfg.StorageDriver)

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, artifacts, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, artifacts, cfg)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// scheduleJobs registers the recurring maintenance sweeps
func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Expire contracts whose link lapsed while awaiting signature
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		n, err := svcs.Document.ExpireStale(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("[Job] Expired stale contracts", "count", n)
		}
		return nil
	})

	// Flag invoices past their due date
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		n, err := svcs.Document.MarkOverdueSweep(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("[Job] Marked invoices overdue", "count", n)
		}
		return nil
	})
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Counterpart-facing routes: token in the path is the authorization
	public := router.Group("/p")
	{
		public.GET("/:token", h.Public.Show)
		public.POST("/:token/sign", h.Public.Sign)
		public.POST("/:token/decline", h.Public.Decline)
		public.POST("/:token/payment_intent", h.Public.PaymentIntent)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Payment gateway callbacks (HMAC-signed, no JWT)
		v1.POST("/webhooks/gateway", h.Webhook.Gateway)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Templates
			protected.GET("/templates", h.Template.Index)
			protected.POST("/templates", h.Template.Create)
			protected.GET("/templates/:id", h.Template.Show)
			protected.PUT("/templates/:id", h.Template.Update)
			protected.PUT("/templates/:id/sections", h.Template.ReplaceSections)
			protected.DELETE("/templates/:id", h.Template.Delete)

			// Documents
			protected.GET("/documents", h.Document.Index)
			protected.POST("/documents", h.Document.Create)
			protected.GET("/documents/export/invoices", h.Document.ExportInvoices)
			protected.GET("/documents/:id", h.Document.Show)
			protected.PATCH("/documents/:id", h.Document.UpdateDraft)
			protected.PUT("/documents/:id/line_items", h.Document.UpdateLineItems)
			protected.GET("/documents/:id/preview", h.Document.Preview)
			protected.GET("/documents/:id/events", h.Document.Events)
			protected.GET("/documents/:id/artifact", h.Document.DownloadArtifact)
			protected.POST("/documents/:id/send", h.Document.Send)
			protected.POST("/documents/:id/resend_link", h.Document.ResendLink)
			protected.POST("/documents/:id/cancel", h.Document.Cancel)

			// Draft section editing
			protected.POST("/documents/:id/sections", h.Document.InsertSection)
			protected.DELETE("/documents/:id/sections/:section_id", h.Document.DeleteSection)
			protected.PUT("/documents/:id/sections/:section_id/move", h.Document.MoveSection)
			protected.PUT("/documents/:id/sections/:section_id/type", h.Document.ChangeSectionType)
			protected.PUT("/documents/:id/sections/:section_id/content", h.Document.UpdateSectionContent)
			protected.POST("/documents/:id/undo", h.Document.Undo)
			protected.POST("/documents/:id/redo", h.Document.Redo)

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/jobs/stats", h.Job.Stats)
			}
		}
	}

	return router
}
