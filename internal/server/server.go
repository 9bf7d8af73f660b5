// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kfarm/internal/cache"
	"kfarm/internal/config"
	"kfarm/internal/database"
	"kfarm/internal/mailer"
	"kfarm/internal/middleware"
	"kfarm/internal/repository"
	"kfarm/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// promMetrics returns the process-wide fiberprometheus instance. Collectors
// register against the default registry, so this must only happen once even
// when several Server values are constructed (as tests do).
func promMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New("kfarm-api")
	})
	return promInstance
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *session.Store
	mail           mailer.Mailer
	userRepo       repository.UserRepository
	productRepo    repository.ProductRepository
	farmInputRepo  repository.FarmInputRepository
	forumRepo      repository.ForumRepository
	guideRepo      repository.GuideRepository
	analyticsRepo  repository.AnalyticsRepository
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()
	if redisClient == nil {
		return nil, fmt.Errorf("redis connection failed: sessions require redis")
	}

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		smtpMailer, err := mailer.NewSMTPMailer(cfg)
		if err != nil {
			return nil, fmt.Errorf("mailer setup failed: %w", err)
		}
		mail = smtpMailer
	}

	return NewServerWithDeps(cfg, db, redisClient, mail)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mail mailer.Mailer) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: promMetrics(),
		sessions:       session.NewStore(redisClient, session.DefaultTTL),
		mail:           mail,
		userRepo:       repository.NewUserRepository(db),
		productRepo:    repository.NewProductRepository(db),
		farmInputRepo:  repository.NewFarmInputRepository(db),
		forumRepo:      repository.NewForumRepository(db),
		guideRepo:      repository.NewGuideRepository(db),
		analyticsRepo:  repository.NewAnalyticsRepository(db),
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	// Attach session identity (and reject expired sessions) on every request.
	app.Use(s.SessionMiddleware())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded images are served directly from disk.
	app.Static("/uploads", s.config.UploadDir)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Post("/forgot-password", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "reset_password"), s.ResetPassword)

	// Contact form
	api.Post("/contact", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "contact"), s.Contact)

	// Public browse routes
	products := api.Group("/products")
	products.Get("/", s.GetProducts)
	products.Get("/:id", s.GetProduct)

	farmInputs := api.Group("/farminputs")
	farmInputs.Get("/", s.GetFarmInputs)
	farmInputs.Get("/:id", s.GetFarmInput)

	forum := api.Group("/forum/posts")
	forum.Get("/", s.GetForumPosts)
	forum.Get("/:id", s.GetForumPost)

	guides := api.Group("/guides")
	guides.Get("/", s.GetGuides)
	guides.Get("/crops", s.GetGuideCrops)
	guides.Get("/:id", s.GetGuide)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Account routes
	protected.Get("/auth/me", s.CurrentUser)
	protected.Put("/auth/settings", s.UpdateSettings)
	protected.Delete("/users/:id", s.DeleteUser)

	// Owned resource routes
	authedProducts := protected.Group("/products")
	authedProducts.Post("/", s.CreateProduct)
	authedProducts.Put("/:id", s.UpdateProduct)
	authedProducts.Delete("/:id", s.DeleteProduct)

	authedInputs := protected.Group("/farminputs")
	authedInputs.Post("/", s.CreateFarmInput)
	authedInputs.Put("/:id", s.UpdateFarmInput)
	authedInputs.Delete("/:id", s.DeleteFarmInput)

	authedForum := protected.Group("/forum/posts")
	authedForum.Post("/", s.CreateForumPost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	authedForum.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateForumComment)
	authedForum.Post("/:id/like", s.ToggleForumLike)
	authedForum.Delete("/:id/comments/:commentId", s.DeleteForumComment)
	authedForum.Put("/:id", s.UpdateForumPost)
	authedForum.Delete("/:id", s.DeleteForumPost)

	authedGuides := protected.Group("/guides")
	authedGuides.Post("/", s.CreateGuide)
	authedGuides.Put("/:id", s.UpdateGuide)
	authedGuides.Delete("/:id", s.DeleteGuide)

	// Admin registration and upgrade are gated by the admin key carried in
	// the request body, not by an existing admin session.
	api.Post("/admin/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "admin_register"), s.RegisterAdmin)
	protected.Post("/admin/upgrade", s.UpgradeToAdmin)

	// Admin routes. The write mirrors reuse the resource handlers, whose
	// ownership policy already admits admins; only user editing needs a
	// handler of its own.
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/users", s.AdminGetUsers)
	admin.Put("/users/:id", s.AdminUpdateUser)
	admin.Delete("/users/:id", s.DeleteUser)
	admin.Get("/products", s.AdminGetProducts)
	admin.Put("/products/:id", s.UpdateProduct)
	admin.Delete("/products/:id", s.DeleteProduct)
	admin.Get("/farminputs", s.AdminGetFarmInputs)
	admin.Put("/farminputs/:id", s.UpdateFarmInput)
	admin.Delete("/farminputs/:id", s.DeleteFarmInput)
	admin.Get("/forum/posts", s.AdminGetForumPosts)
	admin.Put("/forum/posts/:id", s.UpdateForumPost)
	admin.Delete("/forum/posts/:id", s.DeleteForumPost)
	admin.Delete("/comments/:id", s.AdminDeleteComment)
	admin.Get("/analytics", s.AdminAnalytics)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis holds the session records, so it is required for readiness.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds (once) and returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "kfarm-api",
		BodyLimit: 10 * 1024 * 1024, // uploads are capped at 10 MB
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
