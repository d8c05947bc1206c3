package server

import (
	"time"

	"quickpoll/internal/database"
	"quickpoll/internal/handlers"
	"quickpoll/internal/middleware"
	"quickpoll/internal/repositories"
	"quickpoll/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configures the application built by New.
type Options struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
	// Publisher receives poll and vote events. Nil disables publishing.
	Publisher services.EventPublisher
	// AccessLog enables the per-request logger middleware.
	AccessLog bool
}

// App bundles the Fiber app with the services it was built from.
type App struct {
	*fiber.App
	AuthService *services.AuthService
	PollService *services.PollService
}

// New wires repositories, services and handlers into a Fiber app.
func New(opts Options) *App {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(opts.DB)
	pollRepo := repositories.NewGORMPollRepository(opts.DB)

	// --- Services ---
	authService := services.NewAuthService(userRepo, opts.JWTSecret, opts.TokenTTL)
	userService := services.NewUserService(userRepo)
	pollService := services.NewPollService(pollRepo, opts.Publisher)

	// --- Handlers ---
	healthHandler := handlers.NewHealthHandler(func() error { return database.Ping(opts.DB) })
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	pollHandler := handlers.NewPollHandler(pollService)

	app := fiber.New(fiber.Config{
		AppName:      "QuickPoll API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// --- Routes ---
	healthHandler.RegisterRoutes(app)
	authHandler.RegisterRoutes(app)

	authRequired := middleware.AuthRequired(authService)
	userHandler.RegisterRoutes(app, authRequired)
	pollHandler.RegisterRoutes(app, authRequired)

	return &App{
		App:         app,
		AuthService: authService,
		PollService: pollService,
	}
}
