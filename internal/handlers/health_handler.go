package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness of the API and its database.
type HealthHandler struct {
	ping func() error
}

// NewHealthHandler creates a new HealthHandler. ping checks the database.
func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// RegisterRoutes registers the unauthenticated status routes.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleRoot)
	router.Get("/health", h.HandleHealth)
}

// HandleRoot answers with a static banner.
func (h *HealthHandler) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "QuickPoll API is running!",
		"status":  "OK",
	})
}

// HandleHealth checks the database connection.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status, database, code := "healthy", "connected", fiber.StatusOK
	if err := h.ping(); err != nil {
		log.Printf("Health check failed: %v", err)
		status, database, code = "unhealthy", "unreachable", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"database": database,
		"time":     time.Now().Format(time.RFC3339),
	})
}
