package handlers

import (
	"quickpoll/internal/middleware"
	"quickpoll/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes registers the user routes behind authRequired.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	userRoutes := router.Group("/users", authRequired)
	userRoutes.Get("/profile", h.HandleGetProfile)
}

// HandleGetProfile returns the caller's profile.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	profile, err := h.userService.GetProfile(middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    profile,
	})
}
