package handlers

import (
	"strings"

	"quickpoll/internal/middleware"
	"quickpoll/internal/models"
	"quickpoll/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PollHandler handles HTTP requests for polls and votes.
type PollHandler struct {
	service  *services.PollService
	validate *validator.Validate
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(service *services.PollService) *PollHandler {
	return &PollHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the poll routes behind authRequired.
func (h *PollHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	pollRoutes := router.Group("/polls", authRequired)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	pollRoutes.Get("/", h.HandleListPolls)
	pollRoutes.Get("/:id", h.HandleGetPoll)
	pollRoutes.Post("/:id/vote", h.HandleVote)

	pollRoutes.Post("/", adminOnly, h.HandleCreatePoll)
	pollRoutes.Put("/:id", adminOnly, h.HandleUpdatePoll)
	pollRoutes.Patch("/:id/status", adminOnly, h.HandleUpdateStatus)
	pollRoutes.Delete("/:id", adminOnly, h.HandleDeletePoll)
}

// OptionRequest is one option of a new poll.
type OptionRequest struct {
	Text string `json:"text" validate:"required,min=1,max=255"`
}

// CreatePollRequest represents the request body for creating a poll.
type CreatePollRequest struct {
	Question    string          `json:"question" validate:"required,min=5,max=255"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	Options     []OptionRequest `json:"options" validate:"required,min=2,max=10,dive"`
}

func (r *CreatePollRequest) normalize() {
	r.Question = strings.TrimSpace(r.Question)
	for i := range r.Options {
		r.Options[i].Text = strings.TrimSpace(r.Options[i].Text)
	}
}

// UpdatePollRequest represents the request body for a partial poll update.
// A null description clears it; an absent one leaves it unchanged.
type UpdatePollRequest struct {
	Question    *string        `json:"question" validate:"omitempty,min=5,max=255"`
	Description NullableString `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool          `json:"isActive"`
}

func (r *UpdatePollRequest) normalize() {
	if r.Question != nil {
		q := strings.TrimSpace(*r.Question)
		r.Question = &q
	}
}

// UpdateStatusRequest represents the request body for opening or closing a poll.
type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// VoteRequest represents the request body for casting a vote.
type VoteRequest struct {
	OptionID uint `json:"optionId" validate:"required,gt=0"`
}

// HandleCreatePoll creates a poll owned by the calling admin.
func (h *PollHandler) HandleCreatePoll(c *fiber.Ctx) error {
	var req CreatePollRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	texts := make([]string, 0, len(req.Options))
	for _, o := range req.Options {
		texts = append(texts, o.Text)
	}
	poll, err := h.service.CreatePoll(middleware.UserID(c), services.CreatePollInput{
		Question:    req.Question,
		Description: req.Description,
		Options:     texts,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"poll":    poll,
	})
}

// HandleUpdatePoll applies a partial update to a poll.
func (h *PollHandler) HandleUpdatePoll(c *fiber.Ctx) error {
	pollID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdatePollRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	poll, err := h.service.UpdatePoll(pollID, models.PollChanges{
		Question:         req.Question,
		Description:      req.Description.Value,
		ClearDescription: req.Description.IsNull(),
		IsActive:         req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"poll":    poll,
	})
}

// HandleUpdateStatus opens or closes a poll for voting.
func (h *PollHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	pollID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	poll, err := h.service.UpdateStatus(pollID, *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"poll":    poll,
	})
}

// HandleDeletePoll deletes a poll with its options and votes.
func (h *PollHandler) HandleDeletePoll(c *fiber.Ctx) error {
	pollID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	message, err := h.service.DeletePoll(pollID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// HandleListPolls lists polls; non-admins only see active ones.
func (h *PollHandler) HandleListPolls(c *fiber.Ctx) error {
	polls, err := h.service.ListPollsFor(middleware.UserRole(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"polls":   polls,
	})
}

// HandleGetPoll returns one poll with its tallies.
func (h *PollHandler) HandleGetPoll(c *fiber.Ctx) error {
	pollID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	poll, err := h.service.GetPollByID(pollID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"poll":    poll,
	})
}

// HandleVote casts the caller's vote.
func (h *PollHandler) HandleVote(c *fiber.Ctx) error {
	pollID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req VoteRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	message, err := h.service.SubmitVote(middleware.UserID(c), pollID, req.OptionID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}
