package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"debatehub/internal/apperr"
	"debatehub/internal/model"
)

// DebateStore is the handler-facing subset of the document store.
type DebateStore interface {
	Create(ctx context.Context, d *model.Debate) (*model.Debate, error)
	List(ctx context.Context) ([]model.DebateSummary, error)
	GetByID(ctx context.Context, id int64) (*model.Debate, error)
}

// ChatService answers questions about a client's debate history.
type ChatService interface {
	Answer(ctx context.Context, question, clientID string) (string, error)
}

// Handler holds the handler dependencies.
type Handler struct {
	store DebateStore
	chat  ChatService
}

// NewHandler constructs the handler set.
func NewHandler(store DebateStore, chat ChatService) *Handler {
	return &Handler{store: store, chat: chat}
}

// Health always reports healthy.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListDebates returns summaries of all stored debates, newest first.
func (h *Handler) ListDebates(c *fiber.Ctx) error {
	items, err := h.store.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// GetDebate returns one full debate record by id.
func (h *Handler) GetDebate(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return h.fail(c, fmt.Errorf("%w: invalid debate id %q", apperr.ErrValidation, c.Params("id")))
	}
	d, err := h.store.GetByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": d})
}

// CreateDebate stores a new debate record.
func (h *Handler) CreateDebate(c *fiber.Ctx) error {
	var d model.Debate
	if err := c.BodyParser(&d); err != nil {
		return h.fail(c, fmt.Errorf("%w: invalid JSON body", apperr.ErrValidation))
	}
	if err := validateDebate(&d); err != nil {
		return h.fail(c, err)
	}
	saved, err := h.store.Create(c.UserContext(), &d)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": saved})
}

// ChatRAG answers a question about the caller's debate history.
func (h *Handler) ChatRAG(c *fiber.Ctx) error {
	var req model.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fmt.Errorf("%w: invalid JSON body", apperr.ErrValidation))
	}
	if strings.TrimSpace(req.Question) == "" {
		return h.fail(c, fmt.Errorf("%w: question is required", apperr.ErrValidation))
	}
	reply, err := h.chat.Answer(c.UserContext(), req.Question, req.ClientID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "reply": reply})
}

func validateDebate(d *model.Debate) error {
	var missing []string
	if strings.TrimSpace(d.ClientID) == "" {
		missing = append(missing, "clientId")
	}
	if strings.TrimSpace(d.Topic) == "" {
		missing = append(missing, "topic")
	}
	if strings.TrimSpace(d.UserRole) == "" {
		missing = append(missing, "userRole")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", apperr.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// fail maps the error taxonomy onto HTTP statuses. Internal failures
// are logged in full and surfaced with a generic message only.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "debate not found"})
	default:
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "something went wrong, please try again"})
	}
}
