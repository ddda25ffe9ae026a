// Package api exposes the HTTP surface of the service.
package api

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts all endpoints under /api.
func RegisterRoutes(app *fiber.App, store DebateStore, chat ChatService) {
	h := NewHandler(store, chat)

	grp := app.Group("/api")
	grp.Get("/health", h.Health)
	grp.Get("/debates", h.ListDebates)
	grp.Post("/debates", h.CreateDebate)
	grp.Get("/debates/:id", h.GetDebate)
	grp.Post("/chat/rag", h.ChatRAG)
}
