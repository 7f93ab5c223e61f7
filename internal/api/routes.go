package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the API on the router. Everything except login
// and health sits behind the bearer middleware.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/api/auth/login", h.Login)
	r.Get("/health", h.Health)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Post("/api/upload", h.Upload)
		pr.Post("/api/query", h.Ask)
		pr.Post("/api/query/stream", h.AskStream)
		pr.Get("/api/audit/logs", h.AuditLogs)
		pr.Get("/api/export/report/{sessionID}", h.ExportReport)
	})
}
