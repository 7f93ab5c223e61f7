// Package api provides HTTP handlers for the DataWhisper API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/official-eswaran/DataWhisper/internal/auth"
	"github.com/official-eswaran/DataWhisper/internal/config"
	"github.com/official-eswaran/DataWhisper/internal/dataset"
	"github.com/official-eswaran/DataWhisper/internal/domain"
	"github.com/official-eswaran/DataWhisper/internal/nlsql"
	"github.com/official-eswaran/DataWhisper/internal/session"
	"github.com/official-eswaran/DataWhisper/internal/store"
)

// maxRequestBodySize bounds JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Handler provides common handler dependencies and utilities.
type Handler struct {
	repo     store.Repository
	datasets *dataset.Manager
	pipeline *nlsql.Pipeline
	sessions *session.Registry
	auth     *auth.Service
	cfg      *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, datasets *dataset.Manager, pipeline *nlsql.Pipeline, sessions *session.Registry, authSvc *auth.Service, cfg *config.Config) *Handler {
	return &Handler{
		repo:     repo,
		datasets: datasets,
		pipeline: pipeline,
		sessions: sessions,
		auth:     authSvc,
		cfg:      cfg,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// outcomePayload renders a terminal outcome as the wire shape clients
// consume: the type discriminator is the result shape for query results,
// "chat" or "error" otherwise.
func outcomePayload(o *domain.Outcome) map[string]any {
	switch o.Kind {
	case domain.OutcomeChat:
		return map[string]any{
			"type":      "chat",
			"data":      []any{},
			"columns":   []any{},
			"sql":       nil,
			"row_count": 0,
			"summary":   o.Summary,
		}
	case domain.OutcomeError:
		return map[string]any{
			"type":    "error",
			"message": o.Message,
			"sql":     o.OffendingText,
		}
	default:
		return map[string]any{
			"type":      o.Type(),
			"data":      o.Data,
			"columns":   o.Columns,
			"sql":       o.SQL,
			"row_count": o.RowCount,
			"summary":   o.Summary,
		}
	}
}
