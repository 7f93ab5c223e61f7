package api

import "net/http"

// Health handles GET /health: liveness plus the configured model so
// operators can see which LLM is serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "running"
	code := http.StatusOK
	if err := h.repo.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, map[string]string{
		"status": status,
		"model":  h.cfg.LLMModel,
	})
}
