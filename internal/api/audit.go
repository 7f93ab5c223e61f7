package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// AuditLogs handles GET /api/audit/logs: recent query turns, newest first.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			Error(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := h.repo.ListAudit(r.Context(), limit)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read audit logs")
		return
	}

	type auditRow struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
		SQL       string `json:"sql"`
		Summary   string `json:"summary"`
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	rows := make([]auditRow, len(entries))
	for i, e := range entries {
		rows[i] = auditRow{
			ID:        e.ID,
			Username:  e.Username,
			SessionID: e.SessionID,
			Question:  e.Question,
			SQL:       e.SQL,
			Summary:   e.Summary,
			Status:    e.Status,
			Timestamp: e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	JSON(w, http.StatusOK, rows)
}

// ExportReport handles GET /api/export/report/{sessionID}: every turn of
// a session as a CSV attachment, oldest first.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "missing session id")
		return
	}

	entries, err := h.repo.ListAuditBySession(r.Context(), sessionID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to read session history")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report-"+sessionID+".csv"))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"#", "question", "sql", "summary", "status", "timestamp"})
	for i, e := range entries {
		_ = cw.Write([]string{
			strconv.Itoa(i + 1),
			e.Question,
			e.SQL,
			e.Summary,
			e.Status,
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}
