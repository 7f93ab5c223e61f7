package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/official-eswaran/DataWhisper/internal/auth"
	"github.com/official-eswaran/DataWhisper/internal/dataset"
	"github.com/official-eswaran/DataWhisper/internal/domain"
)

// QueryRequest is a natural-language question against a session dataset.
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

func decodeQueryRequest(w http.ResponseWriter, r *http.Request) (*QueryRequest, bool) {
	var req QueryRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Question = strings.TrimSpace(req.Question)
	if req.SessionID == "" || req.Question == "" {
		Error(w, http.StatusBadRequest, "session_id and question are required")
		return nil, false
	}
	return &req, true
}

// runTurn acquires the session's turn lock, opens its dataset, and starts
// the pipeline. The caller must drain the channel and then call cleanup.
func (h *Handler) runTurn(ctx context.Context, req *QueryRequest) (<-chan domain.StageEvent, func(), error) {
	release := h.sessions.Acquire(req.SessionID)

	eng, err := h.datasets.Require(req.SessionID)
	if err != nil {
		release()
		return nil, nil, err
	}

	events := h.pipeline.Run(ctx, req.SessionID, req.Question, eng)
	cleanup := func() {
		if closeErr := eng.Close(); closeErr != nil {
			slog.Warn("failed to close session dataset", "session_id", req.SessionID, "error", closeErr)
		}
		release()
	}
	return events, cleanup, nil
}

// recordAudit writes the turn to the audit trail. Runs on a context that
// survives client disconnects so aborted streams still leave a record.
func (h *Handler) recordAudit(ctx context.Context, r *http.Request, req *QueryRequest, outcome *domain.Outcome) {
	entry := &domain.AuditEntry{
		Username:  auth.UsernameFromContext(r.Context()),
		SessionID: req.SessionID,
		Question:  req.Question,
		Status:    "aborted",
	}
	if outcome != nil {
		entry.SQL = outcome.SQL
		if outcome.Kind == domain.OutcomeError {
			entry.SQL = outcome.OffendingText
		}
		entry.Summary = outcome.Summary
		if outcome.Kind == domain.OutcomeError {
			entry.Summary = outcome.Message
		}
		entry.Status = outcome.AuditStatus()
	}
	if err := h.repo.InsertAudit(ctx, entry); err != nil {
		slog.Error("failed to write audit entry", "session_id", req.SessionID, "error", err)
	}
}

// Ask handles POST /api/query: runs the full pipeline and returns only the
// terminal outcome.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQueryRequest(w, r)
	if !ok {
		return
	}

	events, cleanup, err := h.runTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, dataset.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "Session not found. Please upload data first.")
			return
		}
		Error(w, http.StatusInternalServerError, "failed to open session dataset")
		return
	}
	defer cleanup()

	var outcome *domain.Outcome
	for ev := range events {
		if ev.Stage.Terminal() {
			outcome = ev.Result
		}
	}
	h.recordAudit(context.WithoutCancel(r.Context()), r, req, outcome)

	if outcome == nil {
		// Consumer context died before the terminal event arrived.
		Error(w, http.StatusInternalServerError, "query aborted")
		return
	}
	JSON(w, http.StatusOK, outcomePayload(outcome))
}

// Frame is one frame of the progress protocol, shared by the NDJSON and
// WebSocket transports.
type Frame struct {
	Stage   string         `json:"stage"`
	Message string         `json:"message,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
}

// FrameFor renders a stage event as a wire frame. Only the done frame
// carries the result payload.
func FrameFor(ev domain.StageEvent) Frame {
	frame := Frame{Stage: string(ev.Stage), Message: ev.Message}
	if ev.Stage == domain.StageDone && ev.Result != nil {
		frame.Result = outcomePayload(ev.Result)
	}
	return frame
}

// AskStream handles POST /api/query/stream: emits each stage event as one
// JSON line, flushed immediately, ending with exactly one terminal frame.
func (h *Handler) AskStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQueryRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cleanup, err := h.runTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, dataset.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "Session not found. Please upload data first.")
			return
		}
		Error(w, http.StatusInternalServerError, "failed to open session dataset")
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	var outcome *domain.Outcome
	for ev := range events {
		if ev.Stage.Terminal() {
			outcome = ev.Result
		}
		if err := enc.Encode(FrameFor(ev)); err != nil {
			// Client went away; keep draining so the pipeline can finish
			// its terminal bookkeeping.
			continue
		}
		flusher.Flush()
	}
	h.recordAudit(context.WithoutCancel(r.Context()), r, req, outcome)
}
