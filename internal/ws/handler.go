package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/official-eswaran/DataWhisper/internal/api"
	"github.com/official-eswaran/DataWhisper/internal/auth"
	"github.com/official-eswaran/DataWhisper/internal/dataset"
	"github.com/official-eswaran/DataWhisper/internal/domain"
	"github.com/official-eswaran/DataWhisper/internal/nlsql"
	"github.com/official-eswaran/DataWhisper/internal/session"
	"github.com/official-eswaran/DataWhisper/internal/store"
)

// handshakeTimeout bounds how long we wait for the client's opening frame.
const handshakeTimeout = 30 * time.Second

// Handler streams query pipeline progress over a WebSocket. The client
// sends a single opening frame with its token, session id, and question;
// the server answers with the same stage frames as the NDJSON endpoint
// and then closes the connection.
type Handler struct {
	repo           store.Repository
	datasets       *dataset.Manager
	pipeline       *nlsql.Pipeline
	sessions       *session.Registry
	issuer         *auth.TokenIssuer
	allowedOrigins []string
	isDev          bool
}

// NewHandler creates a WebSocket query handler. allowedOrigins is the same
// list the CORS middleware honors.
func NewHandler(repo store.Repository, datasets *dataset.Manager, pipeline *nlsql.Pipeline, sessions *session.Registry, issuer *auth.TokenIssuer, allowedOrigins []string, isDev bool) *Handler {
	return &Handler{
		repo:           repo,
		datasets:       datasets,
		pipeline:       pipeline,
		sessions:       sessions,
		issuer:         issuer,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
	}
}

// queryFrame is the client's opening message. Authentication rides in the
// frame because browsers cannot set headers on WebSocket upgrades.
type queryFrame struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept websocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "query complete"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	req, claims, ok := h.handshake(ctx, ws)
	if !ok {
		return
	}

	slog.Info("websocket query accepted", "username", claims.Subject, "session_id", req.SessionID)
	h.runQuery(ctx, ws, req, claims.Subject)
}

// handshake reads and validates the opening frame. On failure it reports
// the reason to the client and closes with a policy violation status.
func (h *Handler) handshake(ctx context.Context, ws *websocket.Conn) (*queryFrame, *auth.Claims, bool) {
	readCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	_, data, err := ws.Read(readCtx)
	if err != nil {
		slog.Debug("websocket handshake read failed", "error", err)
		return nil, nil, false
	}

	var req queryFrame
	if err := json.Unmarshal(data, &req); err != nil {
		h.reject(ws, "invalid opening frame")
		return nil, nil, false
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Question = strings.TrimSpace(req.Question)

	claims, err := h.issuer.Verify(req.Token)
	if err != nil {
		h.reject(ws, "invalid or expired token")
		return nil, nil, false
	}
	if req.SessionID == "" || req.Question == "" {
		h.reject(ws, "session_id and question are required")
		return nil, nil, false
	}
	return &req, claims, true
}

func (h *Handler) runQuery(ctx context.Context, ws *websocket.Conn, req *queryFrame, username string) {
	release := h.sessions.Acquire(req.SessionID)
	defer release()

	eng, err := h.datasets.Require(req.SessionID)
	if err != nil {
		if errors.Is(err, dataset.ErrSessionNotFound) {
			h.reject(ws, "Session not found. Please upload data first.")
			return
		}
		h.reject(ws, "failed to open session dataset")
		return
	}
	defer func() {
		if closeErr := eng.Close(); closeErr != nil {
			slog.Warn("failed to close session dataset", "session_id", req.SessionID, "error", closeErr)
		}
	}()

	var outcome *domain.Outcome
	for ev := range h.pipeline.Run(ctx, req.SessionID, req.Question, eng) {
		if ev.Stage.Terminal() {
			outcome = ev.Result
		}
		if err := h.writeJSON(ws, api.FrameFor(ev)); err != nil {
			// Client went away; keep draining so the pipeline can finish.
			slog.Debug("websocket write failed", "error", err, "session_id", req.SessionID)
		}
	}
	h.recordAudit(context.WithoutCancel(ctx), req, username, outcome)
}

func (h *Handler) recordAudit(ctx context.Context, req *queryFrame, username string, outcome *domain.Outcome) {
	entry := &domain.AuditEntry{
		Username:  username,
		SessionID: req.SessionID,
		Question:  req.Question,
		Status:    "aborted",
	}
	if outcome != nil {
		entry.SQL = outcome.SQL
		entry.Summary = outcome.Summary
		if outcome.Kind == domain.OutcomeError {
			entry.SQL = outcome.OffendingText
			entry.Summary = outcome.Message
		}
		entry.Status = outcome.AuditStatus()
	}
	if err := h.repo.InsertAudit(ctx, entry); err != nil {
		slog.Error("failed to write audit entry", "session_id", req.SessionID, "error", err)
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	slog.Warn("websocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func (h *Handler) reject(ws *websocket.Conn, reason string) {
	if err := h.writeJSON(ws, map[string]string{"stage": string(domain.StageError), "message": reason}); err != nil {
		slog.Debug("failed to send websocket rejection", "error", err)
	}
}

func (h *Handler) writeJSON(ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
