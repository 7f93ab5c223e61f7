// DataWhisper - Natural Language to SQL Analytics Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/official-eswaran/DataWhisper/internal/api"
	"github.com/official-eswaran/DataWhisper/internal/auth"
	"github.com/official-eswaran/DataWhisper/internal/config"
	"github.com/official-eswaran/DataWhisper/internal/dataset"
	"github.com/official-eswaran/DataWhisper/internal/llm"
	"github.com/official-eswaran/DataWhisper/internal/middleware"
	"github.com/official-eswaran/DataWhisper/internal/nlsql"
	"github.com/official-eswaran/DataWhisper/internal/session"
	"github.com/official-eswaran/DataWhisper/internal/store"
	"github.com/official-eswaran/DataWhisper/internal/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "model", cfg.LLMModel, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.AuditDBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := auth.SeedDefaultUsers(context.Background(), repo, cfg.AdminPassword, cfg.ManagerPassword); err != nil {
		slog.Error("Failed to seed default users", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		slog.Error("Failed to create upload directory", "error", err)
		os.Exit(1)
	}

	datasets, err := dataset.NewManager(cfg.DatabaseDir)
	if err != nil {
		slog.Error("Failed to initialize dataset manager", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	gateway := llm.NewOllama(cfg.OllamaBaseURL, cfg.LLMModel, cfg.GatewayTimeout)
	sessions := session.NewRegistry()
	pipeline := nlsql.New(gateway, sessions, logger)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(repo, issuer, cfg.MaxLoginAttempts, cfg.LockoutDuration, logger)

	// Initialize handlers.
	handler := api.NewHandler(repo, datasets, pipeline, sessions, authSvc, cfg)
	wsHandler := ws.NewHandler(repo, datasets, pipeline, sessions, issuer, cfg.AllowedOrigins, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	handler.RegisterRoutes(r, auth.Middleware(issuer))

	// WebSocket endpoint authenticates via its opening frame.
	r.Get("/ws/query", wsHandler.ServeHTTP)

	// Create server.
	// Note: streaming responses require no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
