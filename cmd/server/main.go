// Code Arena - challenge evaluation server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/ashureev/code-arena/internal/api"
	"github.com/ashureev/code-arena/internal/arena"
	"github.com/ashureev/code-arena/internal/catalog"
	"github.com/ashureev/code-arena/internal/config"
	"github.com/ashureev/code-arena/internal/live"
	"github.com/ashureev/code-arena/internal/middleware"
	"github.com/ashureev/code-arena/internal/sandbox"
	"github.com/ashureev/code-arena/internal/store"
	"github.com/ashureev/code-arena/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "leaderboard", cfg.Leaderboard.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	cat, err := catalog.Builtin()
	if err != nil {
		slog.Error("Failed to load challenge catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded", "challenges", cat.Len())

	leaderboard, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		slog.Error("Failed to initialize leaderboard store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := leaderboard.Close(); closeErr != nil {
			slog.Error("Failed to close leaderboard store", "error", closeErr)
		}
	}()

	if err := leaderboard.Ping(ctx); err != nil {
		slog.Error("Leaderboard health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Leaderboard connected")

	hub := live.NewHub()
	executor := sandbox.NewExecutor(cfg.SandboxOptions())
	svc := arena.NewService(cat, executor, leaderboard, arena.Options{
		DisplayLimit: cfg.Leaderboard.DisplayLimit,
		Publisher:    hub,
		Logger:       logger,
	})

	if cfg.VerifyOnBoot {
		if _, err := svc.VerifyCatalog(ctx, cfg.Sandbox.MaxConcurrent); err != nil {
			slog.Error("Catalog verification failed", "error", err)
			os.Exit(1)
		}
	}

	// Initialize handlers.
	submitLimiter := middleware.NewRateLimiter(ctx, cfg.SubmitLimit.Requests, cfg.SubmitLimit.Window)
	arenaHandler := api.NewArenaHandler(svc, middleware.RateLimit(submitLimiter))
	healthHandler := api.NewHealthHandler(leaderboard, hub)
	wsHandler := live.NewWebSocketHandler(hub, svc.Leaderboard, originPatterns(cfg.CORSAllowedOrigins))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)
	r.Route("/api", arenaHandler.RegisterRoutes)

	// WebSocket endpoint.
	r.Get("/ws/leaderboard", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Websocket streams need no WriteTimeout; each frame has its own.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

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

func newLogger(cfg *config.Config) *slog.Logger {
	switch {
	case cfg.LogFormat == "json", cfg.LogFormat == "" && !cfg.IsDevelopment():
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
}

// originPatterns turns CORS origins into the host patterns the websocket
// handshake matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
