package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/code-arena/internal/live"
	"github.com/ashureev/code-arena/internal/store"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	leaderboard store.LeaderboardStore
	hub         *live.Hub
}

// NewHealthHandler creates a new health handler. hub may be nil.
func NewHealthHandler(leaderboard store.LeaderboardStore, hub *live.Hub) *HealthHandler {
	return &HealthHandler{leaderboard: leaderboard, hub: hub}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.leaderboard.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["leaderboard"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["leaderboard"] = "ok"
	}

	if h.hub != nil {
		status["subscribers"] = h.hub.Count()
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
