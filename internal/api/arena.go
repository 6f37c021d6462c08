package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"github.com/ashureev/code-arena/internal/arena"
	"github.com/ashureev/code-arena/internal/domain"
)

// maxSubmissionBytes bounds the request body; code itself is capped lower
// by validation.
const maxSubmissionBytes = 64 << 10

// ArenaHandler serves the challenge, submission and leaderboard endpoints.
type ArenaHandler struct {
	svc         *arena.Service
	submitLimit func(http.Handler) http.Handler
}

// NewArenaHandler creates a handler. submitLimit wraps the submission route
// only and may be nil.
func NewArenaHandler(svc *arena.Service, submitLimit func(http.Handler) http.Handler) *ArenaHandler {
	return &ArenaHandler{svc: svc, submitLimit: submitLimit}
}

// RegisterRoutes registers the arena routes. Responses are gzip-compressed
// when the client accepts it.
func (h *ArenaHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(compress)

		r.Get("/challenges", h.ListChallenges)
		r.Get("/challenges/{id}", h.GetChallenge)
		r.Get("/arena/leaderboard", h.Leaderboard)
		r.Get("/arena/stats", h.Stats)

		r.Group(func(r chi.Router) {
			if h.submitLimit != nil {
				r.Use(h.submitLimit)
			}
			r.Post("/arena/submissions", h.Submit)
		})
	})
}

// ListChallenges returns every challenge summary.
func (h *ArenaHandler) ListChallenges(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"challenges": h.svc.Challenges()})
}

// GetChallenge returns one challenge summary.
func (h *ArenaHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Challenge(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, summary)
}

// Submit evaluates a submission.
func (h *ArenaHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)

	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		Problem(w, http.StatusBadRequest, CodeValidationFailed, "Request body must be a JSON submission.", map[string]any{
			"fields": []arena.FieldError{},
		})
		return
	}

	result, err := h.svc.Evaluate(r.Context(), sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// Leaderboard returns the ranked leaderboard, optionally for one challenge.
func (h *ArenaHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID := r.URL.Query().Get("challengeId")
	entries, err := h.svc.Leaderboard(r.Context(), challengeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"challengeId": challengeID,
		"entries":     entries,
	})
}

// Stats returns the evaluation counters.
func (h *ArenaHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.svc.Stats())
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
