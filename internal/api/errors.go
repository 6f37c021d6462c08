package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ashureev/code-arena/internal/arena"
	"github.com/ashureev/code-arena/internal/sandbox"
)

// Error codes returned in the "error" field.
const (
	CodeValidationFailed  = "validation_failed"
	CodeChallengeNotFound = "challenge_not_found"
	CodeExecutionFailed   = "execution_failed"
	CodeEntryPointMissing = "entry_point_missing"
	CodeInternal          = "internal_error"
)

// StatusFromError maps service errors to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, arena.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, arena.ErrChallengeNotFound):
		return http.StatusNotFound
	case sandbox.IsExecution(err), sandbox.IsEntryPoint(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err as a structured error payload.
func writeServiceError(w http.ResponseWriter, err error) {
	status := StatusFromError(err)

	var (
		verr    *arena.ValidationError
		nf      *arena.NotFoundError
		execErr *sandbox.ExecutionError
		epErr   *sandbox.EntryPointError
	)

	switch {
	case errors.As(err, &verr):
		Problem(w, status, CodeValidationFailed, "Submission is invalid.", map[string]any{
			"fields": verr.Fields,
		})
	case errors.As(err, &nf):
		Problem(w, status, CodeChallengeNotFound, fmt.Sprintf("Challenge %q was not found.", nf.ChallengeID), map[string]any{
			"challengeId": nf.ChallengeID,
		})
	case errors.As(err, &execErr):
		Problem(w, status, CodeExecutionFailed, "Submission failed to execute.", map[string]any{
			"details": execErr.Message,
			"timeout": execErr.Timeout,
		})
	case errors.As(err, &epErr):
		Problem(w, status, CodeEntryPointMissing, fmt.Sprintf("Define a function named %s.", epErr.EntryPoint), map[string]any{
			"entryPoint": epErr.EntryPoint,
		})
	default:
		slog.Error("Request failed", "error", err)
		Problem(w, http.StatusInternalServerError, CodeInternal, "Something went wrong.", nil)
	}
}
