package arena

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a malformed submission. Errors wrapping it carry a
	// *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrChallengeNotFound marks a submission for an unknown challenge.
	ErrChallengeNotFound = errors.New("challenge not found")
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationError lists every rule a submission broke.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Param != "" {
			parts[i] = fmt.Sprintf("%s %s=%s", f.Field, f.Rule, f.Param)
		} else {
			parts[i] = fmt.Sprintf("%s %s", f.Field, f.Rule)
		}
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError names the challenge id that could not be resolved.
type NotFoundError struct {
	ChallengeID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrChallengeNotFound, e.ChallengeID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrChallengeNotFound
}
