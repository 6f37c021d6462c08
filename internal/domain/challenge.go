// Package domain contains core domain types for the code arena.
package domain

// Difficulty is the closed set of challenge difficulty levels.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "Basic"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// TestCase is one graded call of a submission's entry point.
// Inputs are passed positionally.
type TestCase struct {
	Name     string
	Inputs   []any
	Expected any
}

// Challenge represents a coding challenge. Tests and Solution never leave
// the server; use Summary for anything client-facing.
type Challenge struct {
	ID          string
	Title       string
	Difficulty  Difficulty
	Description string
	Prompt      string
	StarterCode string
	EntryPoint  string
	Tests       []TestCase
	Solution    string
}

// ChallengeSummary is the public view of a challenge.
type ChallengeSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`
	Prompt      string     `json:"prompt"`
	StarterCode string     `json:"starterCode"`
	EntryPoint  string     `json:"entryPoint"`
	TestCount   int        `json:"testCount"`
}

// Summary returns the client-facing view of the challenge.
func (c *Challenge) Summary() ChallengeSummary {
	return ChallengeSummary{
		ID:          c.ID,
		Title:       c.Title,
		Difficulty:  c.Difficulty,
		Description: c.Description,
		Prompt:      c.Prompt,
		StarterCode: c.StarterCode,
		EntryPoint:  c.EntryPoint,
		TestCount:   len(c.Tests),
	}
}
