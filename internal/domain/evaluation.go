package domain

import (
	"time"
)

// Submission is an ephemeral evaluation request.
type Submission struct {
	ChallengeID string    `json:"challengeId" validate:"required,max=128"`
	Code        string    `json:"code" validate:"required,min=20,max=8000"`
	Handle      string    `json:"handle" validate:"required,min=2,max=40"`
	ReceivedAt  time.Time `json:"-"`
}

// TestResult is the outcome of a single test case.
type TestResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Received any    `json:"received"`
	Expected any    `json:"expected"`
	Error    string `json:"error,omitempty"`
}

// EvaluationSummary aggregates a submission's test results.
type EvaluationSummary struct {
	Passed      bool  `json:"passed"`
	TestsPassed int   `json:"testsPassed"`
	TotalTests  int   `json:"totalTests"`
	Score       int   `json:"score"`
	RuntimeMs   int64 `json:"runtimeMs"`
}

// Evaluation is the full response to a scored submission.
type Evaluation struct {
	Summary     EvaluationSummary  `json:"summary"`
	Results     []TestResult       `json:"results"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
