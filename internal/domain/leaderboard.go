package domain

import (
	"time"
)

// LeaderboardEntry is an immutable record of a fully passing submission.
type LeaderboardEntry struct {
	ID             string    `json:"id"`
	ChallengeID    string    `json:"challengeId"`
	ChallengeTitle string    `json:"challengeTitle"`
	Handle         string    `json:"handle"`
	Score          int       `json:"score"`
	TestsPassed    int       `json:"testsPassed"`
	TotalTests     int       `json:"totalTests"`
	RuntimeMs      int64     `json:"runtimeMs"`
	SubmittedAt    time.Time `json:"submittedAt"`

	// Seq is the store-assigned insertion order, used to break score ties.
	Seq int64 `json:"-"`
}

// RanksBefore reports whether e is ranked ahead of other: higher score
// first, then earlier insertion.
func (e *LeaderboardEntry) RanksBefore(other *LeaderboardEntry) bool {
	if e.Score != other.Score {
		return e.Score > other.Score
	}
	return e.Seq < other.Seq
}
