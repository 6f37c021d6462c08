// Package store provides leaderboard persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/ashureev/code-arena/internal/domain"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown leaderboard backend")

// LeaderboardStore is the single writer of leaderboard entries. Entries are
// append-only and never mutated once written.
type LeaderboardStore interface {
	// Add assigns a fresh ID, insertion timestamp and sequence to entry and
	// appends it. It returns the entry as stored and every stored entry in
	// ranked order.
	Add(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, []domain.LeaderboardEntry, error)

	// Get returns the ranked entries for challengeID, or all entries when
	// challengeID is empty.
	Get(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Rank sorts entries in place: score descending, then insertion order.
func Rank(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RanksBefore(&entries[j])
	})
}

// Filter returns the entries belonging to challengeID. An empty challengeID
// matches everything.
func Filter(entries []domain.LeaderboardEntry, challengeID string) []domain.LeaderboardEntry {
	if challengeID == "" {
		return entries
	}
	out := make([]domain.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if e.ChallengeID == challengeID {
			out = append(out, e)
		}
	}
	return out
}

// Top caps entries to the first n. A non-positive n leaves entries untouched.
func Top(entries []domain.LeaderboardEntry, n int) []domain.LeaderboardEntry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}
