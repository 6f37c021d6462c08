package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/code-arena/internal/domain"
)

// MemoryStore keeps the leaderboard in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
	seq     int64
	now     func() time.Time
}

// NewMemory creates an empty in-memory leaderboard.
func NewMemory() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Add appends entry and returns it with the full ranked leaderboard.
func (s *MemoryStore) Add(_ context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, []domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entry.ID = uuid.NewString()
	entry.Seq = s.seq
	entry.SubmittedAt = s.now().UTC()
	s.entries = append(s.entries, entry)

	return entry, s.snapshotLocked(""), nil
}

// Get returns the ranked leaderboard, optionally filtered by challenge.
func (s *MemoryStore) Get(_ context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(challengeID), nil
}

func (s *MemoryStore) snapshotLocked(challengeID string) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if challengeID == "" || e.ChallengeID == challengeID {
			out = append(out, e)
		}
	}
	Rank(out)
	return out
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
