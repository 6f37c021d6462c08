package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/code-arena/internal/domain"
)

type backendFactory func(t *testing.T) LeaderboardStore

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) LeaderboardStore {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) LeaderboardStore {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "arena.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"redis": func(t *testing.T) LeaderboardStore {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			s := NewRedisWithClient(rdb, "test")
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"postgres": func(t *testing.T) LeaderboardStore {
			dsn := os.Getenv("ARENA_TEST_POSTGRES_DSN")
			if dsn == "" {
				t.Skip("ARENA_TEST_POSTGRES_DSN not set")
			}
			s, err := NewPostgres(context.Background(), dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func entry(challengeID, handle string, score int) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		ChallengeID:    challengeID,
		ChallengeTitle: "Title " + challengeID,
		Handle:         handle,
		Score:          score,
		TestsPassed:    3,
		TotalTests:     3,
		RuntimeMs:      12,
	}
}

func scores(entries []domain.LeaderboardEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Score
	}
	return out
}

func handles(entries []domain.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Handle
	}
	return out
}

func TestLeaderboardStore_Ranking(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			run := name + "-" + uuid.NewString()[:8]
			ctx := context.Background()
			challengeID := "rank-" + run

			for i, score := range []int{80, 95, 60} {
				_, _, err := s.Add(ctx, entry(challengeID, "h"+string(rune('a'+i)), score))
				require.NoError(t, err)
			}

			got, err := s.Get(ctx, challengeID)
			require.NoError(t, err)
			require.Equal(t, []int{95, 80, 60}, scores(got))
		})
	}
}

func TestLeaderboardStore_TieBreakByInsertion(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			run := name + "-" + uuid.NewString()[:8]
			ctx := context.Background()
			challengeID := "tie-" + run

			for _, h := range []string{"first", "second", "third"} {
				_, _, err := s.Add(ctx, entry(challengeID, h, 100))
				require.NoError(t, err)
			}

			got, err := s.Get(ctx, challengeID)
			require.NoError(t, err)
			require.Equal(t, []string{"first", "second", "third"}, handles(got))
		})
	}
}

func TestLeaderboardStore_AddAssignsIdentity(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			run := name + "-" + uuid.NewString()[:8]
			ctx := context.Background()

			stored, ranked, err := s.Add(ctx, entry("ident-"+run, "tester", 100))
			require.NoError(t, err)
			require.NotEmpty(t, ranked)
			require.NotEmpty(t, stored.ID)
			require.Positive(t, stored.Seq)

			var found *domain.LeaderboardEntry
			for i := range ranked {
				if ranked[i].Handle == "tester" && ranked[i].ChallengeID == "ident-"+run {
					found = &ranked[i]
				}
			}
			require.NotNil(t, found)
			require.Equal(t, stored.ID, found.ID)
			require.Equal(t, stored.Seq, found.Seq)
			require.False(t, found.SubmittedAt.IsZero())
			require.Equal(t, 100, found.Score)
			require.Equal(t, "Title ident-"+run, found.ChallengeTitle)
		})
	}
}

func TestLeaderboardStore_FilterByChallenge(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			run := name + "-" + uuid.NewString()[:8]
			ctx := context.Background()
			a, b := "filter-a-"+run, "filter-b-"+run

			_, _, err := s.Add(ctx, entry(a, "one", 100))
			require.NoError(t, err)
			_, _, err = s.Add(ctx, entry(b, "two", 100))
			require.NoError(t, err)
			_, _, err = s.Add(ctx, entry(a, "three", 90))
			require.NoError(t, err)

			got, err := s.Get(ctx, a)
			require.NoError(t, err)
			require.Equal(t, []string{"one", "three"}, handles(got))

			all, err := s.Get(ctx, "")
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(all), 3)
		})
	}
}

func TestLeaderboardStore_GetReturnsCopy(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			run := name + "-" + uuid.NewString()[:8]
			ctx := context.Background()
			challengeID := "copy-" + run

			_, _, err := s.Add(ctx, entry(challengeID, "orig", 100))
			require.NoError(t, err)

			got, err := s.Get(ctx, challengeID)
			require.NoError(t, err)
			got[0].Handle = "mutated"

			again, err := s.Get(ctx, challengeID)
			require.NoError(t, err)
			require.Equal(t, "orig", again[0].Handle)
		})
	}
}

func TestLeaderboardStore_ConcurrentAdds(t *testing.T) {
	const writers = 16

	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			run := name + "-" + uuid.NewString()[:8]
			ctx := context.Background()
			challengeID := "concurrent-" + run

			var wg sync.WaitGroup
			errs := make(chan error, writers)
			returned := make(chan string, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					stored, _, err := s.Add(ctx, entry(challengeID, "w", 100))
					if err != nil {
						errs <- err
						return
					}
					returned <- stored.ID
				}()
			}
			wg.Wait()
			close(errs)
			close(returned)
			for err := range errs {
				require.NoError(t, err)
			}

			got, err := s.Get(ctx, challengeID)
			require.NoError(t, err)
			require.Len(t, got, writers)

			ids := make(map[string]struct{}, writers)
			for _, e := range got {
				ids[e.ID] = struct{}{}
			}
			require.Len(t, ids, writers)

			// Each writer gets back its own entry, even under the same handle.
			seen := make(map[string]struct{}, writers)
			for id := range returned {
				require.Contains(t, ids, id)
				seen[id] = struct{}{}
			}
			require.Len(t, seen, writers)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "arena.db")})
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "cassandra"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestTop(t *testing.T) {
	entries := []domain.LeaderboardEntry{entry("x", "a", 3), entry("x", "b", 2), entry("x", "c", 1)}

	require.Len(t, Top(entries, 2), 2)
	require.Len(t, Top(entries, 10), 3)
	require.Len(t, Top(entries, 0), 3)
}

func TestSQLStore_Rebind(t *testing.T) {
	s := &sqlStore{dialect: postgresDialect}
	require.Equal(t, "a = $1 AND b = $2", s.rebind("a = ? AND b = ?"))

	s = &sqlStore{dialect: sqliteDialect}
	require.Equal(t, "a = ?", s.rebind("a = ?"))
}
