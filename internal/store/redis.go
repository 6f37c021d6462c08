package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ashureev/code-arena/internal/domain"
)

// RedisOptions configures the Redis-backed leaderboard.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps the leaderboard as an append-only Redis list of JSON
// records. A counter key hands out insertion sequence numbers.
type RedisStore struct {
	rdb        *redis.Client
	seqKey     string
	entriesKey string
	now        func() time.Time
}

// redisRecord is the stored form of an entry. Seq is persisted here because
// the public entry hides it from JSON.
type redisRecord struct {
	domain.LeaderboardEntry
	Seq int64 `json:"seq"`
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisWithClient(rdb, opts.KeyPrefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "arena"
	}
	return &RedisStore{
		rdb:        rdb,
		seqKey:     prefix + ":leaderboard:seq",
		entriesKey: prefix + ":leaderboard:entries",
		now:        time.Now,
	}
}

// Add appends entry and returns it with the full ranked leaderboard.
func (s *RedisStore) Add(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, []domain.LeaderboardEntry, error) {
	seq, err := s.rdb.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return domain.LeaderboardEntry{}, nil, fmt.Errorf("allocate leaderboard seq: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.Seq = seq
	entry.SubmittedAt = s.now().UTC().Truncate(time.Millisecond)
	data, err := json.Marshal(redisRecord{LeaderboardEntry: entry, Seq: seq})
	if err != nil {
		return domain.LeaderboardEntry{}, nil, fmt.Errorf("encode leaderboard entry: %w", err)
	}

	if err := s.rdb.RPush(ctx, s.entriesKey, data).Err(); err != nil {
		return domain.LeaderboardEntry{}, nil, fmt.Errorf("append leaderboard entry: %w", err)
	}

	ranked, err := s.Get(ctx, "")
	if err != nil {
		return domain.LeaderboardEntry{}, nil, err
	}
	return entry, ranked, nil
}

// Get returns the ranked leaderboard, optionally filtered by challenge.
func (s *RedisStore) Get(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	raw, err := s.rdb.LRange(ctx, s.entriesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(raw))
	for _, item := range raw {
		var rec redisRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode leaderboard entry: %w", err)
		}
		if challengeID != "" && rec.ChallengeID != challengeID {
			continue
		}
		rec.LeaderboardEntry.Seq = rec.Seq
		entries = append(entries, rec.LeaderboardEntry)
	}

	Rank(entries)
	return entries, nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
