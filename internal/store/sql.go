package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/code-arena/internal/domain"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name   string
	schema []string
	// numbered placeholders ($1, $2, ...) instead of ?.
	numbered bool
}

// sqlStore implements LeaderboardStore on database/sql.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const selectEntries = `
	SELECT seq, id, challenge_id, challenge_title, handle,
	       score, tests_passed, total_tests, runtime_ms, submitted_at
	FROM leaderboard_entries`

const rankOrder = ` ORDER BY score DESC, seq ASC`

func newSQLStore(db *sql.DB, d dialect) (*sqlStore, error) {
	s := &sqlStore{db: db, dialect: d, now: time.Now}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *sqlStore) initSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *sqlStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Add inserts entry and reads back the ranked leaderboard in one transaction.
func (s *sqlStore) Add(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, []domain.LeaderboardEntry, error) {
	entry.ID = uuid.NewString()
	entry.SubmittedAt = s.now().UTC().Truncate(time.Millisecond)

	var (
		stored domain.LeaderboardEntry
		ranked []domain.LeaderboardEntry
	)
	err := retryWrite(ctx, "add leaderboard entry", func() error {
		var err error
		stored, ranked, err = s.addOnce(ctx, entry)
		return err
	})
	if err != nil {
		return domain.LeaderboardEntry{}, nil, err
	}
	return stored, ranked, nil
}

func (s *sqlStore) addOnce(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, []domain.LeaderboardEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("Failed to roll back leaderboard transaction", "error", rbErr)
		}
	}()

	query := s.rebind(`
		INSERT INTO leaderboard_entries (
			id, challenge_id, challenge_title, handle,
			score, tests_passed, total_tests, runtime_ms, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`)

	var seq int64
	err = tx.QueryRowContext(ctx, query,
		entry.ID, entry.ChallengeID, entry.ChallengeTitle, entry.Handle,
		entry.Score, entry.TestsPassed, entry.TotalTests, entry.RuntimeMs,
		entry.SubmittedAt.UnixMilli(),
	).Scan(&seq)
	if err != nil {
		return entry, nil, fmt.Errorf("insert leaderboard entry: %w", err)
	}
	entry.Seq = seq

	ranked, err := s.query(ctx, tx, "")
	if err != nil {
		return entry, nil, err
	}

	if err := tx.Commit(); err != nil {
		return entry, nil, fmt.Errorf("commit leaderboard entry: %w", err)
	}
	return entry, ranked, nil
}

// Get returns the ranked leaderboard, optionally filtered by challenge.
func (s *sqlStore) Get(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	return s.query(ctx, s.db, challengeID)
}

func (s *sqlStore) query(ctx context.Context, q querier, challengeID string) ([]domain.LeaderboardEntry, error) {
	query := selectEntries
	var args []any
	if challengeID != "" {
		query += ` WHERE challenge_id = ?`
		args = append(args, challengeID)
	}
	query += rankOrder

	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("Failed to close leaderboard rows", "error", closeErr)
		}
	}()

	entries := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var e domain.LeaderboardEntry
		var submittedAt int64
		if err := rows.Scan(
			&e.Seq, &e.ID, &e.ChallengeID, &e.ChallengeTitle, &e.Handle,
			&e.Score, &e.TestsPassed, &e.TotalTests, &e.RuntimeMs, &submittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.SubmittedAt = time.UnixMilli(submittedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}

	return entries, nil
}

// Ping verifies database connectivity.
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close %s database: %w", s.dialect.name, err)
	}
	return nil
}
