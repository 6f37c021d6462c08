package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			challenge_id TEXT NOT NULL,
			challenge_title TEXT NOT NULL,
			handle TEXT NOT NULL,
			score INTEGER NOT NULL,
			tests_passed INTEGER NOT NULL,
			total_tests INTEGER NOT NULL,
			runtime_ms BIGINT NOT NULL,
			submitted_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_challenge
			ON leaderboard_entries(challenge_id, score DESC, seq)`,
	},
}

// NewPostgres connects to Postgres through the pgx database/sql driver.
func NewPostgres(ctx context.Context, dsn string) (LeaderboardStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s, err := newSQLStore(db, postgresDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
