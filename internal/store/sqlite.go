package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			challenge_id TEXT NOT NULL,
			challenge_title TEXT NOT NULL,
			handle TEXT NOT NULL,
			score INTEGER NOT NULL,
			tests_passed INTEGER NOT NULL,
			total_tests INTEGER NOT NULL,
			runtime_ms INTEGER NOT NULL,
			submitted_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_challenge
			ON leaderboard_entries(challenge_id, score DESC, seq)`,
	},
}

// NewSQLite opens (or creates) a SQLite-backed leaderboard at dbPath.
func NewSQLite(dbPath string) (LeaderboardStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps readers off the writer's lock; immediate transactions take
	// the write lock up front so concurrent adds queue on busy_timeout.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := newSQLStore(db, sqliteDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
