package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a leaderboard backend.
type Options struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
	Redis       RedisOptions
}

// Open constructs the configured backend.
func Open(ctx context.Context, opts Options) (LeaderboardStore, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		return NewSQLite(opts.SQLitePath)
	case BackendPostgres:
		return NewPostgres(ctx, opts.PostgresDSN)
	case BackendRedis:
		s, err := NewRedis(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
