// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/code-arena/internal/sandbox"
	"github.com/ashureev/code-arena/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	FrontendURL        string
	CORSAllowedOrigins []string
	LogFormat          string

	Leaderboard  LeaderboardConfig
	Sandbox      SandboxConfig
	SubmitLimit  RateLimitConfig
	VerifyOnBoot bool
}

// LeaderboardConfig selects and tunes the leaderboard backend.
type LeaderboardConfig struct {
	Backend        string
	DBPath         string
	PostgresDSN    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	DisplayLimit   int
}

// SandboxConfig bounds submission execution.
type SandboxConfig struct {
	Timeout          time.Duration
	AllowStringEval  bool
	MaxConcurrent    int
	MaxCallStackSize int
}

// RateLimitConfig bounds submissions per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "")),
		Leaderboard: LeaderboardConfig{
			Backend:        strings.ToLower(getEnv("LEADERBOARD_BACKEND", store.BackendSQLite)),
			DBPath:         getEnv("DB_PATH", "./data/arena.db"),
			PostgresDSN:    getEnv("POSTGRES_DSN", ""),
			RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  getEnv("REDIS_PASSWORD", ""),
			RedisDB:        getEnvInt("REDIS_DB", 0),
			RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "arena"),
			DisplayLimit:   getEnvInt("LEADERBOARD_DISPLAY_LIMIT", 25),
		},
		Sandbox: SandboxConfig{
			Timeout:          getEnvDuration("SANDBOX_TIMEOUT", 1500*time.Millisecond),
			AllowStringEval:  getEnvBool("SANDBOX_ALLOW_STRING_EVAL", false),
			MaxConcurrent:    getEnvInt("SANDBOX_MAX_CONCURRENT", 8),
			MaxCallStackSize: getEnvInt("SANDBOX_MAX_CALL_STACK", 2048),
		},
		SubmitLimit: RateLimitConfig{
			Requests: getEnvInt("SUBMIT_RATE_LIMIT", 10),
			Window:   getEnvDuration("SUBMIT_RATE_WINDOW", time.Minute),
		},
		VerifyOnBoot: getEnvBool("VERIFY_CATALOG_ON_START", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.Leaderboard.Backend {
	case store.BackendMemory, store.BackendRedis:
	case store.BackendSQLite:
		if c.Leaderboard.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case store.BackendPostgres:
		if c.Leaderboard.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("LEADERBOARD_BACKEND %q is not one of memory, sqlite, postgres, redis", c.Leaderboard.Backend)
	}
	if c.Leaderboard.DisplayLimit <= 0 {
		return fmt.Errorf("LEADERBOARD_DISPLAY_LIMIT must be > 0")
	}
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("SANDBOX_TIMEOUT must be > 0")
	}
	if c.Sandbox.MaxConcurrent <= 0 {
		return fmt.Errorf("SANDBOX_MAX_CONCURRENT must be > 0")
	}
	if c.Sandbox.MaxCallStackSize <= 0 {
		return fmt.Errorf("SANDBOX_MAX_CALL_STACK must be > 0")
	}
	if c.SubmitLimit.Requests <= 0 || c.SubmitLimit.Window <= 0 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT and SUBMIT_RATE_WINDOW must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// StoreOptions maps the leaderboard settings onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.Leaderboard.Backend,
		SQLitePath:  c.Leaderboard.DBPath,
		PostgresDSN: c.Leaderboard.PostgresDSN,
		Redis: store.RedisOptions{
			Addr:      c.Leaderboard.RedisAddr,
			Password:  c.Leaderboard.RedisPassword,
			DB:        c.Leaderboard.RedisDB,
			KeyPrefix: c.Leaderboard.RedisKeyPrefix,
		},
	}
}

// SandboxOptions maps the sandbox settings onto sandbox.Config.
func (c *Config) SandboxOptions() sandbox.Config {
	return sandbox.Config{
		Timeout:          c.Sandbox.Timeout,
		AllowStringEval:  c.Sandbox.AllowStringEval,
		MaxConcurrent:    c.Sandbox.MaxConcurrent,
		MaxCallStackSize: c.Sandbox.MaxCallStackSize,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings or a bare millisecond count.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
