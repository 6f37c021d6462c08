// Package arena evaluates submissions against the challenge catalog and
// records fully passing results on the leaderboard.
package arena

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ashureev/code-arena/internal/catalog"
	"github.com/ashureev/code-arena/internal/domain"
	"github.com/ashureev/code-arena/internal/sandbox"
	"github.com/ashureev/code-arena/internal/store"
)

// DefaultDisplayLimit caps leaderboard views when no limit is configured.
const DefaultDisplayLimit = 25

// Publisher receives newly recorded leaderboard entries.
type Publisher interface {
	Publish(entry domain.LeaderboardEntry)
}

// Options tunes a Service.
type Options struct {
	DisplayLimit int
	Publisher    Publisher
	Logger       *slog.Logger
}

// Service wires the catalog, sandbox and leaderboard together.
type Service struct {
	catalog      *catalog.Catalog
	executor     *sandbox.Executor
	leaderboard  store.LeaderboardStore
	publisher    Publisher
	logger       *slog.Logger
	displayLimit int
	validate     *validator.Validate
	stats        *counters
	now          func() time.Time
}

// NewService creates an evaluation service.
func NewService(cat *catalog.Catalog, exec *sandbox.Executor, lb store.LeaderboardStore, opts Options) *Service {
	if opts.DisplayLimit <= 0 {
		opts.DisplayLimit = DefaultDisplayLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		catalog:      cat,
		executor:     exec,
		leaderboard:  lb,
		publisher:    opts.Publisher,
		logger:       opts.Logger,
		displayLimit: opts.DisplayLimit,
		validate:     newValidator(),
		stats:        newCounters(),
		now:          time.Now,
	}
}

// Challenges lists the public challenge summaries.
func (s *Service) Challenges() []domain.ChallengeSummary {
	return s.catalog.Summaries()
}

// Challenge returns the public summary of one challenge.
func (s *Service) Challenge(id string) (domain.ChallengeSummary, error) {
	ch, ok := s.catalog.GetByID(id)
	if !ok {
		return domain.ChallengeSummary{}, &NotFoundError{ChallengeID: id}
	}
	return ch.Summary(), nil
}

// Leaderboard returns the ranked, display-capped leaderboard. An empty
// challengeID returns every challenge's entries.
func (s *Service) Leaderboard(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	if challengeID != "" {
		if _, ok := s.catalog.GetByID(challengeID); !ok {
			return nil, &NotFoundError{ChallengeID: challengeID}
		}
	}
	entries, err := s.leaderboard.Get(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return store.Top(entries, s.displayLimit), nil
}

// Stats returns a snapshot of the evaluation counters.
func (s *Service) Stats() Stats {
	return s.stats.snapshot()
}

// Evaluate validates sub, runs it against its challenge and records it on
// the leaderboard when every test passes. Submission faults are returned as
// *ValidationError, *NotFoundError, *sandbox.ExecutionError or
// *sandbox.EntryPointError.
func (s *Service) Evaluate(ctx context.Context, sub domain.Submission) (*domain.Evaluation, error) {
	s.stats.evaluations.Inc()

	sub.ChallengeID = strings.TrimSpace(sub.ChallengeID)
	sub.Handle = strings.TrimSpace(sub.Handle)
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = s.now()
	}

	if err := s.validateSubmission(sub); err != nil {
		s.stats.reject(RejectValidation)
		return nil, err
	}

	ch, ok := s.catalog.GetByID(sub.ChallengeID)
	if !ok {
		s.stats.reject(RejectNotFound)
		return nil, &NotFoundError{ChallengeID: sub.ChallengeID}
	}
	s.stats.attempt(ch.ID)

	summary, results, err := s.execute(ctx, ch, sub.Code)
	if err != nil {
		switch {
		case sandbox.IsEntryPoint(err):
			s.stats.reject(RejectEntryPoint)
		case sandbox.IsExecution(err):
			s.stats.reject(RejectExecution)
		}
		s.logger.Info("Submission rejected",
			"challenge_id", ch.ID,
			"handle", sub.Handle,
			"error", err)
		return nil, err
	}

	var board []domain.LeaderboardEntry
	if summary.Passed {
		s.stats.pass(ch.ID)
		board = s.record(ctx, ch, sub.Handle, summary)
	} else {
		board = s.readBoard(ctx, ch.ID)
	}

	s.logger.Info("Submission evaluated",
		"challenge_id", ch.ID,
		"handle", sub.Handle,
		"score", summary.Score,
		"tests_passed", summary.TestsPassed,
		"total_tests", summary.TotalTests,
		"runtime_ms", summary.RuntimeMs)

	return &domain.Evaluation{
		Summary:     summary,
		Results:     results,
		Leaderboard: store.Top(board, s.displayLimit),
	}, nil
}

// execute loads code in a fresh sandbox and runs every test case. The
// runtime clock covers loading and all test calls.
func (s *Service) execute(ctx context.Context, ch domain.Challenge, code string) (domain.EvaluationSummary, []domain.TestResult, error) {
	start := time.Now()

	inst, err := s.executor.Load(ctx, code, ch.EntryPoint)
	if err != nil {
		return domain.EvaluationSummary{}, nil, err
	}
	defer inst.Close()

	results, passed := RunTests(ctx, inst, ch.Tests)
	total := len(ch.Tests)

	return domain.EvaluationSummary{
		Passed:      passed == total,
		TestsPassed: passed,
		TotalTests:  total,
		Score:       Score(passed, total),
		RuntimeMs:   time.Since(start).Milliseconds(),
	}, results, nil
}

// record writes a leaderboard entry. A write failure is logged and the
// current board is returned instead.
func (s *Service) record(ctx context.Context, ch domain.Challenge, handle string, summary domain.EvaluationSummary) []domain.LeaderboardEntry {
	entry := domain.LeaderboardEntry{
		ChallengeID:    ch.ID,
		ChallengeTitle: ch.Title,
		Handle:         handle,
		Score:          summary.Score,
		TestsPassed:    summary.TestsPassed,
		TotalTests:     summary.TotalTests,
		RuntimeMs:      summary.RuntimeMs,
	}

	stored, all, err := s.leaderboard.Add(ctx, entry)
	if err != nil {
		s.logger.Error("Failed to record leaderboard entry",
			"challenge_id", ch.ID,
			"handle", handle,
			"error", err)
		return s.readBoard(ctx, ch.ID)
	}

	if s.publisher != nil {
		s.publisher.Publish(stored)
	}
	return store.Filter(all, ch.ID)
}

func (s *Service) readBoard(ctx context.Context, challengeID string) []domain.LeaderboardEntry {
	entries, err := s.leaderboard.Get(ctx, challengeID)
	if err != nil {
		s.logger.Error("Failed to read leaderboard",
			"challenge_id", challengeID,
			"error", err)
		return []domain.LeaderboardEntry{}
	}
	return entries
}
