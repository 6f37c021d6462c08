package arena

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ashureev/code-arena/internal/domain"
)

// VerifyResult is the outcome of running one challenge's reference solution.
type VerifyResult struct {
	ChallengeID string
	Title       string
	Summary     domain.EvaluationSummary
	Results     []domain.TestResult
	Err         error
}

// OK reports whether the reference solution loaded and passed every test.
func (r VerifyResult) OK() bool {
	return r.Err == nil && r.Summary.Passed
}

// VerifyCatalog runs every challenge's reference solution against its own
// tests. Nothing is recorded on the leaderboard. The returned error joins
// every failing challenge.
func (s *Service) VerifyCatalog(ctx context.Context, concurrency int) ([]VerifyResult, error) {
	challenges := s.catalog.All()
	results := make([]VerifyResult, len(challenges))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, ch := range challenges {
		g.Go(func() error {
			res := VerifyResult{ChallengeID: ch.ID, Title: ch.Title}
			if ch.Solution == "" {
				res.Err = errors.New("no reference solution")
			} else {
				res.Summary, res.Results, res.Err = s.execute(gctx, ch, ch.Solution)
			}
			results[i] = res
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("verify catalog: %w", err)
	}

	var errs []error
	for _, r := range results {
		switch {
		case r.Err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", r.ChallengeID, r.Err))
		case !r.Summary.Passed:
			errs = append(errs, fmt.Errorf("%s: reference solution passed %d/%d tests",
				r.ChallengeID, r.Summary.TestsPassed, r.Summary.TotalTests))
		}
	}
	if len(errs) > 0 {
		return results, errors.Join(errs...)
	}

	s.logger.Info("Catalog verified", "challenges", len(results))
	return results, nil
}
