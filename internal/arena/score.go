package arena

import (
	"context"
	"errors"
	"math"

	"github.com/ashureev/code-arena/internal/compare"
	"github.com/ashureev/code-arena/internal/domain"
	"github.com/ashureev/code-arena/internal/sandbox"
)

// Caller invokes a loaded entry point.
type Caller interface {
	Call(ctx context.Context, args ...any) (any, error)
}

// RunTests calls fn once per test case in declared order. A failing call is
// recorded against its own test only.
func RunTests(ctx context.Context, fn Caller, tests []domain.TestCase) ([]domain.TestResult, int) {
	results := make([]domain.TestResult, len(tests))
	passed := 0

	for i, tc := range tests {
		res := domain.TestResult{
			Name:     tc.Name,
			Expected: compare.Displayable(tc.Expected),
		}

		got, err := fn.Call(ctx, tc.Inputs...)
		if err != nil {
			res.Error = callErrorMessage(err)
		} else {
			res.Received = compare.Displayable(got)
			res.Passed = compare.DeepEqual(got, tc.Expected)
		}

		if res.Passed {
			passed++
		}
		results[i] = res
	}

	return results, passed
}

// Score returns round(passed / total * 100), or 0 for an empty suite.
func Score(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}

func callErrorMessage(err error) string {
	var execErr *sandbox.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Message
	}
	return err.Error()
}
