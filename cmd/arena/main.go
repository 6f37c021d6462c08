// Command arena evaluates submissions against the builtin catalog from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/ashureev/code-arena/internal/arena"
	"github.com/ashureev/code-arena/internal/catalog"
	"github.com/ashureev/code-arena/internal/domain"
	"github.com/ashureev/code-arena/internal/sandbox"
	"github.com/ashureev/code-arena/internal/store"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "arena",
		Usage: "run code arena challenges locally",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "timeout", Value: 1500 * time.Millisecond, Usage: "per-run sandbox timeout"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelWarn
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list challenges",
				Action: listAction,
			},
			{
				Name:      "eval",
				Usage:     "evaluate a JavaScript file against a challenge",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "challenge", Aliases: []string{"c"}, Required: true, Usage: "challenge id"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "source file, - for stdin"},
					&cli.StringFlag{Name: "handle", Value: "local", Usage: "handle to record on the leaderboard"},
					&cli.BoolFlag{Name: "json", Usage: "print the evaluation as JSON"},
				},
				Action: evalAction,
			},
			{
				Name:   "verify",
				Usage:  "run every reference solution against its tests",
				Action: verifyAction,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, failLabel("error:"), err)
		os.Exit(1)
	}
}

func newService(cmd *cli.Command) (*arena.Service, error) {
	cat, err := catalog.Builtin()
	if err != nil {
		return nil, err
	}
	exec := sandbox.NewExecutor(sandbox.Config{Timeout: cmd.Duration("timeout")})
	return arena.NewService(cat, exec, store.NewMemory(), arena.Options{Logger: slog.Default()}), nil
}

func listAction(_ context.Context, cmd *cli.Command) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	for _, c := range svc.Challenges() {
		fmt.Fprintf(cmd.Root().Writer, "%-20s %-13s %s %s\n",
			c.ID, c.Difficulty, c.Title, dim(fmt.Sprintf("(%s, %d tests)", c.EntryPoint, c.TestCount)))
	}
	return nil
}

func evalAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	if path == "" {
		path = cmd.Args().First()
	}
	if path == "" {
		return cli.Exit("eval needs a source file", 2)
	}
	code, err := readSource(path)
	if err != nil {
		return err
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	result, err := svc.Evaluate(ctx, domain.Submission{
		ChallengeID: cmd.String("challenge"),
		Code:        code,
		Handle:      cmd.String("handle"),
	})
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResults(out, result.Results)
	fmt.Fprintf(out, "\n%d/%d passed, score %d, %dms\n",
		result.Summary.TestsPassed, result.Summary.TotalTests, result.Summary.Score, result.Summary.RuntimeMs)
	if !result.Summary.Passed {
		return cli.Exit("", 1)
	}
	return nil
}

func verifyAction(ctx context.Context, cmd *cli.Command) error {
	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	results, verr := svc.VerifyCatalog(ctx, 4)
	out := cmd.Root().Writer
	for _, r := range results {
		label := passLabel("PASS")
		if !r.OK() {
			label = failLabel("FAIL")
		}
		fmt.Fprintf(out, "%s %s %s\n", label, r.ChallengeID, dim(fmt.Sprintf("%d/%d", r.Summary.TestsPassed, r.Summary.TotalTests)))
		if r.Err != nil {
			fmt.Fprintf(out, "     %v\n", r.Err)
		}
	}
	return verr
}

func printResults(w io.Writer, results []domain.TestResult) {
	for _, r := range results {
		if r.Passed {
			fmt.Fprintf(w, "%s %s\n", passLabel("PASS"), r.Name)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", failLabel("FAIL"), r.Name)
		if r.Error != "" {
			fmt.Fprintf(w, "     error:    %s\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "     expected: %s\n     received: %s\n", render(r.Expected), render(r.Received))
	}
}

func render(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func readSource(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
