package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Parallel    int
	Database    string
	Session     string
	MetricsFile string

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return newTestCommand(&TestOptions{RootOptions: rootOpts})
}

func newTestCommand(opts *TestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <program> <fixtures>",
		Short: "Run a program against a fixture suite",
		Long: `Run a program against every fixture in a YAML or JSON suite.

A fixture passes when the program succeeds, its output is not degraded
and every expected output key is present. Fixtures run in parallel;
results are reported (and recorded with --db) in suite order.

Exit codes:
  0 - All fixtures passed
  1 - One or more fixtures failed
  2 - Command error (invalid paths, malformed suite, etc.)

Examples:
  foldr test cart.cue fixtures.yaml
  foldr test cart.cue fixtures.yaml --parallel 8
  foldr test cart.cue fixtures.json --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 0, "fixtures executed at once (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every fixture run in this SQLite database")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id for recorded runs")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

func runTests(opts *TestOptions, programPath, fixturesPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	cfg := opts.config()
	logger := opts.logger()

	program, err := LoadProgram(programPath)
	if err != nil {
		return formatter.failLoad(err, nil)
	}
	fixtures, err := harness.LoadFixtures(fixturesPath)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeFixtures, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d fixture(s) from %s", len(fixtures), fixturesPath)

	runOpts := harness.Options{
		Parallelism: cfg.Harness.Parallelism,
		Logger:      logger,
	}
	if opts.Parallel > 0 {
		runOpts.Parallelism = opts.Parallel
	}

	st, err := openStore(firstNonEmpty(opts.Database, cfg.Store.Path))
	if err != nil {
		return formatter.failLoad(err, nil)
	}
	if st != nil {
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		session := opts.Session
		if session == "" {
			gen := opts.SessionGenerator
			if gen == nil {
				gen = engine.UUIDv7Generator{}
			}
			session = gen.Generate()
		}
		recorder, err := harness.NewStoreRecorder(ctx, st, session)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		runOpts.Recorder = recorder
		formatter.VerboseLog("Recording runs under session %s", session)
	}

	metricsFile := firstNonEmpty(opts.MetricsFile, cfg.Metrics.File)
	m := metricsSink(metricsFile)
	defer flushMetrics(opts.RootOptions, m, metricsFile)

	report, err := harness.RunFixtures(ctx, newEngine(opts.RootOptions, m), program, fixtures, runOpts)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return outputTestJSON(formatter, report)
	}
	return outputTestText(formatter, report)
}

// outputTestJSON outputs the report as JSON.
func outputTestJSON(formatter *OutputFormatter, report *harness.Report) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}
	if !report.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d fixture(s) failed", report.Failed),
		}
	}

	if err := formatter.Encode(response); err != nil {
		return err
	}

	if !report.OK() {
		// Fixture failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed", report.Failed))
	}
	return nil
}

// outputTestText outputs the report as text.
func outputTestText(formatter *OutputFormatter, report *harness.Report) error {
	w := formatter.Writer

	for _, res := range report.Results {
		if res.Pass {
			fmt.Fprintf(w, "✓ %s\n", res.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", res.Name)
		fmt.Fprintf(w, "  %s\n", res.Reason())
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, len(report.Results))

	if !report.OK() {
		// Fixture failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed", report.Failed))
	}

	fmt.Fprintln(w, "✓ All fixtures passed")
	return nil
}
