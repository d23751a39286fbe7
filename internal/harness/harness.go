package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
)

// Defaults for Options fields left at zero.
const (
	DefaultParallelism = 4
	DefaultMaxAttempts = 3
)

// maxLoggedJSON bounds the input/output text written to fixture logs.
const maxLoggedJSON = 300

// ErrValidationFailed is returned by Validate when the suite still fails
// after the last attempt.
var ErrValidationFailed = errors.New("program failed validation")

// Options configures fixture runs.
type Options struct {
	// Parallelism bounds concurrent fixture executions. Default: 4.
	Parallelism int

	// MaxAttempts bounds Validate rounds. Default: 3.
	MaxAttempts int

	// Logger receives per-fixture pass/fail logs. Default: slog.Default().
	Logger *slog.Logger

	// Recorder, when set, records every fixture execution.
	Recorder Recorder
}

func (o Options) withDefaults() Options {
	if o.Parallelism <= 0 {
		o.Parallelism = DefaultParallelism
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Repairer proposes a new program after a failing round.
//
// CRITICAL: Repair must return a new *ir.Program and leave the one it was
// given untouched; Validate keeps the previous version for its report.
type Repairer interface {
	Repair(ctx context.Context, program *ir.Program, report *Report) (*ir.Program, error)
}

// RepairFunc adapts a function to the Repairer interface.
type RepairFunc func(ctx context.Context, program *ir.Program, report *Report) (*ir.Program, error)

// Repair calls f.
func (f RepairFunc) Repair(ctx context.Context, program *ir.Program, report *Report) (*ir.Program, error) {
	return f(ctx, program, report)
}

type outcome struct {
	res *engine.Result
	err error
}

// RunFixtures executes program against every fixture and judges the
// results.
//
// Executions run concurrently, bounded by Options.Parallelism. Judging,
// logging and recording happen afterwards in fixture order.
//
// The returned error is non-nil only when the run itself could not finish
// (context cancelled, recorder failure); fixture failures are reported in
// the Report.
func RunFixtures(ctx context.Context, exec engine.Executor, program *ir.Program, fixtures []Fixture, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	hash, err := ir.ProgramHash(program)
	if err != nil {
		return nil, fmt.Errorf("run fixtures: %w", err)
	}

	outcomes := make([]outcome, len(fixtures))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, fx := range fixtures {
		i, fx := i, fx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := exec.Run(program, fx.Input)
			outcomes[i] = outcome{res: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run fixtures: %w", err)
	}

	report := &Report{
		Program:     program.Definition.Name,
		ProgramHash: hash,
		Attempt:     1,
		Results:     make([]FixtureResult, 0, len(fixtures)),
	}
	logger := opts.Logger.With("program", program.Definition.Name)

	for i, fx := range fixtures {
		o := outcomes[i]
		result := judge(fx, o.res, o.err)

		if opts.Recorder != nil {
			runID, err := opts.Recorder.Record(ctx, program, fx, o.res, o.err)
			if err != nil {
				return nil, fmt.Errorf("record fixture %q: %w", fx.Name, err)
			}
			result.RunID = runID
		}

		if result.Pass {
			logger.Info("fixture passed",
				"fixture", fx.Name,
				"input", truncateJSON(fx.Input),
				"output", truncateJSON(result.Output))
		} else {
			logger.Error("fixture failed",
				"fixture", fx.Name,
				"input", truncateJSON(fx.Input),
				"reason", result.Reason())
		}
		report.add(result)
	}

	return report, nil
}

// Validate runs the suite until it passes or MaxAttempts rounds are spent.
// After each failing round except the last it asks repairer for a new
// program. A nil repairer means a single round.
//
// Returns the last program tested and its report. When the suite never
// passes the error wraps ErrValidationFailed.
func Validate(ctx context.Context, exec engine.Executor, program *ir.Program, fixtures []Fixture, repairer Repairer, opts Options) (*ir.Program, *Report, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With("program", program.Definition.Name)

	maxAttempts := opts.MaxAttempts
	if repairer == nil {
		maxAttempts = 1
	}

	current := program
	var report *Report
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		logger.Info("validation run", "attempt", attempt, "fixtures", len(fixtures))

		var err error
		report, err = RunFixtures(ctx, exec, current, fixtures, opts)
		if err != nil {
			return current, nil, err
		}
		report.Attempt = attempt

		if report.OK() {
			logger.Info("program verified", "attempt", attempt)
			return current, report, nil
		}
		if attempt == maxAttempts {
			break
		}

		logger.Warn("requesting repair", "attempt", attempt, "failed", report.Failed)
		repaired, err := repairer.Repair(ctx, current, report)
		if err != nil {
			return current, report, fmt.Errorf("repair after attempt %d: %w", attempt, err)
		}
		if repaired == nil {
			return current, report, fmt.Errorf("repair after attempt %d: repairer returned no program", attempt)
		}
		current = repaired
	}

	return current, report, fmt.Errorf("%w after %d attempt(s): %s", ErrValidationFailed, report.Attempt, report.Summary())
}

// truncateJSON renders v as compact JSON for logs, cut to maxLoggedJSON
// bytes on a rune boundary.
func truncateJSON(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	if len(data) <= maxLoggedJSON {
		return string(data)
	}
	cut := maxLoggedJSON
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (len: %d)", data[:cut], len(data))
}
