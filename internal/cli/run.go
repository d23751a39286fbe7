package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input       string
	Database    string
	Session     string
	MetricsFile string

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// RunResult is the JSON payload of a successful run.
type RunResult struct {
	Program  string          `json:"program"`
	Output   json.RawMessage `json:"output"`
	Degraded bool            `json:"degraded"`
	Steps    int             `json:"steps"`
	Session  string          `json:"session,omitempty"`
	RunID    string          `json:"run_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Execute a program once",
		Long: `Execute a program against one input document and print its output.

The input is a JSON document read from --input (or stdin with "-"); an
empty object is used when --input is omitted. With --db the run is
appended to the run log under --session (a new UUIDv7 by default).

Exit codes:
  0 - Program produced an output (possibly degraded)
  1 - Execution failed (PATH_NOT_FOUND, TYPE_MISMATCH, ...)
  2 - Command error (program not found, invalid input, etc.)

Examples:
  foldr run cart.cue --input order.json
  cat order.json | foldr run cart.yaml --input -
  foldr run cart.cue --input order.json --db ./runs.db --session nightly`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", `input JSON file ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id for the recorded run")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	cfg := opts.config()
	logger := opts.logger()

	program, err := LoadProgram(path)
	if err != nil {
		return formatter.failLoad(err, nil)
	}
	inputs, err := ReadInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return formatter.failLoad(err, nil)
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
	}

	metricsFile := firstNonEmpty(opts.MetricsFile, cfg.Metrics.File)
	m := metricsSink(metricsFile)
	defer flushMetrics(opts.RootOptions, m, metricsFile)

	eng := newEngine(opts.RootOptions, m)
	res, runErr := eng.Run(program, inputs)

	var run store.Run
	if st != nil {
		run, err = recordRun(ctx, opts, st, program, inputs, res, runErr)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		formatter.VerboseLog("Recorded run %s (session %s, seq %d)", run.ID, run.Session, run.Seq)
	}

	if runErr != nil {
		code := string(engine.CodeOf(runErr))
		if code == "" {
			code = ErrCodeGeneric
		}
		var details any
		if run.ID != "" {
			details = map[string]string{"run_id": run.ID, "session": run.Session}
		}
		return formatter.fail(ExitFailure, code, runErr.Error(), details)
	}

	output, err := ir.MarshalCanonical(res.Output)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding output: %v", err), nil)
	}
	if res.Degraded {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %s produced none of its output schema properties; printing the whole state\n", program.Definition.Name)
	}

	if formatter.Format == "json" {
		return formatter.Success(RunResult{
			Program:  program.Definition.Name,
			Output:   output,
			Degraded: res.Degraded,
			Steps:    len(res.Steps),
			Session:  run.Session,
			RunID:    run.ID,
		})
	}

	fmt.Fprintln(formatter.Writer, string(output))
	return nil
}

// recordRun appends one execution to the run log. The session comes from
// --session or a fresh generator; seq continues after the session's last run.
func recordRun(ctx context.Context, opts *RunOptions, st *store.Store, program *ir.Program, inputs ir.IRValue, res *engine.Result, runErr error) (store.Run, error) {
	session := opts.Session
	if session == "" {
		gen := opts.SessionGenerator
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		session = gen.Generate()
	}

	last, err := st.LastSeq(ctx, session)
	if err != nil {
		return store.Run{}, fmt.Errorf("reading session %s: %w", session, err)
	}
	run, err := st.Record(ctx, session, last+1, program, inputs, res, runErr)
	if err != nil {
		return store.Run{}, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}
