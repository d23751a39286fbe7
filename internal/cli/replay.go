package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/foldr/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions      []*store.ReplayReport `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	TotalRuns     int                   `json:"total_runs"`
	Mismatches    int                   `json:"mismatches"`
}

// OK reports whether every replayed run matched its recording.
func (r ReplayResult) OK() bool {
	return r.Mismatches == 0
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute recorded runs and verify determinism",
		Long: `Re-execute every recorded run against the program it was recorded with.

Each run's canonical output, degraded flag and error code are compared
with the log. Any difference means execution behavior changed since the
run was recorded.

Exit codes:
  0 - Every run replayed identically
  1 - One or more runs differ
  2 - Command error (database not found, etc.)

Examples:
  foldr replay --db ./runs.db
  foldr replay --db ./runs.db --session nightly
  foldr replay --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	dbPath := firstNonEmpty(opts.Database, opts.config().Store.Path)
	if dbPath == "" {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "no database given (use --db or store.path)", nil)
	}
	// store.Open creates missing files.
	if _, err := os.Stat(dbPath); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
	}

	st, err := openStore(dbPath)
	if err != nil {
		return formatter.failLoad(err, nil)
	}
	defer st.Close()

	// Get sessions to process
	var sessions []string
	if opts.Session != "" {
		sessions = []string{opts.Session}
	} else {
		sessions, err = st.ListSessions(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to list sessions: %v", err), nil)
		}
	}

	eng := newEngine(opts.RootOptions, nil)
	result := ReplayResult{
		Sessions:      make([]*store.ReplayReport, 0, len(sessions)),
		TotalSessions: len(sessions),
	}
	for _, session := range sessions {
		formatter.VerboseLog("Replaying session %s", session)
		report, err := st.Replay(ctx, session, eng)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to replay session %s: %v", session, err), nil)
		}
		result.Sessions = append(result.Sessions, report)
		result.TotalRuns += len(report.Results)
		result.Mismatches += report.Mismatches
	}

	if formatter.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplay,
			Message: fmt.Sprintf("%d run(s) replayed differently", result.Mismatches),
		}
	}

	if err := formatter.Encode(response); err != nil {
		return err
	}

	if !result.OK() {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s), %d run(s)\n", result.TotalSessions, result.TotalRuns)
	fmt.Fprintln(w)

	for _, report := range result.Sessions {
		status := "✓"
		if !report.OK() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", status, report.Session)
		fmt.Fprintf(w, "  Runs: %d, mismatches: %d\n", len(report.Results), report.Mismatches)

		for _, res := range report.Results {
			switch {
			case !res.Match:
				fmt.Fprintf(w, "  ✗ seq %d (%s): %s\n", res.Seq, res.RunID, res.Diff)
			case formatter.Verbose:
				fmt.Fprintf(w, "  ✓ seq %d (%s)\n", res.Seq, res.RunID)
			}
		}
		fmt.Fprintln(w)
	}

	if result.OK() {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
