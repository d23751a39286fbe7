package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
)

// ReplayResult compares one recorded run with its re-execution.
type ReplayResult struct {
	RunID string `json:"run_id"`
	Seq   int64  `json:"seq"`

	// Match is true when the re-execution produced byte-identical canonical
	// output, the same degraded flag and the same error code.
	Match bool `json:"match"`

	// Diff describes the first difference found. Empty when Match is true.
	Diff string `json:"diff,omitempty"`
}

// ReplayReport is the outcome of replaying one session.
type ReplayReport struct {
	Session    string         `json:"session"`
	Results    []ReplayResult `json:"results"`
	Mismatches int            `json:"mismatches"`
}

// OK reports whether every run replayed identically.
func (r *ReplayReport) OK() bool {
	return r.Mismatches == 0
}

// Replay re-executes every run of a session, in seq order, against the
// program it was recorded with and compares the outcome with the log.
//
// Execution is a pure function of program and inputs, so any mismatch means
// the engine's behavior changed since the run was recorded.
func (s *Store) Replay(ctx context.Context, session string, exec engine.Executor) (*ReplayReport, error) {
	runs, err := s.ReadRuns(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	report := &ReplayReport{Session: session, Results: make([]ReplayResult, 0, len(runs))}
	programs := make(map[string]*ir.Program)

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, ok := programs[run.ProgramHash]
		if !ok {
			p, err = s.ReadProgram(ctx, run.ProgramHash)
			if err != nil {
				return nil, fmt.Errorf("replay %s: program %s: %w", session, run.ProgramHash, err)
			}
			programs[run.ProgramHash] = p
		}

		res, runErr := exec.Run(p, run.Inputs)
		diff, err := compareRun(run, res, runErr)
		if err != nil {
			return nil, fmt.Errorf("replay %s: run %s: %w", session, run.ID, err)
		}

		result := ReplayResult{RunID: run.ID, Seq: run.Seq, Match: diff == "", Diff: diff}
		if !result.Match {
			report.Mismatches++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// compareRun returns "" when a re-execution matches the recorded run, or a
// description of the first difference.
func compareRun(run Run, res *engine.Result, runErr error) (string, error) {
	if runErr != nil {
		code := errorCode(runErr)
		if !run.Failed() {
			return fmt.Sprintf("recorded success, replay failed with %s", code), nil
		}
		if code != run.ErrorCode {
			return fmt.Sprintf("error code: recorded %s, replay %s", run.ErrorCode, code), nil
		}
		return "", nil
	}

	if run.Failed() {
		return fmt.Sprintf("recorded %s, replay succeeded", run.ErrorCode), nil
	}
	if res.Degraded != run.Degraded {
		return fmt.Sprintf("degraded: recorded %t, replay %t", run.Degraded, res.Degraded), nil
	}

	want, err := ir.MarshalCanonical(run.Output)
	if err != nil {
		return "", err
	}
	got, err := ir.MarshalCanonical(res.Output)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(want, got) {
		return fmt.Sprintf("output: recorded %s, replay %s", want, got), nil
	}
	return "", nil
}
