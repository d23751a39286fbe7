package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/foldr/internal/ir"
)

const runColumns = `id, session, seq, program_hash, inputs, output, degraded, error_code, error_message, engine_version`

// ReadRuns returns all runs of a session.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no runs.
func (s *Store) ReadRuns(ctx context.Context, session string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	return scanRun(row)
}

// ReadProgram retrieves a program by its content hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadProgram(ctx context.Context, hash string) (*ir.Program, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM programs WHERE hash = ?
	`, hash).Scan(&body)
	if err != nil {
		return nil, err
	}
	return unmarshalProgram(body)
}

// ListSessions returns all distinct sessions in the log.
// Results ordered by session ID; UUIDv7 sessions therefore list oldest first.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT session FROM runs
		ORDER BY session COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	if sessions == nil {
		sessions = []string{}
	}

	return sessions, nil
}

// LastSeq returns the highest seq recorded for a session, or 0.
// Used to resume the logical clock when appending to an existing session.
func (s *Store) LastSeq(ctx context.Context, session string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM runs WHERE session = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run    Run
		inputs string
		output sql.NullString
	)
	err := sc.Scan(
		&run.ID,
		&run.Session,
		&run.Seq,
		&run.ProgramHash,
		&inputs,
		&output,
		&run.Degraded,
		&run.ErrorCode,
		&run.ErrorMessage,
		&run.EngineVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.Inputs, err = unmarshalValue(inputs); err != nil {
		return Run{}, fmt.Errorf("run %s inputs: %w", run.ID, err)
	}
	if run.Output, err = unmarshalOutput(output); err != nil {
		return Run{}, fmt.Errorf("run %s output: %w", run.ID, err)
	}
	return run, nil
}
