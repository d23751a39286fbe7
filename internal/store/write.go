package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
)

// Run is one recorded execution.
//
// Output is nil exactly when the run failed; ErrorCode and ErrorMessage
// then describe the failure.
type Run struct {
	ID            string
	Session       string
	Seq           int64
	ProgramHash   string
	Inputs        ir.IRValue
	Output        ir.IRValue
	Degraded      bool
	ErrorCode     string
	ErrorMessage  string
	EngineVersion string
}

// Failed reports whether the recorded execution returned an error.
func (r Run) Failed() bool {
	return r.ErrorCode != ""
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteProgram stores a program under its content hash and returns the hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency - storing the same
// program twice is a no-op.
func (s *Store) WriteProgram(ctx context.Context, p *ir.Program) (string, error) {
	hash, err := insertProgram(ctx, s.db, p)
	if err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	return hash, nil
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently
// ignored. A second run with the same (session, seq) but a different ID is
// a constraint violation and returns an error.
//
// Note: The program referenced by ProgramHash must exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if err := insertRun(ctx, s.db, run); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func insertProgram(ctx context.Context, ex execer, p *ir.Program) (string, error) {
	hash, err := ir.ProgramHash(p)
	if err != nil {
		return "", err
	}
	body, err := marshalProgram(p)
	if err != nil {
		return "", err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO programs (hash, name, body)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, p.Definition.Name, body)
	if err != nil {
		return "", err
	}
	return hash, nil
}

func insertRun(ctx context.Context, ex execer, run Run) error {
	inputs, err := marshalValue(run.Inputs)
	if err != nil {
		return err
	}
	output, err := marshalOutput(run.Output)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO runs
		(id, session, seq, program_hash, inputs, output, degraded, error_code, error_message, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Session,
		run.Seq,
		run.ProgramHash,
		inputs,
		output,
		run.Degraded,
		run.ErrorCode,
		run.ErrorMessage,
		run.EngineVersion,
	)
	return err
}

// NewRun builds the record for one execution of program. Exactly one of
// res and runErr is expected to be non-nil.
func NewRun(session string, seq int64, programHash string, inputs ir.IRValue, res *engine.Result, runErr error) (Run, error) {
	inputHash, err := ir.InputHash(inputs)
	if err != nil {
		return Run{}, err
	}
	id, err := ir.RunID(session, programHash, inputHash, seq)
	if err != nil {
		return Run{}, err
	}

	run := Run{
		ID:            id,
		Session:       session,
		Seq:           seq,
		ProgramHash:   programHash,
		Inputs:        inputs,
		EngineVersion: ir.EngineVersion,
	}

	switch {
	case runErr != nil:
		run.ErrorCode = errorCode(runErr)
		run.ErrorMessage = runErr.Error()
	case res != nil:
		run.Output = res.Output
		if run.Output == nil {
			run.Output = ir.IRNull{}
		}
		run.Degraded = res.Degraded
	default:
		return Run{}, errors.New("new run: neither result nor error")
	}
	return run, nil
}

// Record stores program (if new) and the outcome of one execution of it in
// a single transaction.
func (s *Store) Record(ctx context.Context, session string, seq int64, p *ir.Program, inputs ir.IRValue, res *engine.Result, runErr error) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	hash, err := insertProgram(ctx, tx, p)
	if err != nil {
		return Run{}, fmt.Errorf("record run: program: %w", err)
	}
	run, err := NewRun(session, seq, hash, inputs, res, runErr)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	if err := insertRun(ctx, tx, run); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// errorCode is the code stored for a failed run. Failures that are not
// execution errors are recorded as "ERROR".
func errorCode(err error) string {
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}
