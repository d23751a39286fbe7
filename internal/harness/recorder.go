package harness

import (
	"context"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/store"
)

// Recorder persists fixture executions. Record returns the run ID.
type Recorder interface {
	Record(ctx context.Context, program *ir.Program, fx Fixture, res *engine.Result, runErr error) (string, error)
}

// StoreRecorder writes fixture executions into the run log under one
// session, numbering them with Seq.
type StoreRecorder struct {
	Store   *store.Store
	Session string
	Seq     engine.Sequencer
}

// NewStoreRecorder creates a recorder for session. Sequence numbers continue
// after the highest seq already logged for that session.
func NewStoreRecorder(ctx context.Context, st *store.Store, session string) (*StoreRecorder, error) {
	last, err := st.LastSeq(ctx, session)
	if err != nil {
		return nil, err
	}
	return &StoreRecorder{Store: st, Session: session, Seq: engine.NewClockAt(last)}, nil
}

// Record implements Recorder.
func (r *StoreRecorder) Record(ctx context.Context, program *ir.Program, fx Fixture, res *engine.Result, runErr error) (string, error) {
	run, err := r.Store.Record(ctx, r.Session, r.Seq.Next(), program, fx.Input, res, runErr)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}
