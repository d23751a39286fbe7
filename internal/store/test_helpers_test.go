package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProgram returns a program that totals /items prices.
func createTestProgram() *ir.Program {
	return &ir.Program{
		Definition: ir.Definition{
			Name:         "cart_total",
			InputSchema:  ir.IRNull{},
			OutputSchema: ir.IRObject{"properties": ir.IRObject{"total": ir.IRObject{}}},
		},
		Steps: []ir.Step{
			{ID: "prices", Operation: ir.PluckOp{Path: "/items", Key: "price"}, OutputPath: "/temp/prices"},
			{ID: "total", Operation: ir.SumOp{ListPath: "/temp/prices"}, OutputPath: "/total"},
		},
	}
}

func cartInputs(prices ...float64) ir.IRValue {
	items := make(ir.IRArray, 0, len(prices))
	for _, p := range prices {
		items = append(items, ir.IRObject{"price": ir.IRNumber(p)})
	}
	return ir.IRObject{"items": items}
}

func newTestEngine() *engine.Engine {
	return engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// recordRun executes p and records the outcome under session/seq.
func recordRun(t *testing.T, s *Store, session string, seq int64, p *ir.Program, inputs ir.IRValue) Run {
	t.Helper()
	res, runErr := newTestEngine().Run(p, inputs)
	run, err := s.Record(testContext(t), session, seq, p, inputs, res, runErr)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	return run
}
