package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
)

// goldenDir is where snapshots live, relative to the test's package.
const goldenDir = "testdata/golden"

// Snapshot captures one execution for golden comparison.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	Name     string
	Output   ir.IRValue
	Degraded bool
	Steps    []engine.StepRecord
	Err      error
}

// toIR converts a Snapshot to an IRValue for canonical JSON serialization.
// A failed execution records the error code and message instead of output.
func (s *Snapshot) toIR() ir.IRValue {
	steps := make(ir.IRArray, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = ir.IRObject{
			"index":       ir.IRNumber(st.Index),
			"id":          ir.IRString(st.ID),
			"op":          ir.IRString(st.Op),
			"output_path": ir.IRString(st.OutputPath),
		}
	}

	obj := ir.IRObject{
		"name":  ir.IRString(s.Name),
		"steps": steps,
	}
	if s.Err != nil {
		obj["error"] = ir.IRObject{
			"code":    ir.IRString(engine.CodeOf(s.Err)),
			"message": ir.IRString(s.Err.Error()),
		}
		return obj
	}
	obj["output"] = ir.Clone(s.Output)
	obj["degraded"] = ir.IRBool(s.Degraded)
	return obj
}

// RunWithGolden executes program and compares the canonical snapshot of the
// execution against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error only if the snapshot cannot be serialized. A mismatch
// fails t via goldie.
func RunWithGolden(t *testing.T, name string, exec engine.Executor, program *ir.Program, inputs ir.IRValue) error {
	t.Helper()

	snap := Snapshot{Name: name}
	res, err := exec.Run(program, inputs)
	if err != nil {
		snap.Err = err
	} else {
		snap.Output = res.Output
		snap.Degraded = res.Degraded
		snap.Steps = res.Steps
	}
	return AssertGolden(t, name, &snap)
}

// AssertGolden compares an already-built snapshot against a golden file.
func AssertGolden(t *testing.T, name string, snap *Snapshot) error {
	t.Helper()

	data, err := ir.MarshalCanonical(snap.toIR())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
