package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/foldr/internal/ir"
)

// FixtureResult is the judged outcome of one fixture.
type FixtureResult struct {
	Name   string     `json:"name"`
	Pass   bool       `json:"pass"`
	Input  ir.IRValue `json:"input"`
	Output ir.IRValue `json:"output,omitempty"`

	// Degraded mirrors engine.Result.Degraded.
	Degraded bool `json:"degraded,omitempty"`

	// ErrorCode and Error describe an execution failure.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// MissingKeys lists expected output keys absent from Output.
	MissingKeys []string `json:"missing_keys,omitempty"`

	// RunID is set when the execution was recorded in the run log.
	RunID string `json:"run_id,omitempty"`
}

// Reason summarizes why a fixture failed. Empty for a passing fixture.
func (r FixtureResult) Reason() string {
	switch {
	case r.Pass:
		return ""
	case r.Error != "":
		return r.Error
	case r.Degraded:
		return "output degraded: no output schema property was produced"
	case len(r.MissingKeys) > 0:
		return fmt.Sprintf("missing expected output keys: %s", strings.Join(r.MissingKeys, ", "))
	default:
		return "failed"
	}
}

// Report is the outcome of running a fixture suite once.
type Report struct {
	// Program is the program name.
	Program string `json:"program"`

	// ProgramHash identifies the exact program version tested.
	ProgramHash string `json:"program_hash"`

	// Attempt is the validation round (1-based) that produced this report.
	Attempt int `json:"attempt"`

	// Results holds one entry per fixture, in fixture order.
	Results []FixtureResult `json:"results"`

	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// OK reports whether every fixture passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Failures returns the failing results in fixture order.
func (r *Report) Failures() []FixtureResult {
	var out []FixtureResult
	for _, res := range r.Results {
		if !res.Pass {
			out = append(out, res)
		}
	}
	return out
}

// Summary renders the failures as plain text, one per line. This is the
// error report a Repairer receives.
func (r *Report) Summary() string {
	if r.OK() {
		return fmt.Sprintf("all %d fixtures passed", r.Passed)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d fixtures failed", r.Failed, len(r.Results))
	for _, f := range r.Failures() {
		fmt.Fprintf(&b, "\nfixture %q failed: %s", f.Name, f.Reason())
	}
	return b.String()
}

func (r *Report) add(res FixtureResult) {
	r.Results = append(r.Results, res)
	if res.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}
