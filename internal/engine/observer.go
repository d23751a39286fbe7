package engine

import "strings"

// StepEvent describes one evaluated step. Err is nil on success.
type StepEvent struct {
	Program string
	Index   int
	ID      string
	Op      string
	Err     error
}

// RunEvent describes one finished execution. Steps is the number of steps
// that completed successfully.
type RunEvent struct {
	Program  string
	Steps    int
	Degraded bool
	Err      error
}

// Observer receives execution events. Implementations must be safe for
// concurrent use when the engine is shared across goroutines.
type Observer interface {
	ObserveStep(StepEvent)
	ObserveRun(RunEvent)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) ObserveStep(StepEvent) {}
func (NopObserver) ObserveRun(RunEvent)   {}

// Outcome labels an execution result for reporting: "ok", "degraded" or
// the lowercased error code.
func Outcome(degraded bool, err error) string {
	if err != nil {
		if code := CodeOf(err); code != "" {
			return strings.ToLower(string(code))
		}
		return "error"
	}
	if degraded {
		return "degraded"
	}
	return "ok"
}
