package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/state"
)

// Executor runs a program against inputs. *Engine implements it; the run
// log and the fixture harness depend on this interface only.
type Executor interface {
	Run(program *ir.Program, inputs ir.IRValue) (*Result, error)
}

// Engine executes programs.
//
// An Engine holds only configuration and is immutable after New, so one
// instance may serve concurrent Execute/Run calls. Every call builds its own
// state document.
//
// INVARIANTS:
//   - Steps run strictly in program order, each seeing all earlier writes
//   - Evaluation never writes; only the step's output_path is written
//   - The first failure aborts the run with no rollback and no retry
type Engine struct {
	logger   *slog.Logger
	observer Observer
	maxSteps int // 0 means unlimited
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver attaches an Observer that receives step and run events.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithMaxSteps rejects programs longer than n steps before executing any of
// them. 0 disables the limit.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxSteps = n
		}
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxSteps returns the configured step limit (0 = unlimited).
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// StepRecord is the trace entry for one successfully executed step.
type StepRecord struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Op         string `json:"op"`
	OutputPath string `json:"output_path"`
}

// Result is the outcome of a successful run.
//
// Degraded is true when no output schema property matched and Output is the
// whole working document. Callers should surface a degraded result rather
// than trust it.
type Result struct {
	Output   ir.IRValue   `json:"output"`
	Degraded bool         `json:"degraded"`
	Steps    []StepRecord `json:"steps"`
}

// Execute runs program against inputs and returns the extracted output.
func (e *Engine) Execute(program *ir.Program, inputs ir.IRValue) (ir.IRValue, error) {
	res, err := e.Run(program, inputs)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// Run runs program against inputs and returns the output together with the
// degraded flag and the step trace. Any failure is an *ExecutionError.
func (e *Engine) Run(program *ir.Program, inputs ir.IRValue) (*Result, error) {
	if program == nil {
		return nil, &ExecutionError{Code: ErrCodeUnknownOperation, Message: "nil program", StepIndex: -1}
	}

	name := program.Definition.Name
	logger := e.logger.With("program", name)

	if e.maxSteps > 0 && len(program.Steps) > e.maxSteps {
		err := &ExecutionError{
			Code:      ErrCodeStepLimitExceeded,
			Message:   fmt.Sprintf("program has %d steps, limit is %d", len(program.Steps), e.maxSteps),
			StepIndex: -1,
		}
		logger.Error("program rejected", "error", err)
		e.observer.ObserveRun(RunEvent{Program: name, Err: err})
		return nil, err
	}

	logger.Info("executing program", "steps", len(program.Steps))

	st := state.New(inputs)
	records := make([]StepRecord, 0, len(program.Steps))

	for i, step := range program.Steps {
		op := opName(step.Operation)
		logger.Debug("step", "index", i, "id", step.ID, "op", op, "description", step.Description)

		err := e.runStep(st, step)
		e.observer.ObserveStep(StepEvent{Program: name, Index: i, ID: step.ID, Op: op, Err: err})

		if err != nil {
			execErr := classify(err)
			execErr.StepIndex = i
			execErr.StepID = step.ID
			execErr.Op = op

			logger.Error("step failed", "index", i, "id", step.ID, "op", op, "code", execErr.Code, "error", execErr.Message)
			e.observer.ObserveRun(RunEvent{Program: name, Steps: len(records), Err: execErr})
			return nil, execErr
		}

		records = append(records, StepRecord{Index: i, ID: step.ID, Op: op, OutputPath: step.OutputPath})
	}

	output, degraded := extractOutput(program.Definition, st)
	if degraded {
		logger.Warn("no output schema property matched; returning whole document",
			"output_keys", program.Definition.OutputKeys(),
			"root_keys", st.RootKeys())
	}

	logger.Info("program finished", "steps", len(records), "degraded", degraded)
	e.observer.ObserveRun(RunEvent{Program: name, Steps: len(records), Degraded: degraded})

	return &Result{Output: output, Degraded: degraded, Steps: records}, nil
}

func (e *Engine) runStep(st *state.State, step ir.Step) error {
	value, err := evaluate(step.Operation, st)
	if err != nil {
		return err
	}
	return st.Set(step.OutputPath, value)
}
