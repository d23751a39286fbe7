package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/roach88/foldr/internal/compiler"
	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/metrics"
	"github.com/roach88/foldr/internal/store"
)

// Error code constants - unified across all CLI commands.
// Execution failures use the engine's codes (PATH_NOT_FOUND, ...) and
// lint findings use the compiler's E2xx codes.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeLoadFailed   = "E004" // Program could not be read or decoded
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeInputInvalid = "E008" // Input document is not valid JSON
	ErrCodeStore        = "E009" // Run log could not be opened or written
	ErrCodeFixtures     = "E010" // Fixture suite could not be loaded

	ErrCodeTestFailed = "E_TEST_FAILED"
	ErrCodeLintFailed = "E_LINT_FAILED"
	ErrCodeReplay     = "E_REPLAY_MISMATCH"
)

// LoadError represents an error that occurred while loading a program or
// its inputs.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadProgram reads a program in any supported format (.cue, .json, .yaml).
func LoadProgram(path string) (*ir.Program, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("program not found: %s", path), Err: err}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing program: %v", err), Err: err}
	}

	p, err := compiler.LoadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Err: err}
	}
	return p, nil
}

// ReadInput reads the input document. "-" reads stdin and an empty path
// yields an empty object.
func ReadInput(path string, stdin io.Reader) (ir.IRValue, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return ir.IRObject{}, nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading input: %v", err), Err: err}
	}

	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInputInvalid, Message: fmt.Sprintf("input is not valid JSON: %v", err), Err: err}
	}
	return v, nil
}

// describeLoadError splits err into a CLI error code and message.
func describeLoadError(err error) (code, message string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// failLoad reports a LoadError as a command error (exit code 2).
func (f *OutputFormatter) failLoad(err error, details any) error {
	code, message := describeLoadError(err)
	return f.fail(ExitCommandError, code, message, details)
}

// newEngine builds an engine from the loaded configuration. m may be nil.
func newEngine(opts *RootOptions, m *metrics.Metrics) *engine.Engine {
	engineOpts := []engine.EngineOption{
		engine.WithLogger(opts.logger()),
		engine.WithMaxSteps(opts.config().Engine.MaxSteps),
	}
	if m != nil {
		engineOpts = append(engineOpts, engine.WithObserver(m))
	}
	return engine.New(engineOpts...)
}

// openStore opens the run log at path, or returns nil when path is empty.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to open database %s: %v", path, err), Err: err}
	}
	return st, nil
}

// metricsSink creates a Metrics when a textfile destination is configured.
func metricsSink(path string) *metrics.Metrics {
	if path == "" {
		return nil
	}
	return metrics.New()
}

// flushMetrics writes m to path. A write failure is logged, not returned;
// metrics never change a command's outcome.
func flushMetrics(opts *RootOptions, m *metrics.Metrics, path string) {
	if m == nil {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		opts.logger().Error("failed to write metrics", "path", path, "error", err)
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
