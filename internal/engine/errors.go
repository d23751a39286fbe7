package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/foldr/internal/state"
)

// ErrorCode categorizes execution failures.
type ErrorCode string

const (
	// ErrCodePathNotFound indicates a read resolved neither absolutely nor
	// under the inputs section.
	ErrCodePathNotFound ErrorCode = "PATH_NOT_FOUND"

	// ErrCodeInvalidWritePath indicates a step's output_path could not be
	// written or auto-created.
	ErrCodeInvalidWritePath ErrorCode = "INVALID_WRITE_PATH"

	// ErrCodeTypeMismatch indicates an operand that must be a number or an
	// array is not.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeDivisionByZero indicates a scalar Divide with a zero denominator.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeStepLimitExceeded indicates the program is longer than the
	// engine's configured step limit.
	ErrCodeStepLimitExceeded ErrorCode = "STEP_LIMIT_EXCEEDED"

	// ErrCodeUnknownOperation indicates an operation variant the evaluator
	// does not handle.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"
)

// ExecutionError is the single error type returned by Execute and Run.
//
// It identifies the failing step and carries the underlying cause, so both
// errors.As(err, *ExecutionError) and the state package's helpers work on
// the same value.
type ExecutionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// StepIndex is the zero-based position of the failing step, or -1 when
	// the failure is not tied to a step.
	StepIndex int

	// StepID is the failing step's diagnostic label.
	StepID string

	// Op is the failing step's operation name.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.StepIndex >= 0 {
		return fmt.Sprintf("%s: step %d (id=%s, op=%s): %s", e.Code, e.StepIndex, e.StepID, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode carried by err, or "" when err is nil or not
// an execution failure.
func CodeOf(err error) ErrorCode {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsPathNotFound returns true if the error is a path resolution failure.
// Uses errors.As to handle wrapped errors.
func IsPathNotFound(err error) bool {
	return CodeOf(err) == ErrCodePathNotFound || state.IsPathNotFound(err)
}

// IsInvalidWritePath returns true if the error is a write failure.
func IsInvalidWritePath(err error) bool {
	return CodeOf(err) == ErrCodeInvalidWritePath || state.IsInvalidWritePath(err)
}

// IsTypeMismatch returns true if the error is an operand type failure.
func IsTypeMismatch(err error) bool {
	return CodeOf(err) == ErrCodeTypeMismatch
}

// IsDivisionByZero returns true if the error is a scalar division by zero.
func IsDivisionByZero(err error) bool {
	return CodeOf(err) == ErrCodeDivisionByZero
}

// IsStepLimitExceeded returns true if the program exceeded the step limit.
func IsStepLimitExceeded(err error) bool {
	return CodeOf(err) == ErrCodeStepLimitExceeded
}

// typeMismatch builds an unannotated TYPE_MISMATCH error.
func typeMismatch(format string, args ...any) *ExecutionError {
	return &ExecutionError{Code: ErrCodeTypeMismatch, Message: fmt.Sprintf(format, args...), StepIndex: -1}
}

// classify converts any evaluation or write failure into an ExecutionError.
// State errors keep their concrete type as the wrapped cause.
func classify(err error) *ExecutionError {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee
	}
	switch {
	case state.IsPathNotFound(err):
		return &ExecutionError{Code: ErrCodePathNotFound, Message: err.Error(), StepIndex: -1, Err: err}
	case state.IsInvalidWritePath(err):
		return &ExecutionError{Code: ErrCodeInvalidWritePath, Message: err.Error(), StepIndex: -1, Err: err}
	default:
		return &ExecutionError{Code: ErrCodeUnknownOperation, Message: err.Error(), StepIndex: -1, Err: err}
	}
}
