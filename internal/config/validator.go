package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string // config key, e.g. "harness.parallelism"
	Value   any
	Message string
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log formats.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Value:   c.Log.Format,
			Message: "must be one of " + strings.Join(ValidLogFormats(), ", "),
		})
	}
	if c.Engine.MaxSteps < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.max_steps",
			Value:   c.Engine.MaxSteps,
			Message: "must be >= 0 (0 = unlimited)",
		})
	}
	if c.Harness.Parallelism < 1 {
		errs = append(errs, ValidationError{
			Field:   "harness.parallelism",
			Value:   c.Harness.Parallelism,
			Message: "must be >= 1",
		})
	}
	if c.Harness.MaxAttempts < 1 {
		errs = append(errs, ValidationError{
			Field:   "harness.max_attempts",
			Value:   c.Harness.MaxAttempts,
			Message: "must be >= 1",
		})
	}
	return errs
}
