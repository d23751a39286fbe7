package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/state"
)

// Validation error codes (E200-E299)
const (
	ErrProgramNameEmpty     = "E201" // definition.name is required
	ErrProgramNoSteps       = "E202" // program has no steps
	ErrMalformedOutputPath  = "E203" // output_path is not a usable pointer
	ErrDeepOutputPath       = "E204" // output_path deeper than two segments
	ErrDuplicateStepID      = "E205" // step id used more than once
	ErrMalformedOperandPath = "E206" // operand path is not a pointer
	ErrEmptyFormatKey       = "E207" // format variable has empty key
	ErrNoOutputProperties   = "E208" // output schema declares no properties
	ErrEmptyFieldName       = "E209" // required field name is empty
	ErrOutputKeyNotWritten  = "E210" // output key never written by a step
)

// Severity distinguishes findings that make a program unusable from ones
// that only predict surprising behavior.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError represents one lint finding.
type ValidationError struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Severity, e.Field, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate lints a program.
// Returns all findings (does not fail-fast), in step order.
func Validate(p *ir.Program) []ValidationError {
	var errs []ValidationError
	add := func(code string, sev Severity, field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Code:     code,
			Severity: sev,
		})
	}

	// E201
	if strings.TrimSpace(p.Definition.Name) == "" {
		add(ErrProgramNameEmpty, SeverityError, "definition.name", "name is required and must be non-empty")
	}

	// E202
	if len(p.Steps) == 0 {
		add(ErrProgramNoSteps, SeverityWarning, "steps", "program has no steps; output will be the whole input document")
	}

	seenIDs := make(map[string]int)
	for i, step := range p.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)

		// E205
		if first, ok := seenIDs[step.ID]; ok {
			add(ErrDuplicateStepID, SeverityWarning, prefix+".id", "duplicate step id %q (first used by steps[%d])", step.ID, first)
		} else {
			seenIDs[step.ID] = i
		}

		// E203, E204
		tokens, err := state.ParsePointer(step.OutputPath)
		switch {
		case err != nil || len(tokens) == 0:
			add(ErrMalformedOutputPath, SeverityError, prefix+".output_path",
				"output_path %q must start with '/' and name a location", step.OutputPath)
		case hasEmptyToken(tokens):
			add(ErrMalformedOutputPath, SeverityError, prefix+".output_path",
				"output_path %q has an empty segment", step.OutputPath)
		case len(tokens) > 2:
			add(ErrDeepOutputPath, SeverityWarning, prefix+".output_path",
				"output_path %q is %d segments deep; writes succeed only if the parent already exists", step.OutputPath, len(tokens))
		}

		// E206
		for _, path := range ir.OperandPaths(step.Operation) {
			if path != "" && path[0] != '/' {
				add(ErrMalformedOperandPath, SeverityError, prefix+".operation",
					"path %q must start with '/'", path)
			}
		}

		// E207, E209
		for _, f := range requiredFieldNames(step.Operation) {
			if f.value == "" {
				add(ErrEmptyFieldName, SeverityError, prefix+".operation."+f.param, "%s must be non-empty", f.param)
			}
		}
		if fs, ok := step.Operation.(ir.FormatStringOp); ok {
			for j, v := range fs.Variables {
				if v.Key == "" {
					add(ErrEmptyFormatKey, SeverityError, fmt.Sprintf("%s.operation.variables[%d].key", prefix, j),
						"format variable key must be non-empty")
				}
			}
		}
	}

	// E208, E210
	keys := p.Definition.OutputKeys()
	if len(keys) == 0 {
		add(ErrNoOutputProperties, SeverityWarning, "definition.output_schema",
			"output schema declares no properties; every run will return the whole document")
	}
	for _, key := range keys {
		if !writesOutputKey(p.Steps, key) {
			add(ErrOutputKeyNotWritten, SeverityWarning, "definition.output_schema.properties."+key,
				"no step writes %q; it will be missing from the output", "/"+key)
		}
	}

	return errs
}

type fieldName struct {
	param string
	value string
}

// requiredFieldNames lists the element-field parameters an operation needs
// to be non-empty. Optional fields count only when set.
func requiredFieldNames(op ir.Operation) []fieldName {
	optional := func(f *string) []fieldName {
		if f == nil {
			return nil
		}
		return []fieldName{{"field", *f}}
	}

	switch o := op.(type) {
	case ir.PluckOp:
		return []fieldName{{"key", o.Key}}
	case ir.CalculateOp:
		return []fieldName{{"output_field", o.OutputField}, {"a_field", o.AField}, {"b_field", o.BField}}
	case ir.SortOp:
		return []fieldName{{"field", o.Field}}
	case ir.SumOp:
		return optional(o.Field)
	case ir.MinOp:
		return optional(o.Field)
	case ir.MaxOp:
		return optional(o.Field)
	case ir.FilterNumericOp:
		return optional(o.Field)
	default:
		return nil
	}
}

func hasEmptyToken(tokens []string) bool {
	for _, t := range tokens {
		if t == "" {
			return true
		}
	}
	return false
}

// writesOutputKey reports whether some step creates the root entry that
// output extraction will find for key.
func writesOutputKey(steps []ir.Step, key string) bool {
	target := "/" + key
	escaped := "/" + state.EscapeToken(key)
	for _, s := range steps {
		p := s.OutputPath
		if p == target || p == escaped ||
			strings.HasPrefix(p, target+"/") || strings.HasPrefix(p, escaped+"/") {
			return true
		}
	}
	return false
}
