package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/foldr/internal/ir"
)

// CompileProgram parses a CUE value into a Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must hold "definition" and "steps", e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`program: { definition: {...}, steps: [...] }`)
//	p, err := CompileProgram(v.LookupPath(cue.ParsePath("program")))
//
// Schemas and operations are exported to JSON and decoded with the ir
// codec, so CUE, JSON and YAML programs share one set of decoding rules.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	defVal := v.LookupPath(cue.ParsePath("definition"))
	if !defVal.Exists() {
		return nil, &CompileError{Field: "definition", Message: "definition is required", Pos: v.Pos()}
	}
	def, err := compileDefinition(defVal)
	if err != nil {
		return nil, err
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{Field: "steps", Message: "steps is required", Pos: v.Pos()}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "steps", Message: "steps must be a list", Pos: stepsVal.Pos()}
	}

	var steps []ir.Step
	for i := 0; iter.Next(); i++ {
		step, err := compileStep(iter.Value(), fmt.Sprintf("steps[%d]", i))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if steps == nil {
		steps = []ir.Step{}
	}

	return &ir.Program{Definition: def, Steps: steps}, nil
}

func compileDefinition(v cue.Value) (ir.Definition, error) {
	name, err := requiredString(v, "definition", "name")
	if err != nil {
		return ir.Definition{}, err
	}
	desc, err := optionalString(v, "definition", "description")
	if err != nil {
		return ir.Definition{}, err
	}

	def := ir.Definition{Name: name, Description: desc, InputSchema: ir.IRNull{}, OutputSchema: ir.IRNull{}}
	if s := v.LookupPath(cue.ParsePath("input_schema")); s.Exists() {
		if def.InputSchema, err = exportValue(s, "definition.input_schema"); err != nil {
			return ir.Definition{}, err
		}
	}
	if s := v.LookupPath(cue.ParsePath("output_schema")); s.Exists() {
		if def.OutputSchema, err = exportValue(s, "definition.output_schema"); err != nil {
			return ir.Definition{}, err
		}
	}
	return def, nil
}

func compileStep(v cue.Value, prefix string) (ir.Step, error) {
	id, err := requiredString(v, prefix, "id")
	if err != nil {
		return ir.Step{}, err
	}
	desc, err := optionalString(v, prefix, "description")
	if err != nil {
		return ir.Step{}, err
	}
	outputPath, err := requiredString(v, prefix, "output_path")
	if err != nil {
		return ir.Step{}, err
	}

	opVal := v.LookupPath(cue.ParsePath("operation"))
	if !opVal.Exists() {
		return ir.Step{}, &CompileError{Field: prefix + ".operation", Message: "operation is required", Pos: v.Pos()}
	}
	raw, err := exportValue(opVal, prefix+".operation")
	if err != nil {
		return ir.Step{}, err
	}
	op, err := ir.OperationFromValue(raw, prefix+".operation")
	if err != nil {
		return ir.Step{}, fromDecodeError(err, opVal.Pos())
	}

	return ir.Step{ID: id, Description: desc, Operation: op, OutputPath: outputPath}, nil
}

// exportValue converts a concrete CUE value into an IRValue via its JSON form.
func exportValue(v cue.Value, field string) (ir.IRValue, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	out, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return out, nil
}

func requiredString(v cue.Value, prefix, key string) (string, error) {
	field := prefix + "." + key
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: key + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: key + " must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, prefix, key string) (string, error) {
	if !v.LookupPath(cue.ParsePath(key)).Exists() {
		return "", nil
	}
	return requiredString(v, prefix, key)
}

// fromDecodeError attaches a source position to an ir decode failure.
func fromDecodeError(err error, pos token.Pos) error {
	var de *ir.DecodeError
	if errors.As(err, &de) {
		return &CompileError{Field: de.Field, Message: de.Message, Pos: pos}
	}
	return err
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
