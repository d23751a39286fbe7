package ir

import (
	"fmt"
	"strings"
)

// DecodeError reports a structural problem in a program document.
// Field is a dotted path into the document, e.g. "steps[2].operation.list_path".
type DecodeError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func decodeErr(field, format string, args ...any) *DecodeError {
	return &DecodeError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnmarshalProgram decodes a program from JSON.
func UnmarshalProgram(data []byte) (*Program, error) {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return ProgramFromValue(v)
}

// UnmarshalJSON implements json.Unmarshaler for Program.
func (p *Program) UnmarshalJSON(data []byte) error {
	decoded, err := UnmarshalProgram(data)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// MarshalJSON implements json.Marshaler for Program.
func (p Program) MarshalJSON() ([]byte, error) {
	v, err := ProgramValue(&p)
	if err != nil {
		return nil, err
	}
	return MarshalIRValue(v)
}

// ProgramFromValue decodes a program from an already-parsed document.
// Used for JSON, YAML and CUE sources alike.
func ProgramFromValue(v IRValue) (*Program, error) {
	root, ok := v.(IRObject)
	if !ok {
		return nil, decodeErr("", "program must be an object, got %s", TypeName(v))
	}

	defVal, ok := root["definition"]
	if !ok {
		return nil, decodeErr("definition", "is required")
	}
	def, err := DefinitionFromValue(defVal)
	if err != nil {
		return nil, err
	}

	stepsVal, ok := root["steps"]
	if !ok {
		return nil, decodeErr("steps", "is required")
	}
	stepsArr, ok := stepsVal.(IRArray)
	if !ok {
		return nil, decodeErr("steps", "must be an array, got %s", TypeName(stepsVal))
	}

	steps := make([]Step, 0, len(stepsArr))
	for i, sv := range stepsArr {
		step, err := StepFromValue(sv, fmt.Sprintf("steps[%d]", i))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return &Program{Definition: def, Steps: steps}, nil
}

// DefinitionFromValue decodes a definition object.
// Missing schemas decode as IRNull.
func DefinitionFromValue(v IRValue) (Definition, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return Definition{}, decodeErr("definition", "must be an object, got %s", TypeName(v))
	}

	name, err := reqString(obj, "definition", "name")
	if err != nil {
		return Definition{}, err
	}
	desc, _, err := optString(obj, "definition", "description")
	if err != nil {
		return Definition{}, err
	}

	def := Definition{
		Name:         name,
		Description:  desc,
		InputSchema:  IRNull{},
		OutputSchema: IRNull{},
	}
	if s, ok := obj["input_schema"]; ok {
		def.InputSchema = s
	}
	if s, ok := obj["output_schema"]; ok {
		def.OutputSchema = s
	}
	return def, nil
}

// StepFromValue decodes one step. prefix is used for error locations.
func StepFromValue(v IRValue, prefix string) (Step, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return Step{}, decodeErr(prefix, "step must be an object, got %s", TypeName(v))
	}

	id, err := reqString(obj, prefix, "id")
	if err != nil {
		return Step{}, err
	}
	desc, _, err := optString(obj, prefix, "description")
	if err != nil {
		return Step{}, err
	}
	outputPath, err := reqString(obj, prefix, "output_path")
	if err != nil {
		return Step{}, err
	}

	opVal, ok := obj["operation"]
	if !ok {
		return Step{}, decodeErr(prefix+".operation", "is required")
	}
	op, err := OperationFromValue(opVal, prefix+".operation")
	if err != nil {
		return Step{}, err
	}

	return Step{ID: id, Description: desc, Operation: op, OutputPath: outputPath}, nil
}

// OperationFromValue decodes an operation tagged by its "op" field.
// Unknown extra parameters are ignored.
func OperationFromValue(v IRValue, prefix string) (Operation, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return nil, decodeErr(prefix, "operation must be an object, got %s", TypeName(v))
	}

	name, err := reqString(obj, prefix, "op")
	if err != nil {
		return nil, err
	}

	switch name {
	case OpGet:
		path, err := reqString(obj, prefix, "path")
		if err != nil {
			return nil, err
		}
		return GetOp{Path: path}, nil

	case OpConstant:
		raw, ok := obj["value"]
		if !ok {
			return nil, decodeErr(prefix+".value", "is required")
		}
		lit, err := LiteralFromValue(raw)
		if err != nil {
			return nil, decodeErr(prefix+".value", "%v", err)
		}
		return ConstantOp{Value: lit}, nil

	case OpPluck:
		path, err := reqString(obj, prefix, "path")
		if err != nil {
			return nil, err
		}
		key, err := reqString(obj, prefix, "key")
		if err != nil {
			return nil, err
		}
		return PluckOp{Path: path, Key: key}, nil

	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		a, err := reqString(obj, prefix, "a")
		if err != nil {
			return nil, err
		}
		b, err := reqString(obj, prefix, "b")
		if err != nil {
			return nil, err
		}
		switch name {
		case OpAdd:
			return AddOp{A: a, B: b}, nil
		case OpSubtract:
			return SubtractOp{A: a, B: b}, nil
		case OpMultiply:
			return MultiplyOp{A: a, B: b}, nil
		default:
			return DivideOp{A: a, B: b}, nil
		}

	case OpCalculate:
		var c CalculateOp
		if c.ListPath, err = reqString(obj, prefix, "list_path"); err != nil {
			return nil, err
		}
		if c.OutputField, err = reqString(obj, prefix, "output_field"); err != nil {
			return nil, err
		}
		opName, err := reqString(obj, prefix, "operator")
		if err != nil {
			return nil, err
		}
		if c.Operator, err = ParseArithOp(opName); err != nil {
			return nil, decodeErr(prefix+".operator", "%v", err)
		}
		if c.AField, err = reqString(obj, prefix, "a_field"); err != nil {
			return nil, err
		}
		if c.BField, err = reqString(obj, prefix, "b_field"); err != nil {
			return nil, err
		}
		return c, nil

	case OpSum, OpMin, OpMax:
		listPath, err := reqString(obj, prefix, "list_path")
		if err != nil {
			return nil, err
		}
		field, err := optField(obj, prefix, "field")
		if err != nil {
			return nil, err
		}
		switch name {
		case OpSum:
			return SumOp{ListPath: listPath, Field: field}, nil
		case OpMin:
			return MinOp{ListPath: listPath, Field: field}, nil
		default:
			return MaxOp{ListPath: listPath, Field: field}, nil
		}

	case OpCount:
		listPath, err := reqString(obj, prefix, "list_path")
		if err != nil {
			return nil, err
		}
		return CountOp{ListPath: listPath}, nil

	case OpFilterNumeric:
		var f FilterNumericOp
		if f.ListPath, err = reqString(obj, prefix, "list_path"); err != nil {
			return nil, err
		}
		if f.Field, err = optField(obj, prefix, "field"); err != nil {
			return nil, err
		}
		opName, err := reqString(obj, prefix, "operator")
		if err != nil {
			return nil, err
		}
		if f.Operator, err = ParseCmpOp(opName); err != nil {
			return nil, decodeErr(prefix+".operator", "%v", err)
		}
		if f.Value, err = reqNumber(obj, prefix, "value"); err != nil {
			return nil, err
		}
		return f, nil

	case OpSort:
		var s SortOp
		if s.ListPath, err = reqString(obj, prefix, "list_path"); err != nil {
			return nil, err
		}
		if s.Field, err = reqString(obj, prefix, "field"); err != nil {
			return nil, err
		}
		if s.Descending, err = reqBool(obj, prefix, "descending"); err != nil {
			return nil, err
		}
		return s, nil

	case OpFormatString:
		template, err := reqString(obj, prefix, "template")
		if err != nil {
			return nil, err
		}
		vars, err := formatVariables(obj, prefix)
		if err != nil {
			return nil, err
		}
		return FormatStringOp{Template: template, Variables: vars}, nil

	default:
		return nil, decodeErr(prefix+".op", "unknown operation %q (known: %s)", name, strings.Join(OpNames, ", "))
	}
}

func formatVariables(obj IRObject, prefix string) ([]FormatVariable, error) {
	raw, ok := obj["variables"]
	if !ok {
		return nil, decodeErr(prefix+".variables", "is required")
	}
	arr, ok := raw.(IRArray)
	if !ok {
		return nil, decodeErr(prefix+".variables", "must be an array, got %s", TypeName(raw))
	}

	vars := make([]FormatVariable, 0, len(arr))
	for i, item := range arr {
		at := fmt.Sprintf("%s.variables[%d]", prefix, i)
		vObj, ok := item.(IRObject)
		if !ok {
			return nil, decodeErr(at, "must be an object, got %s", TypeName(item))
		}
		key, err := reqString(vObj, at, "key")
		if err != nil {
			return nil, err
		}
		path, err := reqString(vObj, at, "path")
		if err != nil {
			return nil, err
		}
		vars = append(vars, FormatVariable{Key: key, Path: path})
	}
	return vars, nil
}

func reqString(obj IRObject, prefix, key string) (string, error) {
	s, ok, err := optString(obj, prefix, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", decodeErr(join(prefix, key), "is required")
	}
	return s, nil
}

func optString(obj IRObject, prefix, key string) (string, bool, error) {
	raw, ok := obj[key]
	if !ok {
		return "", false, nil
	}
	s, ok := raw.(IRString)
	if !ok {
		return "", false, decodeErr(join(prefix, key), "must be a string, got %s", TypeName(raw))
	}
	return string(s), true, nil
}

// optField reads an optional field-name parameter. An explicit null is the
// same as absent.
func optField(obj IRObject, prefix, key string) (*string, error) {
	if raw, ok := obj[key]; ok {
		if _, isNull := raw.(IRNull); isNull {
			return nil, nil
		}
	}
	s, ok, err := optString(obj, prefix, key)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func reqBool(obj IRObject, prefix, key string) (bool, error) {
	raw, ok := obj[key]
	if !ok {
		return false, decodeErr(join(prefix, key), "is required")
	}
	b, ok := raw.(IRBool)
	if !ok {
		return false, decodeErr(join(prefix, key), "must be a boolean, got %s", TypeName(raw))
	}
	return bool(b), nil
}

func reqNumber(obj IRObject, prefix, key string) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, decodeErr(join(prefix, key), "is required")
	}
	n, ok := raw.(IRNumber)
	if !ok {
		return 0, decodeErr(join(prefix, key), "must be a number, got %s", TypeName(raw))
	}
	return float64(n), nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ProgramValue encodes a program as a document in its wire shape.
func ProgramValue(p *Program) (IRValue, error) {
	steps := make(IRArray, len(p.Steps))
	for i, s := range p.Steps {
		opVal, err := OperationValue(s.Operation)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		steps[i] = IRObject{
			"id":          IRString(s.ID),
			"description": IRString(s.Description),
			"operation":   opVal,
			"output_path": IRString(s.OutputPath),
		}
	}

	return IRObject{
		"definition": IRObject{
			"name":          IRString(p.Definition.Name),
			"description":   IRString(p.Definition.Description),
			"input_schema":  orNull(p.Definition.InputSchema),
			"output_schema": orNull(p.Definition.OutputSchema),
		},
		"steps": steps,
	}, nil
}

// OperationValue encodes an operation with its "op" discriminant.
// Optional fields that are unset are omitted.
func OperationValue(op Operation) (IRObject, error) {
	obj := IRObject{}
	switch o := op.(type) {
	case GetOp:
		obj["path"] = IRString(o.Path)
	case ConstantOp:
		obj["value"] = o.Value.Value()
	case PluckOp:
		obj["path"] = IRString(o.Path)
		obj["key"] = IRString(o.Key)
	case AddOp:
		obj["a"], obj["b"] = IRString(o.A), IRString(o.B)
	case SubtractOp:
		obj["a"], obj["b"] = IRString(o.A), IRString(o.B)
	case MultiplyOp:
		obj["a"], obj["b"] = IRString(o.A), IRString(o.B)
	case DivideOp:
		obj["a"], obj["b"] = IRString(o.A), IRString(o.B)
	case CalculateOp:
		obj["list_path"] = IRString(o.ListPath)
		obj["output_field"] = IRString(o.OutputField)
		obj["operator"] = IRString(o.Operator)
		obj["a_field"] = IRString(o.AField)
		obj["b_field"] = IRString(o.BField)
	case SumOp:
		obj["list_path"] = IRString(o.ListPath)
		putField(obj, o.Field)
	case CountOp:
		obj["list_path"] = IRString(o.ListPath)
	case MinOp:
		obj["list_path"] = IRString(o.ListPath)
		putField(obj, o.Field)
	case MaxOp:
		obj["list_path"] = IRString(o.ListPath)
		putField(obj, o.Field)
	case FilterNumericOp:
		obj["list_path"] = IRString(o.ListPath)
		putField(obj, o.Field)
		obj["operator"] = IRString(o.Operator)
		obj["value"] = IRNumber(o.Value)
	case SortOp:
		obj["list_path"] = IRString(o.ListPath)
		obj["field"] = IRString(o.Field)
		obj["descending"] = IRBool(o.Descending)
	case FormatStringOp:
		obj["template"] = IRString(o.Template)
		vars := make(IRArray, len(o.Variables))
		for i, v := range o.Variables {
			vars[i] = IRObject{"key": IRString(v.Key), "path": IRString(v.Path)}
		}
		obj["variables"] = vars
	default:
		return nil, fmt.Errorf("unknown operation type: %T", op)
	}
	obj["op"] = IRString(op.OpName())
	return obj, nil
}

func putField(obj IRObject, field *string) {
	if field != nil {
		obj["field"] = IRString(*field)
	}
}

func orNull(v IRValue) IRValue {
	if v == nil {
		return IRNull{}
	}
	return v
}
