package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/state"
)

// evaluate computes one operation's result from the current state.
// It never writes to st; the caller stores the result.
func evaluate(op ir.Operation, st *state.State) (ir.IRValue, error) {
	switch o := op.(type) {
	case ir.GetOp:
		return st.Get(o.Path)

	case ir.ConstantOp:
		return o.Value.Value(), nil

	case ir.AddOp:
		return arith(st, o.A, o.B, func(a, b float64) float64 { return a + b })

	case ir.SubtractOp:
		return arith(st, o.A, o.B, func(a, b float64) float64 { return a - b })

	case ir.MultiplyOp:
		return arith(st, o.A, o.B, func(a, b float64) float64 { return a * b })

	case ir.DivideOp:
		// denominator first: a zero divisor fails even if a is unresolvable
		b, err := getNumber(st, o.B)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, &ExecutionError{
				Code:      ErrCodeDivisionByZero,
				Message:   "denominator at " + o.B + " is 0",
				StepIndex: -1,
			}
		}
		a, err := getNumber(st, o.A)
		if err != nil {
			return nil, err
		}
		return ir.IRNumber(a / b), nil

	case ir.CalculateOp:
		return calculate(st, o)

	case ir.SumOp:
		arr, err := getArray(st, o.ListPath)
		if err != nil {
			return nil, err
		}
		total := 0.0
		for _, item := range arr {
			if v, ok := elementNumber(item, o.Field); ok {
				total += v
			}
		}
		return ir.IRNumber(total), nil

	case ir.CountOp:
		arr, err := getArray(st, o.ListPath)
		if err != nil {
			return nil, err
		}
		return ir.IRNumber(len(arr)), nil

	case ir.MinOp:
		arr, err := getArray(st, o.ListPath)
		if err != nil {
			return nil, err
		}
		acc := math.Inf(1)
		for _, item := range arr {
			if v, ok := elementNumber(item, o.Field); ok && v < acc {
				acc = v
			}
		}
		return ir.IRNumber(acc), nil

	case ir.MaxOp:
		arr, err := getArray(st, o.ListPath)
		if err != nil {
			return nil, err
		}
		acc := math.Inf(-1)
		for _, item := range arr {
			if v, ok := elementNumber(item, o.Field); ok && v > acc {
				acc = v
			}
		}
		return ir.IRNumber(acc), nil

	case ir.PluckOp:
		arr, err := getArray(st, o.Path)
		if err != nil {
			return nil, err
		}
		out := make(ir.IRArray, len(arr))
		for i, item := range arr {
			out[i] = ir.IRNull{}
			if obj, ok := item.(ir.IRObject); ok {
				if v, ok := obj[o.Key]; ok && v != nil {
					out[i] = v
				}
			}
		}
		return out, nil

	case ir.SortOp:
		arr, err := getArray(st, o.ListPath)
		if err != nil {
			return nil, err
		}
		field := o.Field
		sort.SliceStable(arr, func(i, j int) bool {
			return fieldOrZero(arr[i], field) < fieldOrZero(arr[j], field)
		})
		if o.Descending {
			for i, j := 0, len(arr)-1; i < j; i, j = i+1, j-1 {
				arr[i], arr[j] = arr[j], arr[i]
			}
		}
		return arr, nil

	case ir.FilterNumericOp:
		arr, err := getArray(st, o.ListPath)
		if err != nil {
			return nil, err
		}
		out := make(ir.IRArray, 0, len(arr))
		for _, item := range arr {
			if v, ok := elementNumber(item, o.Field); ok && compare(o.Operator, v, o.Value) {
				out = append(out, item)
			}
		}
		return out, nil

	case ir.FormatStringOp:
		return ir.IRString(formatString(st, o)), nil

	default:
		return nil, &ExecutionError{
			Code:      ErrCodeUnknownOperation,
			Message:   fmt.Sprintf("no evaluator for operation %s (%T)", opName(op), op),
			StepIndex: -1,
		}
	}
}

func arith(st *state.State, pathA, pathB string, fn func(a, b float64) float64) (ir.IRValue, error) {
	a, err := getNumber(st, pathA)
	if err != nil {
		return nil, err
	}
	b, err := getNumber(st, pathB)
	if err != nil {
		return nil, err
	}
	return ir.IRNumber(fn(a, b)), nil
}

// calculate applies the operator to every object element and stores the
// result under OutputField. Non-object elements pass through unchanged.
// Unresolvable or non-numeric operands count as 0, and division by 0
// yields 0.
func calculate(st *state.State, o ir.CalculateOp) (ir.IRValue, error) {
	arr, err := getArray(st, o.ListPath)
	if err != nil {
		return nil, err
	}

	for _, item := range arr {
		obj, ok := item.(ir.IRObject)
		if !ok {
			continue
		}
		a := operand(st, obj, o.AField)
		b := operand(st, obj, o.BField)

		var res float64
		switch o.Operator {
		case ir.ArithAdd:
			res = a + b
		case ir.ArithSubtract:
			res = a - b
		case ir.ArithMultiply:
			res = a * b
		case ir.ArithDivide:
			if b != 0 {
				res = a / b
			}
		}
		obj[o.OutputField] = ir.IRNumber(res)
	}
	return arr, nil
}

// operand resolves a Calculate operand: a global path when it starts with
// "/", otherwise a property of the element.
func operand(st *state.State, elem ir.IRObject, target string) float64 {
	var v ir.IRValue
	if len(target) > 0 && target[0] == '/' {
		got, err := st.Get(target)
		if err != nil {
			return 0
		}
		v = got
	} else {
		v = elem[target]
	}
	if n, ok := v.(ir.IRNumber); ok {
		return float64(n)
	}
	return 0
}

// compare applies a filter operator. Equality tolerates a difference below
// machine epsilon.
func compare(op ir.CmpOp, v, x float64) bool {
	switch op {
	case ir.CmpGt:
		return v > x
	case ir.CmpLt:
		return v < x
	case ir.CmpEq:
		return math.Abs(v-x) < epsilon
	case ir.CmpGte:
		return v >= x
	case ir.CmpLte:
		return v <= x
	default:
		return false
	}
}

// epsilon is the difference between 1.0 and the next representable float64.
const epsilon = 2.220446049250313e-16

func getNumber(st *state.State, path string) (float64, error) {
	v, err := st.Get(path)
	if err != nil {
		return 0, err
	}
	n, ok := v.(ir.IRNumber)
	if !ok {
		return 0, typeMismatch("value at %s is %s, not number", path, ir.TypeName(v))
	}
	return float64(n), nil
}

// getArray returns a private copy of the array at path; callers may modify
// it freely.
func getArray(st *state.State, path string) (ir.IRArray, error) {
	v, err := st.Get(path)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, typeMismatch("value at %s is %s, not array", path, ir.TypeName(v))
	}
	return arr, nil
}

// elementNumber reads an element's numeric value: the element itself when
// field is nil, otherwise the named property of an object element.
func elementNumber(item ir.IRValue, field *string) (float64, bool) {
	if field == nil {
		n, ok := item.(ir.IRNumber)
		return float64(n), ok
	}
	obj, ok := item.(ir.IRObject)
	if !ok {
		return 0, false
	}
	n, ok := obj[*field].(ir.IRNumber)
	return float64(n), ok
}

func fieldOrZero(item ir.IRValue, field string) float64 {
	v, _ := elementNumber(item, &field)
	return v
}

func opName(op ir.Operation) string {
	if op == nil {
		return "<nil>"
	}
	return op.OpName()
}
