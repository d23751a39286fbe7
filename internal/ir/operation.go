package ir

// Operation is a sealed interface over the closed set of step kinds.
// Adding an operation means adding a variant here, a case in the codec and
// a case in the engine's evaluator.
type Operation interface {
	// OpName returns the wire discriminant ("get", "sum", ...).
	OpName() string
	operation() // Sealed
}

// Wire discriminants for each operation.
const (
	OpGet           = "get"
	OpConstant      = "constant"
	OpPluck         = "pluck"
	OpAdd           = "add"
	OpSubtract      = "subtract"
	OpMultiply      = "multiply"
	OpDivide        = "divide"
	OpCalculate     = "calculate"
	OpSum           = "sum"
	OpCount         = "count"
	OpMin           = "min"
	OpMax           = "max"
	OpFilterNumeric = "filter_numeric"
	OpSort          = "sort"
	OpFormatString  = "format_string"
)

// OpNames lists every operation discriminant in declaration order.
var OpNames = []string{
	OpGet, OpConstant, OpPluck,
	OpAdd, OpSubtract, OpMultiply, OpDivide, OpCalculate,
	OpSum, OpCount, OpMin, OpMax,
	OpFilterNumeric, OpSort, OpFormatString,
}

// GetOp reads a value from the state.
type GetOp struct {
	Path string
}

// ConstantOp produces a literal.
type ConstantOp struct {
	Value Literal
}

// PluckOp maps an array of objects to one field per element.
type PluckOp struct {
	Path string
	Key  string
}

// AddOp adds the numbers at paths A and B.
type AddOp struct{ A, B string }

// SubtractOp subtracts the number at B from the number at A.
type SubtractOp struct{ A, B string }

// MultiplyOp multiplies the numbers at paths A and B.
type MultiplyOp struct{ A, B string }

// DivideOp divides the number at A by the number at B.
// A zero denominator is an error.
type DivideOp struct{ A, B string }

// CalculateOp applies Operator element-wise over an array of objects and
// writes the result into OutputField of each element. AField and BField are
// either element properties or, when they start with "/", state paths.
type CalculateOp struct {
	ListPath    string
	OutputField string
	Operator    ArithOp
	AField      string
	BField      string
}

// SumOp sums the numeric elements (or the numeric Field of each element).
type SumOp struct {
	ListPath string
	Field    *string
}

// CountOp returns the length of an array.
type CountOp struct {
	ListPath string
}

// MinOp returns the smallest numeric element (or Field value).
type MinOp struct {
	ListPath string
	Field    *string
}

// MaxOp returns the largest numeric element (or Field value).
type MaxOp struct {
	ListPath string
	Field    *string
}

// FilterNumericOp keeps elements whose numeric value compares true against
// Value.
type FilterNumericOp struct {
	ListPath string
	Field    *string
	Operator CmpOp
	Value    float64
}

// SortOp orders an array of objects by a numeric field.
type SortOp struct {
	ListPath   string
	Field      string
	Descending bool
}

// FormatStringOp substitutes "{key}" placeholders in Template.
type FormatStringOp struct {
	Template  string
	Variables []FormatVariable
}

func (GetOp) OpName() string           { return OpGet }
func (ConstantOp) OpName() string      { return OpConstant }
func (PluckOp) OpName() string         { return OpPluck }
func (AddOp) OpName() string           { return OpAdd }
func (SubtractOp) OpName() string      { return OpSubtract }
func (MultiplyOp) OpName() string      { return OpMultiply }
func (DivideOp) OpName() string        { return OpDivide }
func (CalculateOp) OpName() string     { return OpCalculate }
func (SumOp) OpName() string           { return OpSum }
func (CountOp) OpName() string         { return OpCount }
func (MinOp) OpName() string           { return OpMin }
func (MaxOp) OpName() string           { return OpMax }
func (FilterNumericOp) OpName() string { return OpFilterNumeric }
func (SortOp) OpName() string          { return OpSort }
func (FormatStringOp) OpName() string  { return OpFormatString }

func (GetOp) operation()           {}
func (ConstantOp) operation()      {}
func (PluckOp) operation()         {}
func (AddOp) operation()           {}
func (SubtractOp) operation()      {}
func (MultiplyOp) operation()      {}
func (DivideOp) operation()        {}
func (CalculateOp) operation()     {}
func (SumOp) operation()           {}
func (CountOp) operation()         {}
func (MinOp) operation()           {}
func (MaxOp) operation()           {}
func (FilterNumericOp) operation() {}
func (SortOp) operation()          {}
func (FormatStringOp) operation()  {}

// Field is a convenience for building optional field parameters.
func Field(name string) *string {
	return &name
}

// OperandPaths returns every state path an operation reads, in parameter
// order. Element-relative fields are not paths and are not included;
// CalculateOp operands are included only when they start with "/".
func OperandPaths(op Operation) []string {
	switch o := op.(type) {
	case GetOp:
		return []string{o.Path}
	case PluckOp:
		return []string{o.Path}
	case AddOp:
		return []string{o.A, o.B}
	case SubtractOp:
		return []string{o.A, o.B}
	case MultiplyOp:
		return []string{o.A, o.B}
	case DivideOp:
		return []string{o.A, o.B}
	case CalculateOp:
		paths := []string{o.ListPath}
		for _, f := range []string{o.AField, o.BField} {
			if len(f) > 0 && f[0] == '/' {
				paths = append(paths, f)
			}
		}
		return paths
	case SumOp:
		return []string{o.ListPath}
	case CountOp:
		return []string{o.ListPath}
	case MinOp:
		return []string{o.ListPath}
	case MaxOp:
		return []string{o.ListPath}
	case FilterNumericOp:
		return []string{o.ListPath}
	case SortOp:
		return []string{o.ListPath}
	case FormatStringOp:
		paths := make([]string, 0, len(o.Variables))
		for _, v := range o.Variables {
			paths = append(paths, v.Path)
		}
		return paths
	default:
		return nil
	}
}
