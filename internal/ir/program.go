package ir

import "fmt"

// Program is an ordered list of steps plus the definition it was built to
// satisfy. Step order is significant: steps are a sequential fold over one
// state document, and later steps may read what earlier steps wrote.
type Program struct {
	Definition Definition `json:"definition"`
	Steps      []Step     `json:"steps"`
}

// Definition describes what a program is for. InputSchema and OutputSchema
// are JSON-Schema-shaped values; the engine only reads the top-level
// "properties" key names of OutputSchema.
type Definition struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	InputSchema  IRValue `json:"input_schema"`
	OutputSchema IRValue `json:"output_schema"`
}

// OutputKeys returns the property names declared by the output schema in
// canonical order. Returns nil when the schema has no "properties" object.
func (d Definition) OutputKeys() []string {
	schema, ok := d.OutputSchema.(IRObject)
	if !ok {
		return nil
	}
	props, ok := schema["properties"].(IRObject)
	if !ok {
		return nil
	}
	return props.SortedKeys()
}

// Step is one operation plus the location its result is written to.
// ID is a diagnostic label; uniqueness is not enforced.
// Description is free-form and never executed.
type Step struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Operation   Operation `json:"operation"`
	OutputPath  string    `json:"output_path"`
}

// LiteralKind discriminates Literal.
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralText
	LiteralNumber
	LiteralBool
)

// String returns the wire name of the kind.
func (k LiteralKind) String() string {
	switch k {
	case LiteralText:
		return "text"
	case LiteralNumber:
		return "number"
	case LiteralBool:
		return "bool"
	default:
		return "null"
	}
}

// Literal is the constant carried by a ConstantOp.
type Literal struct {
	Kind   LiteralKind
	Text   string
	Number float64
	Bool   bool
}

// TextLiteral creates a text literal.
func TextLiteral(s string) Literal { return Literal{Kind: LiteralText, Text: s} }

// NumberLiteral creates a number literal.
func NumberLiteral(n float64) Literal { return Literal{Kind: LiteralNumber, Number: n} }

// BoolLiteral creates a boolean literal.
func BoolLiteral(b bool) Literal { return Literal{Kind: LiteralBool, Bool: b} }

// NullLiteral creates the null literal.
func NullLiteral() Literal { return Literal{Kind: LiteralNull} }

// Value returns the literal as its JSON equivalent.
func (l Literal) Value() IRValue {
	switch l.Kind {
	case LiteralText:
		return IRString(l.Text)
	case LiteralNumber:
		return IRNumber(l.Number)
	case LiteralBool:
		return IRBool(l.Bool)
	default:
		return IRNull{}
	}
}

// LiteralFromValue builds a Literal from an untyped value.
// Shapes are tried in the order text, number, boolean, null.
func LiteralFromValue(v IRValue) (Literal, error) {
	if s, ok := v.(IRString); ok {
		return TextLiteral(string(s)), nil
	}
	if n, ok := v.(IRNumber); ok {
		return NumberLiteral(float64(n)), nil
	}
	if b, ok := v.(IRBool); ok {
		return BoolLiteral(bool(b)), nil
	}
	if _, ok := v.(IRNull); ok || v == nil {
		return NullLiteral(), nil
	}
	return Literal{}, fmt.Errorf("constant must be text, number, boolean or null, got %s", TypeName(v))
}

// ArithOp is the element-wise operator used by CalculateOp.
type ArithOp string

const (
	ArithAdd      ArithOp = "add"
	ArithSubtract ArithOp = "subtract"
	ArithMultiply ArithOp = "multiply"
	ArithDivide   ArithOp = "divide"
)

// ParseArithOp validates an arithmetic operator name.
func ParseArithOp(s string) (ArithOp, error) {
	switch op := ArithOp(s); op {
	case ArithAdd, ArithSubtract, ArithMultiply, ArithDivide:
		return op, nil
	}
	return "", fmt.Errorf("unknown arithmetic operator %q: must be one of add, subtract, multiply, divide", s)
}

// CmpOp is the comparison used by FilterNumericOp.
type CmpOp string

const (
	CmpGt  CmpOp = "gt"
	CmpLt  CmpOp = "lt"
	CmpEq  CmpOp = "eq"
	CmpGte CmpOp = "gte"
	CmpLte CmpOp = "lte"
)

// cmpSymbols maps the symbolic spellings accepted on input.
var cmpSymbols = map[string]CmpOp{
	">":  CmpGt,
	"<":  CmpLt,
	"=":  CmpEq,
	">=": CmpGte,
	"<=": CmpLte,
}

// ParseCmpOp validates a comparison operator given by name or symbol.
func ParseCmpOp(s string) (CmpOp, error) {
	switch op := CmpOp(s); op {
	case CmpGt, CmpLt, CmpEq, CmpGte, CmpLte:
		return op, nil
	}
	if op, ok := cmpSymbols[s]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown comparison operator %q: must be one of gt, lt, eq, gte, lte", s)
}

// Symbol returns the symbolic spelling of the operator.
func (c CmpOp) Symbol() string {
	for sym, op := range cmpSymbols {
		if op == c {
			return sym
		}
	}
	return string(c)
}

// FormatVariable binds a template placeholder to a state path.
// Key is the placeholder name without braces.
type FormatVariable struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}
