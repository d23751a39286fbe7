package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralFromValueOrder(t *testing.T) {
	tests := []struct {
		in   IRValue
		want Literal
	}{
		{IRString("3"), TextLiteral("3")},
		{IRNumber(3), NumberLiteral(3)},
		{IRBool(false), BoolLiteral(false)},
		{IRNull{}, NullLiteral()},
		{nil, NullLiteral()},
	}
	for _, tt := range tests {
		got, err := LiteralFromValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, Clone(tt.in), got.Value())
	}

	_, err := LiteralFromValue(IRObject{})
	assert.Error(t, err)
}

func TestLiteralKindString(t *testing.T) {
	assert.Equal(t, "text", LiteralText.String())
	assert.Equal(t, "number", LiteralNumber.String())
	assert.Equal(t, "bool", LiteralBool.String())
	assert.Equal(t, "null", LiteralNull.String())
}

func TestParseCmpOp(t *testing.T) {
	tests := map[string]CmpOp{
		"gt": CmpGt, ">": CmpGt,
		"lt": CmpLt, "<": CmpLt,
		"eq": CmpEq, "=": CmpEq,
		"gte": CmpGte, ">=": CmpGte,
		"lte": CmpLte, "<=": CmpLte,
	}
	for in, want := range tests {
		got, err := ParseCmpOp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCmpOp("!=")
	assert.Error(t, err)
	assert.Equal(t, ">=", CmpGte.Symbol())
}

func TestParseArithOp(t *testing.T) {
	for _, name := range []string{"add", "subtract", "multiply", "divide"} {
		op, err := ParseArithOp(name)
		require.NoError(t, err)
		assert.Equal(t, ArithOp(name), op)
	}
	_, err := ParseArithOp("+")
	assert.Error(t, err)
}

func TestOutputKeys(t *testing.T) {
	def := Definition{OutputSchema: IRObject{
		"properties": IRObject{"b": IRObject{}, "a": IRObject{}},
	}}
	assert.Equal(t, []string{"a", "b"}, def.OutputKeys())

	assert.Nil(t, Definition{OutputSchema: IRObject{"type": IRString("object")}}.OutputKeys())
	assert.Nil(t, Definition{OutputSchema: IRNull{}}.OutputKeys())
	assert.Empty(t, Definition{OutputSchema: IRObject{"properties": IRObject{}}}.OutputKeys())
}

func TestOperandPaths(t *testing.T) {
	assert.Equal(t, []string{"/a", "/b"}, OperandPaths(DivideOp{A: "/a", B: "/b"}))
	assert.Equal(t, []string{"/items", "/rate"}, OperandPaths(CalculateOp{
		ListPath: "/items", AField: "price", BField: "/rate",
	}))
	assert.Equal(t, []string{"/x", "/y"}, OperandPaths(FormatStringOp{
		Variables: []FormatVariable{{Key: "x", Path: "/x"}, {Key: "y", Path: "/y"}},
	}))
	assert.Empty(t, OperandPaths(ConstantOp{Value: NullLiteral()}))
}

func TestOpNamesCoverEveryOperation(t *testing.T) {
	ops := []Operation{
		GetOp{}, ConstantOp{}, PluckOp{}, AddOp{}, SubtractOp{}, MultiplyOp{}, DivideOp{},
		CalculateOp{}, SumOp{}, CountOp{}, MinOp{}, MaxOp{}, FilterNumericOp{}, SortOp{}, FormatStringOp{},
	}
	require.Len(t, OpNames, len(ops))
	for i, op := range ops {
		assert.Equal(t, OpNames[i], op.OpName())
	}
}
