package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartProgramJSON = `{
  "definition": {
    "name": "cart_total",
    "description": "Totals a shopping cart",
    "input_schema": {"type": "object"},
    "output_schema": {"type": "object", "properties": {"total": {"type": "number"}, "count": {"type": "number"}}}
  },
  "steps": [
    {"id": "prices", "description": "", "operation": {"op": "pluck", "path": "/items", "key": "price"}, "output_path": "/prices"},
    {"id": "total", "description": "sum it", "operation": {"op": "sum", "list_path": "/prices"}, "output_path": "/total"},
    {"id": "count", "description": "", "operation": {"op": "count", "list_path": "/items"}, "output_path": "/count"}
  ]
}`

func TestUnmarshalProgram(t *testing.T) {
	p, err := UnmarshalProgram([]byte(cartProgramJSON))
	require.NoError(t, err)

	assert.Equal(t, "cart_total", p.Definition.Name)
	assert.Equal(t, "Totals a shopping cart", p.Definition.Description)
	assert.Equal(t, []string{"count", "total"}, p.Definition.OutputKeys())

	require.Len(t, p.Steps, 3)
	assert.Equal(t, Step{
		ID:         "prices",
		Operation:  PluckOp{Path: "/items", Key: "price"},
		OutputPath: "/prices",
	}, p.Steps[0])
	assert.Equal(t, SumOp{ListPath: "/prices"}, p.Steps[1].Operation)
	assert.Equal(t, "sum it", p.Steps[1].Description)
	assert.Equal(t, CountOp{ListPath: "/items"}, p.Steps[2].Operation)
}

func TestOperationFromValueAllOperations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Operation
	}{
		{"get", `{"op":"get","path":"/a"}`, GetOp{Path: "/a"}},
		{"constant text", `{"op":"constant","value":"hi"}`, ConstantOp{Value: TextLiteral("hi")}},
		{"constant number", `{"op":"constant","value":2.5}`, ConstantOp{Value: NumberLiteral(2.5)}},
		{"constant bool", `{"op":"constant","value":true}`, ConstantOp{Value: BoolLiteral(true)}},
		{"constant null", `{"op":"constant","value":null}`, ConstantOp{Value: NullLiteral()}},
		{"pluck", `{"op":"pluck","path":"/items","key":"price"}`, PluckOp{Path: "/items", Key: "price"}},
		{"add", `{"op":"add","a":"/x","b":"/y"}`, AddOp{A: "/x", B: "/y"}},
		{"subtract", `{"op":"subtract","a":"/x","b":"/y"}`, SubtractOp{A: "/x", B: "/y"}},
		{"multiply", `{"op":"multiply","a":"/x","b":"/y"}`, MultiplyOp{A: "/x", B: "/y"}},
		{"divide", `{"op":"divide","a":"/x","b":"/y"}`, DivideOp{A: "/x", B: "/y"}},
		{
			"calculate",
			`{"op":"calculate","list_path":"/items","output_field":"line","operator":"multiply","a_field":"price","b_field":"/rate"}`,
			CalculateOp{ListPath: "/items", OutputField: "line", Operator: ArithMultiply, AField: "price", BField: "/rate"},
		},
		{"sum", `{"op":"sum","list_path":"/xs"}`, SumOp{ListPath: "/xs"}},
		{"sum field", `{"op":"sum","list_path":"/xs","field":"v"}`, SumOp{ListPath: "/xs", Field: Field("v")}},
		{"sum null field", `{"op":"sum","list_path":"/xs","field":null}`, SumOp{ListPath: "/xs"}},
		{"count", `{"op":"count","list_path":"/xs"}`, CountOp{ListPath: "/xs"}},
		{"min", `{"op":"min","list_path":"/xs","field":"v"}`, MinOp{ListPath: "/xs", Field: Field("v")}},
		{"max", `{"op":"max","list_path":"/xs"}`, MaxOp{ListPath: "/xs"}},
		{
			"filter_numeric",
			`{"op":"filter_numeric","list_path":"/xs","operator":"gte","value":3}`,
			FilterNumericOp{ListPath: "/xs", Operator: CmpGte, Value: 3},
		},
		{
			"filter_numeric symbol",
			`{"op":"filter_numeric","list_path":"/xs","field":"p","operator":"<","value":1}`,
			FilterNumericOp{ListPath: "/xs", Field: Field("p"), Operator: CmpLt, Value: 1},
		},
		{
			"sort",
			`{"op":"sort","list_path":"/xs","field":"p","descending":true}`,
			SortOp{ListPath: "/xs", Field: "p", Descending: true},
		},
		{
			"format_string",
			`{"op":"format_string","template":"Hi {name}","variables":[{"key":"name","path":"/n"}]}`,
			FormatStringOp{Template: "Hi {name}", Variables: []FormatVariable{{Key: "name", Path: "/n"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)

			op, err := OperationFromValue(v, "operation")
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestOperationFromValueErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{"not an object", `"get"`, "operation"},
		{"missing op", `{"path":"/a"}`, "operation.op"},
		{"unknown op", `{"op":"explode"}`, "operation.op"},
		{"missing path", `{"op":"get"}`, "operation.path"},
		{"wrong type", `{"op":"get","path":3}`, "operation.path"},
		{"constant missing value", `{"op":"constant"}`, "operation.value"},
		{"constant array", `{"op":"constant","value":[1]}`, "operation.value"},
		{"bad arith operator", `{"op":"calculate","list_path":"/x","output_field":"o","operator":"pow","a_field":"a","b_field":"b"}`, "operation.operator"},
		{"bad cmp operator", `{"op":"filter_numeric","list_path":"/x","operator":"ne","value":1}`, "operation.operator"},
		{"filter value not number", `{"op":"filter_numeric","list_path":"/x","operator":"gt","value":"1"}`, "operation.value"},
		{"sort missing descending", `{"op":"sort","list_path":"/x","field":"p"}`, "operation.descending"},
		{"variables not array", `{"op":"format_string","template":"t","variables":{}}`, "operation.variables"},
		{"variable missing key", `{"op":"format_string","template":"t","variables":[{"path":"/a"}]}`, "operation.variables[0].key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)

			_, err = OperationFromValue(v, "operation")
			require.Error(t, err)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, tt.wantField, decErr.Field)
		})
	}
}

func TestUnknownOperationListsKnownNames(t *testing.T) {
	_, err := UnmarshalProgram([]byte(`{"definition":{"name":"x"},"steps":[{"id":"a","operation":{"op":"nope"},"output_path":"/a"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0].operation.op")
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Contains(t, err.Error(), "format_string")
}

func TestUnmarshalProgramStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"invalid json", `{`, "invalid JSON"},
		{"not object", `[]`, "program must be an object"},
		{"missing definition", `{"steps":[]}`, "definition: is required"},
		{"missing name", `{"definition":{},"steps":[]}`, "definition.name: is required"},
		{"missing steps", `{"definition":{"name":"x"}}`, "steps: is required"},
		{"steps not array", `{"definition":{"name":"x"},"steps":{}}`, "steps: must be an array"},
		{"missing output_path", `{"definition":{"name":"x"},"steps":[{"id":"a","operation":{"op":"get","path":"/a"}}]}`, "steps[0].output_path: is required"},
		{"missing operation", `{"definition":{"name":"x"},"steps":[{"id":"a","output_path":"/a"}]}`, "steps[0].operation: is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalProgram([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMissingSchemasDecodeAsNull(t *testing.T) {
	p, err := UnmarshalProgram([]byte(`{"definition":{"name":"x"},"steps":[]}`))
	require.NoError(t, err)
	assert.Equal(t, IRNull{}, p.Definition.InputSchema)
	assert.Equal(t, IRNull{}, p.Definition.OutputSchema)
	assert.Nil(t, p.Definition.OutputKeys())
	assert.Empty(t, p.Steps)
}

func TestProgramJSONRoundTrip(t *testing.T) {
	p, err := UnmarshalProgram([]byte(cartProgramJSON))
	require.NoError(t, err)

	p.Steps = append(p.Steps,
		Step{ID: "f", Operation: FilterNumericOp{ListPath: "/prices", Field: Field("v"), Operator: CmpLte, Value: 4}, OutputPath: "/cheap"},
		Step{ID: "s", Operation: SortOp{ListPath: "/items", Field: "price"}, OutputPath: "/sorted"},
		Step{ID: "k", Operation: ConstantOp{Value: NullLiteral()}, OutputPath: "/nothing"},
		Step{ID: "m", Operation: FormatStringOp{Template: "{t}", Variables: []FormatVariable{{Key: "t", Path: "/total"}}}, OutputPath: "/msg"},
	)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back Program
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *p, back)
	assert.Equal(t, MustProgramHash(p), MustProgramHash(&back))
}

func TestOperationValueAddsDiscriminant(t *testing.T) {
	obj, err := OperationValue(DivideOp{A: "/a", B: "/b"})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"op": IRString("divide"), "a": IRString("/a"), "b": IRString("/b")}, obj)

	obj, err = OperationValue(MaxOp{ListPath: "/xs"})
	require.NoError(t, err)
	_, hasField := obj["field"]
	assert.False(t, hasField, "unset optional field must be omitted")
}
