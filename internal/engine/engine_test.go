package engine

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/state"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(opts ...EngineOption) *Engine {
	return New(append([]EngineOption{WithLogger(quietLogger())}, opts...)...)
}

// program builds a program whose output schema declares outputKeys.
func program(outputKeys []string, steps ...ir.Step) *ir.Program {
	props := ir.IRObject{}
	for _, k := range outputKeys {
		props[k] = ir.IRObject{"type": ir.IRString("number")}
	}
	return &ir.Program{
		Definition: ir.Definition{
			Name:         "test",
			InputSchema:  ir.IRObject{"type": ir.IRString("object")},
			OutputSchema: ir.IRObject{"type": ir.IRString("object"), "properties": props},
		},
		Steps: steps,
	}
}

func step(id string, op ir.Operation, out string) ir.Step {
	return ir.Step{ID: id, Operation: op, OutputPath: out}
}

func objs(field string, values ...float64) ir.IRArray {
	arr := make(ir.IRArray, len(values))
	for i, v := range values {
		arr[i] = ir.IRObject{field: ir.IRNumber(v)}
	}
	return arr
}

// runOne executes a single step against inputs and returns the value written
// to "/out".
func runOne(t *testing.T, op ir.Operation, inputs ir.IRValue) (ir.IRValue, error) {
	t.Helper()
	out, err := newTestEngine().Execute(program([]string{"out"}, step("s", op, "/out")), inputs)
	if err != nil {
		return nil, err
	}
	return out.(ir.IRObject)["out"], nil
}

func TestEngine_EndToEndSum(t *testing.T) {
	p := program([]string{"total"},
		step("total", ir.SumOp{ListPath: "/inputs/items", Field: ir.Field("value")}, "/total"),
	)
	inputs := ir.IRObject{"items": objs("value", 10, 5)}

	out, err := newTestEngine().Execute(p, inputs)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"total": ir.IRNumber(15)}, out)
}

func TestEngine_Deterministic(t *testing.T) {
	p := program([]string{"sorted", "msg"},
		step("sort", ir.SortOp{ListPath: "/items", Field: "v", Descending: true}, "/sorted"),
		step("n", ir.CountOp{ListPath: "/items"}, "/temp/n"),
		step("msg", ir.FormatStringOp{Template: "{n} items", Variables: []ir.FormatVariable{{Key: "n", Path: "/temp/n"}}}, "/msg"),
	)
	inputs := ir.IRObject{"items": objs("v", 3, 1, 2)}
	eng := newTestEngine()

	first, err := eng.Execute(p, inputs)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := eng.Execute(p, inputs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	bad := program(nil, step("x", ir.GetOp{Path: "/nope"}, "/x"))
	_, err1 := eng.Execute(bad, inputs)
	_, err2 := eng.Execute(bad, inputs)
	require.Error(t, err1)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestEngine_ReadFallback(t *testing.T) {
	inputs := ir.IRObject{"x": ir.IRString("v")}
	p := program([]string{"abs", "short"},
		step("abs", ir.GetOp{Path: "/inputs/x"}, "/abs"),
		step("short", ir.GetOp{Path: "/x"}, "/short"),
	)

	out, err := newTestEngine().Execute(p, inputs)
	require.NoError(t, err)
	assert.Equal(t, out.(ir.IRObject)["abs"], out.(ir.IRObject)["short"])
}

func TestEngine_WriteRules(t *testing.T) {
	t.Run("two segments auto-create the section", func(t *testing.T) {
		p := program([]string{"a"}, step("s", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/a/b"))
		out, err := newTestEngine().Execute(p, ir.IRObject{})
		require.NoError(t, err)
		assert.Equal(t, ir.IRObject{"a": ir.IRObject{"b": ir.IRNumber(1)}}, out)
	})

	t.Run("three segments fail on fresh state", func(t *testing.T) {
		p := program([]string{"a"}, step("deep", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/a/b/c"))
		_, err := newTestEngine().Execute(p, ir.IRObject{})
		require.Error(t, err)
		assert.True(t, IsInvalidWritePath(err))
		assert.True(t, state.IsInvalidWritePath(err), "cause must stay reachable")

		var ee *ExecutionError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, 0, ee.StepIndex)
		assert.Equal(t, "deep", ee.StepID)
		assert.Equal(t, ir.OpConstant, ee.Op)
	})
}

func TestEngine_ConstantLiterals(t *testing.T) {
	tests := []struct {
		lit  ir.Literal
		want ir.IRValue
	}{
		{ir.TextLiteral("hi"), ir.IRString("hi")},
		{ir.NumberLiteral(2.5), ir.IRNumber(2.5)},
		{ir.BoolLiteral(true), ir.IRBool(true)},
		{ir.NullLiteral(), ir.IRNull{}},
	}
	for _, tt := range tests {
		t.Run(tt.lit.Kind.String(), func(t *testing.T) {
			got, err := runOne(t, ir.ConstantOp{Value: tt.lit}, ir.IRObject{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_ScalarArithmetic(t *testing.T) {
	inputs := ir.IRObject{"a": ir.IRNumber(6), "b": ir.IRNumber(4)}
	tests := []struct {
		op   ir.Operation
		want float64
	}{
		{ir.AddOp{A: "/a", B: "/b"}, 10},
		{ir.SubtractOp{A: "/a", B: "/b"}, 2},
		{ir.MultiplyOp{A: "/a", B: "/b"}, 24},
		{ir.DivideOp{A: "/a", B: "/b"}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.op.OpName(), func(t *testing.T) {
			got, err := runOne(t, tt.op, inputs)
			require.NoError(t, err)
			assert.Equal(t, ir.IRNumber(tt.want), got)
		})
	}
}

func TestEngine_DivideByZero(t *testing.T) {
	_, err := runOne(t, ir.DivideOp{A: "/a", B: "/b"}, ir.IRObject{"a": ir.IRNumber(1), "b": ir.IRNumber(0)})
	require.Error(t, err)
	assert.True(t, IsDivisionByZero(err))
}

func TestEngine_DivideResolvesDenominatorFirst(t *testing.T) {
	_, err := runOne(t, ir.DivideOp{A: "/missing", B: "/b"}, ir.IRObject{"b": ir.IRNumber(0)})
	assert.True(t, IsDivisionByZero(err), "zero denominator is reported before the missing numerator")
}

func TestEngine_TypeMismatch(t *testing.T) {
	inputs := ir.IRObject{"s": ir.IRString("1"), "n": ir.IRNumber(1), "items": ir.IRArray{}}

	_, err := runOne(t, ir.AddOp{A: "/s", B: "/n"}, inputs)
	assert.True(t, IsTypeMismatch(err))
	assert.Contains(t, err.Error(), "/s is string, not number")

	_, err = runOne(t, ir.SumOp{ListPath: "/n"}, inputs)
	assert.True(t, IsTypeMismatch(err))

	_, err = runOne(t, ir.PluckOp{Path: "/s", Key: "k"}, inputs)
	assert.True(t, IsTypeMismatch(err))
}

func TestEngine_PathNotFound(t *testing.T) {
	_, err := runOne(t, ir.GetOp{Path: "/missing"}, ir.IRObject{"present": ir.IRNull{}})
	require.Error(t, err)
	assert.True(t, IsPathNotFound(err))

	var pe *state.PathNotFoundError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"present"}, pe.InputKeys)
}

func TestEngine_Calculate(t *testing.T) {
	inputs := ir.IRObject{
		"rate": ir.IRNumber(2),
		"items": ir.IRArray{
			ir.IRObject{"price": ir.IRNumber(10), "qty": ir.IRNumber(0)},
			ir.IRObject{"price": ir.IRNumber(9), "qty": ir.IRNumber(3)},
			ir.IRObject{"qty": ir.IRString("x")},
			ir.IRNumber(7),
		},
	}

	t.Run("divide by zero degrades to 0", func(t *testing.T) {
		got, err := runOne(t, ir.CalculateOp{
			ListPath: "/items", OutputField: "unit", Operator: ir.ArithDivide, AField: "price", BField: "qty",
		}, inputs)
		require.NoError(t, err)
		arr := got.(ir.IRArray)
		assert.Equal(t, ir.IRNumber(0), arr[0].(ir.IRObject)["unit"])
		assert.Equal(t, ir.IRNumber(3), arr[1].(ir.IRObject)["unit"])
		assert.Equal(t, ir.IRNumber(0), arr[2].(ir.IRObject)["unit"], "missing and non-numeric operands count as 0")
		assert.Equal(t, ir.IRNumber(7), arr[3], "non-object elements pass through")
	})

	t.Run("global path operand", func(t *testing.T) {
		got, err := runOne(t, ir.CalculateOp{
			ListPath: "/items", OutputField: "scaled", Operator: ir.ArithMultiply, AField: "price", BField: "/rate",
		}, inputs)
		require.NoError(t, err)
		assert.Equal(t, ir.IRNumber(20), got.(ir.IRArray)[0].(ir.IRObject)["scaled"])
	})

	t.Run("unresolvable global path counts as 0", func(t *testing.T) {
		got, err := runOne(t, ir.CalculateOp{
			ListPath: "/items", OutputField: "sum", Operator: ir.ArithAdd, AField: "price", BField: "/nope",
		}, inputs)
		require.NoError(t, err)
		assert.Equal(t, ir.IRNumber(10), got.(ir.IRArray)[0].(ir.IRObject)["sum"])
	})

	t.Run("caller inputs are not modified", func(t *testing.T) {
		_, err := runOne(t, ir.CalculateOp{
			ListPath: "/items", OutputField: "x", Operator: ir.ArithSubtract, AField: "price", BField: "qty",
		}, inputs)
		require.NoError(t, err)
		_, touched := inputs["items"].(ir.IRArray)[0].(ir.IRObject)["x"]
		assert.False(t, touched)
	})
}

func TestEngine_Aggregates(t *testing.T) {
	inputs := ir.IRObject{
		"nums":  ir.IRArray{ir.IRNumber(4), ir.IRString("9"), ir.IRNumber(-1), ir.IRNull{}},
		"objs":  ir.IRArray{ir.IRObject{"v": ir.IRNumber(2)}, ir.IRObject{"w": ir.IRNumber(100)}, ir.IRNumber(50), ir.IRObject{"v": ir.IRNumber(8)}},
		"empty": ir.IRArray{},
	}

	tests := []struct {
		name string
		op   ir.Operation
		want ir.IRValue
	}{
		{"sum elements", ir.SumOp{ListPath: "/nums"}, ir.IRNumber(3)},
		{"sum field", ir.SumOp{ListPath: "/objs", Field: ir.Field("v")}, ir.IRNumber(10)},
		{"sum empty", ir.SumOp{ListPath: "/empty"}, ir.IRNumber(0)},
		{"count", ir.CountOp{ListPath: "/nums"}, ir.IRNumber(4)},
		{"count empty", ir.CountOp{ListPath: "/empty"}, ir.IRNumber(0)},
		{"min elements", ir.MinOp{ListPath: "/nums"}, ir.IRNumber(-1)},
		{"min field", ir.MinOp{ListPath: "/objs", Field: ir.Field("v")}, ir.IRNumber(2)},
		{"max elements", ir.MaxOp{ListPath: "/nums"}, ir.IRNumber(4)},
		{"max field", ir.MaxOp{ListPath: "/objs", Field: ir.Field("v")}, ir.IRNumber(8)},
		{"min empty", ir.MinOp{ListPath: "/empty"}, ir.IRNumber(math.Inf(1))},
		{"max empty", ir.MaxOp{ListPath: "/empty"}, ir.IRNumber(math.Inf(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runOne(t, tt.op, inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_Pluck(t *testing.T) {
	inputs := ir.IRObject{"items": ir.IRArray{
		ir.IRObject{"k": ir.IRString("a")},
		ir.IRObject{"other": ir.IRNumber(1)},
		ir.IRNumber(3),
	}}

	got, err := runOne(t, ir.PluckOp{Path: "/items", Key: "k"}, inputs)
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{ir.IRString("a"), ir.IRNull{}, ir.IRNull{}}, got)
}

func TestEngine_Sort(t *testing.T) {
	inputs := ir.IRObject{"items": objs("v", 3, 1, 2)}

	asc, err := runOne(t, ir.SortOp{ListPath: "/items", Field: "v"}, inputs)
	require.NoError(t, err)
	assert.Equal(t, objs("v", 1, 2, 3), asc)

	desc, err := runOne(t, ir.SortOp{ListPath: "/items", Field: "v", Descending: true}, inputs)
	require.NoError(t, err)
	assert.Equal(t, objs("v", 3, 2, 1), desc)
}

func TestEngine_SortStabilityAndMissingFields(t *testing.T) {
	a := ir.IRObject{"v": ir.IRNumber(1), "n": ir.IRString("a")}
	b := ir.IRObject{"v": ir.IRNumber(1), "n": ir.IRString("b")}
	none := ir.IRObject{"n": ir.IRString("none")}
	inputs := ir.IRObject{"items": ir.IRArray{a, b, none}}

	asc, err := runOne(t, ir.SortOp{ListPath: "/items", Field: "v"}, inputs)
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{none, a, b}, asc, "missing field sorts as 0; ties keep input order")

	desc, err := runOne(t, ir.SortOp{ListPath: "/items", Field: "v", Descending: true}, inputs)
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{b, a, none}, desc, "descending reverses the whole ascending order")
}

func TestEngine_FilterNumeric(t *testing.T) {
	inputs := ir.IRObject{
		"nums": ir.IRArray{ir.IRNumber(1), ir.IRNumber(2), ir.IRNumber(3), ir.IRString("3")},
		"objs": ir.IRArray{ir.IRObject{"p": ir.IRNumber(5)}, ir.IRObject{"q": ir.IRNumber(5)}, ir.IRObject{"p": ir.IRNumber(1)}},
	}

	tests := []struct {
		name string
		op   ir.Operation
		want ir.IRValue
	}{
		{"gt", ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpGt, Value: 1}, ir.IRArray{ir.IRNumber(2), ir.IRNumber(3)}},
		{"lt", ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpLt, Value: 2}, ir.IRArray{ir.IRNumber(1)}},
		{"eq", ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpEq, Value: 3}, ir.IRArray{ir.IRNumber(3)}},
		{"gte", ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpGte, Value: 2}, ir.IRArray{ir.IRNumber(2), ir.IRNumber(3)}},
		{"lte", ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpLte, Value: 2}, ir.IRArray{ir.IRNumber(1), ir.IRNumber(2)}},
		{"field drops elements without it", ir.FilterNumericOp{ListPath: "/objs", Field: ir.Field("p"), Operator: ir.CmpGte, Value: 0},
			ir.IRArray{ir.IRObject{"p": ir.IRNumber(5)}, ir.IRObject{"p": ir.IRNumber(1)}}},
		{"nothing matches", ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpGt, Value: 10}, ir.IRArray{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runOne(t, tt.op, inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_FilterEqualityTolerance(t *testing.T) {
	a, b := 0.1, 0.2 // 0.30000000000000004 at run time
	inputs := ir.IRObject{"nums": ir.IRArray{ir.IRNumber(a + b)}}
	got, err := runOne(t, ir.FilterNumericOp{ListPath: "/nums", Operator: ir.CmpEq, Value: 0.3}, inputs)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEngine_FormatString(t *testing.T) {
	hello := ir.FormatStringOp{
		Template:  "Hello {name}",
		Variables: []ir.FormatVariable{{Key: "name", Path: "/inputs/name"}},
	}

	got, err := runOne(t, hello, ir.IRObject{"name": ir.IRString("Ann")})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("Hello Ann"), got)

	got, err = runOne(t, hello, ir.IRObject{})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("Hello {name}"), got)
}

func TestEngine_FormatStringRendering(t *testing.T) {
	inputs := ir.IRObject{
		"n":    ir.IRNumber(15),
		"f":    ir.IRNumber(2.5),
		"b":    ir.IRBool(false),
		"z":    ir.IRNull{},
		"list": ir.IRArray{ir.IRNumber(1), ir.IRString("x")},
		"obj":  ir.IRObject{"k": ir.IRNumber(1)},
	}
	op := ir.FormatStringOp{
		Template: "{n}|{f}|{b}|{z}|{list}|{obj}|{n}",
		Variables: []ir.FormatVariable{
			{Key: "n", Path: "/n"}, {Key: "f", Path: "/f"}, {Key: "b", Path: "/b"},
			{Key: "z", Path: "/z"}, {Key: "list", Path: "/list"}, {Key: "obj", Path: "/obj"},
		},
	}

	got, err := runOne(t, op, inputs)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString(`15|2.5|false|null|[1,"x"]|{"k":1}|15`), got)
}

func TestRenderText_NonFinite(t *testing.T) {
	assert.Equal(t, "+Inf", RenderText(ir.IRNumber(math.Inf(1))))
	assert.Equal(t, "-Inf", RenderText(ir.IRNumber(math.Inf(-1))))
}

func TestEngine_OutputExtraction(t *testing.T) {
	t.Run("keeps only declared keys", func(t *testing.T) {
		p := program([]string{"total", "never_written"},
			step("a", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/total"),
			step("b", ir.ConstantOp{Value: ir.NumberLiteral(2)}, "/scratch"),
		)
		res, err := newTestEngine().Run(p, ir.IRObject{})
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.Equal(t, ir.IRObject{"total": ir.IRNumber(1)}, res.Output)
	})

	t.Run("property name resolved as pointer", func(t *testing.T) {
		p := program([]string{"temp/x"},
			step("a", ir.ConstantOp{Value: ir.TextLiteral("v")}, "/temp/x"),
		)
		res, err := newTestEngine().Run(p, ir.IRObject{})
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.Equal(t, ir.IRObject{"temp/x": ir.IRString("v")}, res.Output)
	})

	t.Run("no match degrades to whole document", func(t *testing.T) {
		p := program([]string{"total"},
			step("a", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/temp/total"),
		)
		res, err := newTestEngine().Run(p, ir.IRObject{"x": ir.IRNumber(1)})
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.Equal(t, ir.IRObject{
			"inputs": ir.IRObject{"x": ir.IRNumber(1)},
			"temp":   ir.IRObject{"total": ir.IRNumber(1)},
		}, res.Output)
	})

	t.Run("missing schema degrades", func(t *testing.T) {
		p := &ir.Program{
			Definition: ir.Definition{Name: "bare", OutputSchema: ir.IRNull{}},
			Steps:      []ir.Step{step("a", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/total")},
		}
		res, err := newTestEngine().Run(p, ir.IRObject{})
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.Contains(t, res.Output.(ir.IRObject), "total")
	})
}

func TestEngine_AbortsOnFirstFailure(t *testing.T) {
	obs := &recordingObserver{}
	p := program([]string{"a", "c"},
		step("a", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/a"),
		step("b", ir.GetOp{Path: "/missing"}, "/b"),
		step("c", ir.ConstantOp{Value: ir.NumberLiteral(3)}, "/c"),
	)

	res, err := newTestEngine(WithObserver(obs)).Run(p, ir.IRObject{})
	require.Error(t, err)
	assert.Nil(t, res)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.StepIndex)
	assert.Equal(t, "b", ee.StepID)
	assert.Equal(t, ErrCodePathNotFound, ee.Code)
	assert.Contains(t, err.Error(), "step 1 (id=b, op=get)")

	require.Len(t, obs.steps, 2, "step c must not run")
	assert.NoError(t, obs.steps[0].Err)
	assert.Error(t, obs.steps[1].Err)
	require.Len(t, obs.runs, 1)
	assert.Equal(t, 1, obs.runs[0].Steps)
	assert.Equal(t, "path_not_found", Outcome(obs.runs[0].Degraded, obs.runs[0].Err))
}

func TestEngine_RunTrace(t *testing.T) {
	p := program([]string{"total"},
		step("prices", ir.PluckOp{Path: "/items", Key: "v"}, "/temp/prices"),
		step("total", ir.SumOp{ListPath: "/temp/prices"}, "/total"),
	)
	res, err := newTestEngine().Run(p, ir.IRObject{"items": objs("v", 1, 2)})
	require.NoError(t, err)

	assert.Equal(t, []StepRecord{
		{Index: 0, ID: "prices", Op: "pluck", OutputPath: "/temp/prices"},
		{Index: 1, ID: "total", Op: "sum", OutputPath: "/total"},
	}, res.Steps)
	assert.Equal(t, ir.IRObject{"total": ir.IRNumber(3)}, res.Output)
}

func TestEngine_LaterStepsSeeEarlierWrites(t *testing.T) {
	p := program([]string{"result"},
		step("a", ir.ConstantOp{Value: ir.NumberLiteral(2)}, "/temp/a"),
		step("b", ir.MultiplyOp{A: "/temp/a", B: "/factor"}, "/temp/b"),
		step("c", ir.AddOp{A: "/temp/b", B: "/temp/a"}, "/result"),
	)
	out, err := newTestEngine().Execute(p, ir.IRObject{"factor": ir.IRNumber(5)})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"result": ir.IRNumber(12)}, out)
}

func TestEngine_MaxSteps(t *testing.T) {
	p := program([]string{"a"},
		step("a", ir.ConstantOp{Value: ir.NumberLiteral(1)}, "/a"),
		step("b", ir.ConstantOp{Value: ir.NumberLiteral(2)}, "/b"),
	)

	_, err := newTestEngine(WithMaxSteps(1)).Execute(p, ir.IRObject{})
	require.Error(t, err)
	assert.True(t, IsStepLimitExceeded(err))

	_, err = newTestEngine(WithMaxSteps(2)).Execute(p, ir.IRObject{})
	assert.NoError(t, err)

	_, err = newTestEngine(WithMaxSteps(0)).Execute(p, ir.IRObject{})
	assert.NoError(t, err, "0 means unlimited")
}

func TestEngine_UnknownOperation(t *testing.T) {
	p := program([]string{"a"}, ir.Step{ID: "broken", OutputPath: "/a"})
	_, err := newTestEngine().Execute(p, ir.IRObject{})
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownOperation, CodeOf(err))
}

func TestEngine_NilProgram(t *testing.T) {
	_, err := newTestEngine().Execute(nil, ir.IRObject{})
	assert.Error(t, err)
}

func TestEngine_ConcurrentExecutions(t *testing.T) {
	eng := newTestEngine()
	p := program([]string{"total"},
		step("line", ir.CalculateOp{ListPath: "/items", OutputField: "line", Operator: ir.ArithMultiply, AField: "v", BField: "v"}, "/temp/lines"),
		step("total", ir.SumOp{ListPath: "/temp/lines", Field: ir.Field("line")}, "/total"),
	)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n float64) {
			defer wg.Done()
			out, err := eng.Execute(p, ir.IRObject{"items": objs("v", n, n)})
			assert.NoError(t, err)
			assert.Equal(t, ir.IRObject{"total": ir.IRNumber(2 * n * n)}, out)
		}(float64(i))
	}
	wg.Wait()
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(false, nil))
	assert.Equal(t, "degraded", Outcome(true, nil))
	assert.Equal(t, "division_by_zero", Outcome(false, &ExecutionError{Code: ErrCodeDivisionByZero}))
	assert.Equal(t, "error", Outcome(false, assert.AnError))
}

type recordingObserver struct {
	mu    sync.Mutex
	steps []StepEvent
	runs  []RunEvent
}

func (o *recordingObserver) ObserveStep(e StepEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, e)
}

func (o *recordingObserver) ObserveRun(e RunEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, e)
}
