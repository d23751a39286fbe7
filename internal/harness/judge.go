package harness

import (
	"github.com/roach88/foldr/internal/engine"
	"github.com/roach88/foldr/internal/ir"
)

// judge turns one execution into a FixtureResult.
func judge(fx Fixture, res *engine.Result, runErr error) FixtureResult {
	out := FixtureResult{Name: fx.Name, Input: fx.Input}

	if runErr != nil {
		out.ErrorCode = string(engine.CodeOf(runErr))
		out.Error = runErr.Error()
		return out
	}

	out.Output = res.Output
	out.Degraded = res.Degraded
	out.MissingKeys = missingKeys(res.Output, fx.ExpectedOutputKeys)
	out.Pass = !res.Degraded && len(out.MissingKeys) == 0
	return out
}

// missingKeys returns the expected keys absent from output, in expected
// order. A non-object output is missing every key.
func missingKeys(output ir.IRValue, expected []string) []string {
	obj, _ := output.(ir.IRObject)
	var missing []string
	for _, k := range expected {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
