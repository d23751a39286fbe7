package engine

import (
	"strings"

	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/state"
)

// formatString substitutes every "{key}" occurrence in the template.
// Variables whose path does not resolve leave their placeholder untouched.
// Variables apply in order, so text inserted by one variable can be
// replaced by a later one.
func formatString(st *state.State, o ir.FormatStringOp) string {
	result := o.Template
	for _, v := range o.Variables {
		val, err := st.Get(v.Path)
		if err != nil {
			continue
		}
		result = strings.ReplaceAll(result, "{"+v.Key+"}", RenderText(val))
	}
	return result
}

// RenderText returns the natural text form of a value: strings verbatim,
// numbers as decimal text, booleans as true/false and everything else as
// compact JSON.
func RenderText(v ir.IRValue) string {
	switch val := v.(type) {
	case ir.IRString:
		return string(val)
	case ir.IRNumber:
		return ir.FormatNumber(float64(val))
	case ir.IRBool:
		if val {
			return "true"
		}
		return "false"
	default:
		data, err := ir.MarshalIRValue(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
