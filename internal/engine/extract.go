package engine

import (
	"github.com/roach88/foldr/internal/ir"
	"github.com/roach88/foldr/internal/state"
)

// extractOutput selects the final result from the document.
//
// Every property name declared by the output schema is looked up first as a
// root key and then as the pointer "/" + name. Matches form the result.
// When nothing matches (no schema, no properties, or no key written) the
// whole document is returned and degraded is true.
func extractOutput(def ir.Definition, st *state.State) (output ir.IRValue, degraded bool) {
	doc := st.Document()
	root, _ := doc.(ir.IRObject)

	out := ir.IRObject{}
	for _, key := range def.OutputKeys() {
		if v, ok := root[key]; ok {
			out[key] = ir.Clone(v)
			continue
		}
		tokens, err := state.ParsePointer("/" + key)
		if err != nil {
			continue
		}
		if v, ok := state.Lookup(doc, tokens); ok {
			out[key] = ir.Clone(v)
		}
	}

	if len(out) > 0 {
		return out, false
	}
	return ir.Clone(doc), true
}
