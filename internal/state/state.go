package state

import (
	"fmt"

	"github.com/roach88/foldr/internal/ir"
)

// Root section names.
const (
	SectionInputs = "inputs"
	SectionTemp   = "temp"
)

// State is the mutable document of a single execution.
type State struct {
	doc ir.IRValue
}

// New builds a fresh state seeded with a copy of inputs.
// The caller's value is never modified by later writes.
func New(inputs ir.IRValue) *State {
	return &State{
		doc: ir.IRObject{
			SectionInputs: ir.Clone(inputs),
			SectionTemp:   ir.IRObject{},
		},
	}
}

// Get reads the value at path.
//
// Resolution order:
//  1. path against the whole document
//  2. "/inputs" + path, when path is non-empty
//
// The returned value is a deep copy and never aliases the document.
func (s *State) Get(path string) (ir.IRValue, error) {
	if tokens, err := ParsePointer(path); err == nil {
		if v, ok := Lookup(s.doc, tokens); ok {
			return ir.Clone(v), nil
		}
	}

	if path != "" && path[0] == '/' {
		tokens, err := ParsePointer("/" + SectionInputs + path)
		if err == nil {
			if v, ok := Lookup(s.doc, tokens); ok {
				return ir.Clone(v), nil
			}
		}
	}

	return nil, s.notFound(path)
}

// Set writes value at path.
//
// A path that already resolves is replaced in place; the empty path replaces
// the whole document. Otherwise:
//   - "/key" creates or overwrites a root key (key must be non-empty)
//   - "/section/key" creates the section object if missing, then sets key
//     inside it; a section that exists but is not an object is a collision
//
// Every other unresolved path fails with *InvalidWritePathError.
func (s *State) Set(path string, value ir.IRValue) error {
	tokens, err := ParsePointer(path)
	if err != nil {
		return &InvalidWritePathError{Path: path, Reason: err.Error()}
	}

	if doc, ok := Replace(s.doc, tokens, value); ok {
		s.doc = doc
		return nil
	}

	root, ok := s.doc.(ir.IRObject)
	if !ok {
		return &InvalidWritePathError{
			Path:   path,
			Reason: fmt.Sprintf("document root is %s, not object", ir.TypeName(s.doc)),
		}
	}

	switch len(tokens) {
	case 1:
		if tokens[0] == "" {
			return &InvalidWritePathError{Path: path, Reason: "root key must not be empty"}
		}
		root[tokens[0]] = value
		return nil

	case 2:
		section, key := tokens[0], tokens[1]
		existing, exists := root[section]
		if !exists {
			root[section] = ir.IRObject{key: value}
			return nil
		}
		obj, ok := existing.(ir.IRObject)
		if !ok {
			return &InvalidWritePathError{
				Path:   path,
				Reason: fmt.Sprintf("section %q is %s, not object", section, ir.TypeName(existing)),
			}
		}
		obj[key] = value
		return nil

	default:
		return &InvalidWritePathError{
			Path:   path,
			Reason: fmt.Sprintf("new paths may be at most 2 segments deep, got %d", len(tokens)),
		}
	}
}

// Document returns the live document. Callers must not modify it.
func (s *State) Document() ir.IRValue {
	return s.doc
}

// RootKeys returns the document's root keys in canonical order, or nil when
// the root is not an object.
func (s *State) RootKeys() []string {
	if root, ok := s.doc.(ir.IRObject); ok {
		return root.SortedKeys()
	}
	return nil
}

// InputKeys returns the keys of the inputs section, or nil when the section
// is missing or not an object.
func (s *State) InputKeys() []string {
	root, ok := s.doc.(ir.IRObject)
	if !ok {
		return nil
	}
	if inputs, ok := root[SectionInputs].(ir.IRObject); ok {
		return inputs.SortedKeys()
	}
	return nil
}

func (s *State) notFound(path string) *PathNotFoundError {
	return &PathNotFoundError{
		Path:      path,
		RootKeys:  s.RootKeys(),
		InputKeys: s.InputKeys(),
	}
}
