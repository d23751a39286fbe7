package ir

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// IRValue is a JSON-shaped value. The set of implementations is closed:
// IRNull, IRString, IRNumber, IRBool, IRArray and IRObject. A nil IRValue
// is treated as null everywhere.
type IRValue interface {
	irValue()
}

type (
	IRNull   struct{}
	IRString string
	IRBool   bool

	// IRNumber is always a float64. Min and Max of an empty array produce
	// infinities, which have no JSON form and encode as null.
	IRNumber float64

	IRArray []IRValue

	// IRObject has no key order of its own; iterate with SortedKeys.
	IRObject map[string]IRValue
)

func (IRNull) irValue()   {}
func (IRString) irValue() {}
func (IRNumber) irValue() {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// SortedKeys returns the keys ordered by UTF-16 code units, the order
// canonical JSON requires. It differs from byte order for characters
// outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

func AsNumber(v IRValue) (float64, bool) {
	n, ok := v.(IRNumber)
	return float64(n), ok
}

func AsArray(v IRValue) (IRArray, bool) {
	arr, ok := v.(IRArray)
	return arr, ok
}

func AsObject(v IRValue) (IRObject, bool) {
	obj, ok := v.(IRObject)
	return obj, ok
}

// TypeName names v's JSON type for error messages.
func TypeName(v IRValue) string {
	switch v.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return "string"
	case IRNumber:
		return "number"
	case IRBool:
		return "boolean"
	case IRArray:
		return "array"
	case IRObject:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// Clone deep-copies arrays and objects so the copy can be mutated freely.
// A nil value clones to IRNull.
func Clone(v IRValue) IRValue {
	switch val := v.(type) {
	case nil:
		return IRNull{}
	case IRArray:
		out := make(IRArray, len(val))
		for i := range val {
			out[i] = Clone(val[i])
		}
		return out
	case IRObject:
		out := make(IRObject, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	}
	return v
}
