package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/foldr/internal/ir"
)

// ParsePointer splits a JSON pointer into unescaped reference tokens.
// The empty pointer addresses the whole document and yields no tokens.
// Any other pointer must start with "/".
func ParsePointer(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if path[0] != '/' {
		return nil, fmt.Errorf("pointer %q must be empty or start with '/'", path)
	}

	tokens := strings.Split(path[1:], "/")
	for i, tok := range tokens {
		tokens[i] = unescapeToken(tok)
	}
	return tokens, nil
}

// unescapeToken applies RFC 6901 decoding. "~1" must be handled before "~0"
// so that "~01" decodes to "~1" rather than "/".
func unescapeToken(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}

// EscapeToken encodes a single object key for use in a pointer.
func EscapeToken(key string) string {
	if !strings.ContainsAny(key, "~/") {
		return key
	}
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

// arrayIndex parses a canonical array index token ("0", "1", "42"; no sign,
// no leading zeros) and checks it against length.
func arrayIndex(tok string, length int) (int, bool) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(tok)
	if err != nil || idx >= length {
		return 0, false
	}
	return idx, true
}

// Lookup resolves tokens against doc. The result aliases doc.
func Lookup(doc ir.IRValue, tokens []string) (ir.IRValue, bool) {
	cur := doc
	for _, tok := range tokens {
		switch node := cur.(type) {
		case ir.IRObject:
			next, ok := node[tok]
			if !ok {
				return nil, false
			}
			cur = next
		case ir.IRArray:
			idx, ok := arrayIndex(tok, len(node))
			if !ok {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return ir.IRNull{}, true
	}
	return cur, true
}

// Replace writes value at an existing location and returns the (possibly new)
// root. Only locations that already resolve can be replaced; ok is false
// otherwise and doc is left untouched. With no tokens the value itself
// becomes the new root.
//
// Containers along the path are modified in place.
func Replace(doc ir.IRValue, tokens []string, value ir.IRValue) (ir.IRValue, bool) {
	if len(tokens) == 0 {
		return value, true
	}

	parent, ok := Lookup(doc, tokens[:len(tokens)-1])
	if !ok {
		return doc, false
	}

	last := tokens[len(tokens)-1]
	switch node := parent.(type) {
	case ir.IRObject:
		if _, exists := node[last]; !exists {
			return doc, false
		}
		node[last] = value
		return doc, true
	case ir.IRArray:
		idx, ok := arrayIndex(last, len(node))
		if !ok {
			return doc, false
		}
		node[idx] = value
		return doc, true
	default:
		return doc, false
	}
}
