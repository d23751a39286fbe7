package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/foldr/internal/ir"
)

// marshalValue converts an IRValue to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalValue(v ir.IRValue) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// marshalOutput is marshalValue for a nullable column. A nil output (failed
// run) is stored as SQL NULL, distinct from a JSON null output.
func marshalOutput(v ir.IRValue) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	s, err := marshalValue(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// unmarshalValue parses stored JSON TEXT into an IRValue.
func unmarshalValue(data string) (ir.IRValue, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

func unmarshalOutput(ns sql.NullString) (ir.IRValue, error) {
	if !ns.Valid {
		return nil, nil
	}
	return unmarshalValue(ns.String)
}

// marshalProgram stores a program as canonical JSON of its wire form.
func marshalProgram(p *ir.Program) (string, error) {
	v, err := ir.ProgramValue(p)
	if err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	return marshalValue(v)
}

func unmarshalProgram(data string) (*ir.Program, error) {
	p, err := ir.UnmarshalProgram([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	return p, nil
}
