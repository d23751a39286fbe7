package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// UnmarshalIRValue decodes exactly one JSON value. Every number becomes an
// IRNumber; trailing data is an error.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty or truncated JSON value")
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (IRValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return IRNull{}, nil
	case bool:
		return IRBool(t), nil
	case string:
		return IRString(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON number %s: %w", t, err)
		}
		return IRNumber(f), nil
	case json.Delim:
		if t == '[' {
			return decodeArray(dec)
		}
		return decodeObject(dec)
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeArray(dec *json.Decoder) (IRValue, error) {
	arr := IRArray{}
	for dec.More() {
		elem, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func decodeObject(dec *json.Decoder) (IRValue, error) {
	obj := IRObject{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string) // the decoder only yields string keys inside objects
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", key, err)
		}
		obj[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (obj *IRObject) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case IRObject:
		*obj = val
	case IRNull:
		*obj = nil
	default:
		return fmt.Errorf("expected JSON object, got %s", TypeName(v))
	}
	return nil
}

func (arr *IRArray) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case IRArray:
		*arr = val
	case IRNull:
		*arr = nil
	default:
		return fmt.Errorf("expected JSON array, got %s", TypeName(v))
	}
	return nil
}

// MarshalIRValue encodes v as compact JSON with sorted keys. Strings are
// escaped the way encoding/json escapes them; use MarshalCanonical for
// hashing and byte comparison.
func MarshalIRValue(v IRValue) ([]byte, error) {
	return appendJSON(nil, v, false)
}

func (IRNull) MarshalJSON() ([]byte, error)       { return []byte("null"), nil }
func (n IRNumber) MarshalJSON() ([]byte, error)   { return appendJSON(nil, n, false) }
func (arr IRArray) MarshalJSON() ([]byte, error)  { return appendJSON(nil, arr, false) }
func (obj IRObject) MarshalJSON() ([]byte, error) { return appendJSON(nil, obj, false) }

// appendJSON is the single encoder behind both MarshalIRValue and
// MarshalCanonical; canonical selects the RFC 8785 string form.
func appendJSON(dst []byte, v IRValue, canonical bool) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return append(dst, "null"...), nil
	case IRBool:
		return strconv.AppendBool(dst, bool(val)), nil
	case IRNumber:
		return append(dst, formatJSONNumber(float64(val))...), nil
	case IRString:
		return appendString(dst, string(val), canonical)
	case IRArray:
		dst = append(dst, '[')
		for i, elem := range val {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendJSON(dst, elem, canonical); err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		return append(dst, ']'), nil
	case IRObject:
		dst = append(dst, '{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendString(dst, k, canonical); err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			dst = append(dst, ':')
			if dst, err = appendJSON(dst, val[k], canonical); err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		return append(dst, '}'), nil
	}
	return nil, fmt.Errorf("unknown IRValue type: %T", v)
}

func appendString(dst []byte, s string, canonical bool) ([]byte, error) {
	if canonical {
		b, err := marshalCanonicalString(s)
		if err != nil {
			return nil, err
		}
		return append(dst, b...), nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

// formatJSONNumber is FormatNumber with null for the values JSON cannot
// represent.
func formatJSONNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	return FormatNumber(f)
}

// FormatNumber renders f as the shortest decimal that round-trips. Like
// encoding/json it switches to exponent form below 1e-6 and from 1e21 up,
// and trims the exponent's leading zero ("1e-9", not "1e-09").
// Infinities render as "+Inf" and "-Inf", NaN as "NaN".
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}

	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		b := strconv.AppendFloat(nil, f, 'e', -1, 64)
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b = append(b[:n-2], b[n-1])
		}
		return string(b)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
