package ir

import (
	"encoding/json"
	"fmt"
)

// FromAny converts the generic values produced by encoding/json, yaml.v3
// and CUE decoding into an IRValue. Every numeric kind becomes IRNumber.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case float64:
		return IRNumber(val), nil
	case float32:
		return IRNumber(val), nil
	case int:
		return IRNumber(val), nil
	case int32:
		return IRNumber(val), nil
	case int64:
		return IRNumber(val), nil
	case uint64:
		return IRNumber(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return IRNumber(f), nil
	case []any:
		return arrayFromAny(val)
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			if err := setFromAny(obj, k, elem); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case map[any]any:
		// yaml.v3 produces these for mappings nested under interface values
		obj := make(IRObject, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v: keys must be strings", k)
			}
			if err := setFromAny(obj, key, elem); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported type: %T", v)
}

func arrayFromAny(val []any) (IRArray, error) {
	arr := make(IRArray, len(val))
	for i, elem := range val {
		converted, err := FromAny(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		arr[i] = converted
	}
	return arr, nil
}

func setFromAny(obj IRObject, key string, elem any) error {
	converted, err := FromAny(elem)
	if err != nil {
		return fmt.Errorf("object[%q]: %w", key, err)
	}
	obj[key] = converted
	return nil
}
