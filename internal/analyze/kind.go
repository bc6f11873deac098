package analyze

import (
	"encoding/json"
	"fmt"
	"reflect"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind is the JSON type of a leaf value.
type Kind int

const (
	KindNull    Kind = iota // null
	KindString              // string
	KindNumber              // number
	KindBoolean             // boolean
	KindArray               // array
	KindObject              // object
)

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := KindNull; k <= KindObject; k++ {
		if k.String() == s {
			return k, nil
		}
	}

	return KindNull, fmt.Errorf("unknown kind %q", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// IsScalar reports whether values of this kind are compared by value.
func (k Kind) IsScalar() bool {
	return k == KindString || k == KindNumber || k == KindBoolean
}

// KindOf classifies a Go value holding decoded JSON.
// The second result is false for values that have no JSON representation.
func KindOf(v any) (Kind, bool) {
	switch t := v.(type) {
	case nil:
		return KindNull, true
	case string:
		return KindString, true
	case bool:
		return KindBoolean, true
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber, true
	case *Object:
		if t == nil {
			return KindNull, true
		}

		return KindObject, true
	case map[string]any:
		return KindObject, true
	case []any:
		return KindArray, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray, true
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindObject, true
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return KindNull, true
		}

		return KindOf(rv.Elem().Interface())
	default:
	}

	return KindNull, false
}

// NormalizeNumber converts any numeric Go value to float64.
func NormalizeNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
