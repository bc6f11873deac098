package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// ToString renders a value the way a JSON consumer expects: integral
// numbers without a fraction, booleans as true/false.
func ToString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	}

	if f, ok := analyze.NormalizeNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}

	return fmt.Sprint(v), true
}

// ToNumber converts numbers, numeric strings and booleans to float64.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}

		return 0, true
	}

	return analyze.NormalizeNumber(v)
}

// ToBool converts a value to a boolean. Strings parse as booleans when they
// can, otherwise any non-empty string is true. Numbers are true unless zero.
func ToBool(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b, true
		}

		return t != "", true
	}

	if f, ok := analyze.NormalizeNumber(v); ok {
		return f != 0, true
	}

	return false, false
}

// Convert casts v to the named kind. Non-scalar kinds pass v through.
func Convert(v any, kind string) (any, bool) {
	switch kind {
	case analyze.KindString.String():
		return ToString(v)
	case analyze.KindNumber.String():
		return ToNumber(v)
	case analyze.KindBoolean.String():
		return ToBool(v)
	default:
		return v, v != nil
	}
}

// Compare applies a comparison operator.
func Compare(value float64, op string, threshold float64) bool {
	switch op {
	case mapping.OpGreater:
		return value > threshold
	case mapping.OpLess:
		return value < threshold
	case mapping.OpLessOrEqual:
		return value <= threshold
	default:
		return value >= threshold
	}
}
