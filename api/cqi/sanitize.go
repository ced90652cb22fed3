package cqi

import (
	"math"
	"reflect"
	"strconv"
)

// SanitizeCount normalizes a failure-count aggregate for client output.
// nil, NaN, infinities and non-numeric values become 0, and negative counts
// are clamped to 0.
func SanitizeCount(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// SanitizeContribution normalizes a contribution-index aggregate. Same
// handling as SanitizeCount except the sign is preserved: negative
// contributions are meaningful (better than target).
func SanitizeContribution(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toFloat coerces the generic scan values the executor produces. Pointers
// from Nullable columns are dereferenced; nil pointers report not-ok.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, false
		}
		return toFloat(rv.Elem().Interface())
	}
	return 0, false
}
