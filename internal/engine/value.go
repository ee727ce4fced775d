// Package engine evaluates parsed statements against in-memory record
// sets: expression evaluation, procedural control flow, user functions,
// and the fetch/filter/group/project pipeline.
//
// Null rule, applied uniformly: a missing field reads as nil; any
// comparison against nil is false; arithmetic with a nil operand yields
// nil; SUM and AVG coerce non-numeric inputs to 0; MIN and MAX skip
// them; COUNT counts non-nil values.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// toFloat coerces a value to float64. The bool result reports whether
// the value was numeric (or a numeric string).
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toString renders a value for display, concatenation, and group keys.
// Whole floats print without a decimal part so ids and counts read
// naturally.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		if s {
			return "true"
		}
		return "false"
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// truthy reports whether a value counts as true in a condition.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "", "false", "0":
			return false
		}
		return true
	default:
		return true
	}
}

// isNull reports whether a value is null for IS NULL and COUNT purposes.
// An empty string field value counts as null, matching how forms store
// cleared fields.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// equalValues compares two values for =, IN, and DISTINCT purposes.
// Numeric values compare numerically so 5 = 5.0; everything else
// compares by rendered string.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return toString(a) == toString(b)
}

// compareValues orders two values: -1, 0, or 1. The bool result is
// false when either side is nil, which makes every ordered comparison
// against null false.
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1, true
			case at.After(bt):
				return 1, true
			}
			return 0, true
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	return strings.Compare(toString(a), toString(b)), true
}

// rowKey renders a projected row into a single string for DISTINCT
// comparisons. The separator cannot appear in rendered values.
func rowKey(cells []any) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			parts[i] = "\x00"
			continue
		}
		parts[i] = toString(c)
	}
	return strings.Join(parts, "\x1f")
}
