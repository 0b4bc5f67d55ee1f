package badges

import (
	"strings"
	"time"
)

// sentinelThirtyDaysAgo is the only recognized dynamic value sentinel
// (§4.4): a temporal field compared against "30_days_ago" resolves that
// string to now-30d at evaluation time.
const sentinelThirtyDaysAgo = "30_days_ago"

// resolveFieldPath walks doc following the dot-separated segments of path,
// returning (value, true) if every segment resolved, else (nil, false). A
// plain loop over the segments — no reflection.
func resolveFieldPath(doc map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = doc
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Evaluate resolves c.FieldPath against doc and applies c.Operator. A
// missing field path always evaluates to false.
func (c Condition) Evaluate(doc map[string]any) bool {
	actual, ok := resolveFieldPath(doc, c.FieldPath)
	if !ok {
		return false
	}
	return evaluateOperator(actual, c.Operator, resolveValue(c.Value))
}

// resolveValue expands the "30_days_ago" sentinel to a concrete timestamp;
// every other value passes through unchanged.
func resolveValue(v any) any {
	if s, ok := v.(string); ok && s == sentinelThirtyDaysAgo {
		return time.Now().AddDate(0, 0, -30)
	}
	return v
}

func evaluateOperator(actual any, op Operator, want any) bool {
	switch op {
	case OpBetween:
		bounds, ok := want.([]any)
		if !ok || len(bounds) != 2 {
			return false
		}
		lo, hi := toFloat(bounds[0]), toFloat(bounds[1])
		a := toFloat(actual)
		return a >= lo && a <= hi
	case OpIn:
		return membership(actual, want, true)
	case OpNotIn:
		return membership(actual, want, false)
	case OpEQ:
		return compare(actual, want) == 0
	case OpNE:
		return compare(actual, want) != 0
	case OpGT:
		return compare(actual, want) > 0
	case OpGTE:
		return compare(actual, want) >= 0
	case OpLT:
		return compare(actual, want) < 0
	case OpLTE:
		return compare(actual, want) <= 0
	default:
		return false
	}
}

func membership(actual, set any, wantMember bool) bool {
	items, ok := set.([]any)
	if !ok {
		return false
	}
	found := false
	for _, item := range items {
		if compare(actual, item) == 0 {
			found = true
			break
		}
	}
	return found == wantMember
}

// compare orders two dynamic values: numerically if both look numeric,
// chronologically if both look like times, lexically otherwise.
func compare(a, b any) int {
	if at, aok := asTime(a); aok {
		if bt, bok := asTime(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	if isNumeric(a) && isNumeric(b) {
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := toString(a), toString(b)
	return strings.Compare(as, bs)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
