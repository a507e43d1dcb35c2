// internal/filter/evaluate.go
package filter

/*
 * Expression evaluation against Filterable records.
 *
 * Evaluation is pure: records are only read through FieldValue, and no
 * combination of operator and value shapes can fail. A field the record does
 * not know behaves as permanently null, so it satisfies IS NULL and nothing
 * else (not even != or IS NOT NULL).
 *
 * AND and OR short-circuit left to right.
 */

// Matches reports whether item satisfies c.
func (c Condition) Matches(item Filterable) bool {
	field, ok := item.FieldValue(c.Field)
	if !ok {
		return c.Operator == OpIsNull
	}
	return compare(c.Operator, field, c.Value)
}

// Matches reports whether item does not satisfy the child expression.
func (n Not) Matches(item Filterable) bool {
	return !n.Expr.Matches(item)
}

// Matches evaluates the left side, then the right side only when needed.
func (c Compound) Matches(item Filterable) bool {
	switch c.Op {
	case And:
		return c.Left.Matches(item) && c.Right.Matches(item)
	case Or:
		return c.Left.Matches(item) || c.Right.Matches(item)
	default:
		return false
	}
}

// Matches reports whether item satisfies expr. A nil expr matches everything.
func Matches(expr Expr, item Filterable) bool {
	if expr == nil {
		return true
	}
	return expr.Matches(item)
}

// FilterItems returns the items satisfying expr in input order.
// The input slice is not modified; the result shares no backing array with it.
func FilterItems[T Filterable](items []T, expr Expr) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(expr, item) {
			out = append(out, item)
		}
	}
	return out
}
