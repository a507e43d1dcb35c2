// internal/filter/operators.go
package filter

import (
	"regexp"
	"strings"
	"sync"
)

/*
 * Operator semantics over (FieldValue, Value) pairs.
 *
 * Every pair has a defined outcome; shapes an operator does not support
 * evaluate to false rather than erroring.
 *
 *   =, !=          text (case-insensitive), date, bool, int; list field vs
 *                  string literal matches any element. != is the negation of =.
 *   < <= > >=      dates only
 *   LIKE           text fields, string literal, % any run, _ one character
 *   CONTAINS       substring on text fields, element membership on lists
 *   IN             list literal; text value or any list element in the list
 *   IS [NOT] NULL  optional field without a value
 *
 * Text comparisons fold case. Null optional fields only satisfy IS NULL and !=.
 */

// compare applies op to a present field value.
func compare(op Operator, field FieldValue, lit Value) bool {
	switch op {
	case OpEq:
		return compareEqual(field, lit)
	case OpNeq:
		return !compareEqual(field, lit)
	case OpLt:
		return compareDates(field, lit, func(c int) bool { return c < 0 })
	case OpLte:
		return compareDates(field, lit, func(c int) bool { return c <= 0 })
	case OpGt:
		return compareDates(field, lit, func(c int) bool { return c > 0 })
	case OpGte:
		return compareDates(field, lit, func(c int) bool { return c >= 0 })
	case OpLike:
		return compareLike(field, lit)
	case OpContains:
		return compareContains(field, lit)
	case OpIn:
		return compareIn(field, lit)
	case OpIsNull:
		return field.IsNull()
	case OpIsNotNull:
		return !field.IsNull()
	default:
		return false
	}
}

func compareEqual(field FieldValue, lit Value) bool {
	switch lit.Kind {
	case ValueString:
		if s, ok := field.Text(); ok {
			return strings.EqualFold(s, lit.Str)
		}
		return field.ListContains(lit.Str)
	case ValueDate:
		d, ok := field.AsDate()
		return ok && d == lit.Date
	case ValueBool:
		return field.Kind == FieldBool && field.Bool == lit.Bool
	case ValueInt:
		return field.Kind == FieldInt && field.Int == lit.Int
	default:
		return false
	}
}

// compareDates orders a date field against a date literal.
func compareDates(field FieldValue, lit Value, accept func(int) bool) bool {
	if lit.Kind != ValueDate {
		return false
	}
	d, ok := field.AsDate()
	if !ok {
		return false
	}
	return accept(d.Compare(lit.Date))
}

func compareLike(field FieldValue, lit Value) bool {
	if lit.Kind != ValueString {
		return false
	}
	s, ok := field.Text()
	if !ok {
		return false
	}
	return likePattern(lit.Str).MatchString(s)
}

func compareContains(field FieldValue, lit Value) bool {
	if lit.Kind != ValueString {
		return false
	}
	return field.ContainsText(lit.Str)
}

func compareIn(field FieldValue, lit Value) bool {
	if lit.Kind != ValueList {
		return false
	}
	if s, ok := field.Text(); ok {
		for _, item := range lit.List {
			if strings.EqualFold(s, item) {
				return true
			}
		}
		return false
	}
	for _, item := range lit.List {
		if field.ListContains(item) {
			return true
		}
	}
	return false
}

// maxCachedPatterns bounds likeCache; patterns past the bound are compiled per call.
const maxCachedPatterns = 1024

// likeCache holds compiled LIKE patterns keyed by the raw pattern text.
var likeCache = struct {
	sync.RWMutex
	m map[string]*regexp.Regexp
}{m: make(map[string]*regexp.Regexp)}

// likePattern compiles a LIKE pattern into an anchored, case-insensitive
// regular expression. Characters other than % and _ match literally.
func likePattern(pattern string) *regexp.Regexp {
	likeCache.RLock()
	re, ok := likeCache.m[pattern]
	likeCache.RUnlock()
	if ok {
		return re
	}

	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	// QuoteMeta output always compiles.
	re = regexp.MustCompile(b.String())

	likeCache.Lock()
	if len(likeCache.m) < maxCachedPatterns {
		likeCache.m[pattern] = re
	}
	likeCache.Unlock()
	return re
}
