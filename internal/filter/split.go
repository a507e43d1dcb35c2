// internal/filter/split.go
package filter

import "strings"

// LogicalOp joins the two sides of a Compound expression.
type LogicalOp int

const (
	And LogicalOp = iota + 1
	Or
)

// String returns the query keyword for op.
func (op LogicalOp) String() string {
	switch op {
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return "?"
	}
}

// findMatchingParen returns the index of the ')' closing the '(' at s[0],
// or -1 when it is never closed.
func findMatchingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitLogical splits query at its first top-level " OR ", or failing that
// its first top-level " AND ". The whole string is searched for OR before AND
// is considered, so "a AND b OR c" yields ("a AND b", Or, "c"). Chains split
// at their first connector and nest to the right: "a OR b OR c" is
// a OR (b OR c).
func splitLogical(query string) (left string, op LogicalOp, right string, ok bool) {
	upper := upperASCII(query)
	if i := findTopLevel(query, upper, " OR "); i >= 0 {
		return query[:i], Or, query[i+len(" OR "):], true
	}
	if i := findTopLevel(query, upper, " AND "); i >= 0 {
		return query[:i], And, query[i+len(" AND "):], true
	}
	return "", 0, "", false
}

// findTopLevel returns the first index where upper has keyword outside any
// parentheses, or -1.
func findTopLevel(query, upper, keyword string) int {
	depth := 0
	for i := 0; i < len(query); i++ {
		switch query[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(upper[i:], keyword) {
			return i
		}
	}
	return -1
}
