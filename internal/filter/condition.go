// internal/filter/condition.go
package filter

import (
	"fmt"
	"strings"

	"github.com/solatis/sieve/internal/types"
)

/*
 * Single-condition parsing: "field OPERATOR value".
 *
 * Operators are located by substring position instead of a tokenizer:
 *   1. suffix " IS NOT NULL", then " IS NULL" (case-insensitive)
 *   2. symbolic operators in priority order != <> <= >= == < > =
 *      (each checked at its first occurrence; the first operator found wins)
 *   3. keyword operators " LIKE ", " CONTAINS ", " IN " (case-insensitive)
 *
 * A literal that itself contains an operator substring (e.g. name = 'a<=b')
 * is split at the operator found first; quoting does not protect it.
 */

// Operator is a condition comparison operator.
type Operator int

const (
	OpEq Operator = iota + 1
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
	OpContains
	OpIn
	OpIsNull
	OpIsNotNull
)

// String returns the canonical query spelling of op.
func (op Operator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLike:
		return "LIKE"
	case OpContains:
		return "CONTAINS"
	case OpIn:
		return "IN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	default:
		return "?"
	}
}

type operatorToken struct {
	text string
	op   Operator
}

// Order matters: two-character operators precede their one-character prefixes.
var symbolicOperators = []operatorToken{
	{"!=", OpNeq},
	{"<>", OpNeq},
	{"<=", OpLte},
	{">=", OpGte},
	{"==", OpEq},
	{"<", OpLt},
	{">", OpGt},
	{"=", OpEq},
}

// Matched against an ASCII-uppercased copy of the condition text.
var keywordOperators = []operatorToken{
	{" LIKE ", OpLike},
	{" CONTAINS ", OpContains},
	{" IN ", OpIn},
}

const (
	suffixIsNotNull = " IS NOT NULL"
	suffixIsNull    = " IS NULL"
)

// Condition compares one record field against a literal.
type Condition struct {
	Field    string // lower-cased
	Operator Operator
	Value    Value
}

// String renders c in query syntax.
func (c Condition) String() string {
	if c.Operator == OpIsNull || c.Operator == OpIsNotNull {
		return c.Field + " " + c.Operator.String()
	}
	return c.Field + " " + c.Operator.String() + " " + c.Value.String()
}

// parseCondition parses one terminal fragment. resolver may be nil.
func parseCondition(text string, resolver DateResolver) (Condition, error) {
	s := strings.TrimSpace(text)
	upper := upperASCII(s)

	if strings.HasSuffix(upper, suffixIsNotNull) {
		return nullCondition(s[:len(s)-len(suffixIsNotNull)], OpIsNotNull), nil
	}
	if strings.HasSuffix(upper, suffixIsNull) {
		return nullCondition(s[:len(s)-len(suffixIsNull)], OpIsNull), nil
	}

	for _, tok := range symbolicOperators {
		if idx := strings.Index(s, tok.text); idx >= 0 {
			return splitCondition(s, idx, tok, resolver), nil
		}
	}

	for _, tok := range keywordOperators {
		if idx := strings.Index(upper, tok.text); idx >= 0 {
			return splitCondition(s, idx, tok, resolver), nil
		}
	}

	return Condition{}, fmt.Errorf("%w: %q", types.ErrInvalidCondition, s)
}

func nullCondition(field string, op Operator) Condition {
	return Condition{
		Field:    strings.ToLower(strings.TrimSpace(field)),
		Operator: op,
		Value:    NoValue(),
	}
}

func splitCondition(s string, idx int, tok operatorToken, resolver DateResolver) Condition {
	return Condition{
		Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
		Operator: tok.op,
		Value:    ParseLiteral(s[idx+len(tok.text):], resolver),
	}
}

// upperASCII upper-cases ASCII letters only, so byte offsets in the result
// line up with the input even when it contains multi-byte runes.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
