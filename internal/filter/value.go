// internal/filter/value.go
package filter

import (
	"strconv"
	"strings"

	"github.com/solatis/sieve/internal/types"
)

/*
 * Literal values on the right-hand side of a condition.
 *
 * ParseLiteral is total: every input resolves to exactly one kind, falling
 * back to the trimmed raw text. Rules apply in order, first match wins:
 *   1. 'quoted' or "quoted"      -> string (quotes stripped)
 *   2. (a, 'b', "c")             -> list of strings (each item quote-stripped)
 *   3. true / false (any case)   -> bool
 *   4. base-10 int64             -> int
 *   5. date resolver accepts it  -> date
 *   6. anything else             -> string
 *
 * Integers win over dates, so "2024" is an int while "2024-12-15" is a date.
 */

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueNone ValueKind = iota // IS NULL / IS NOT NULL carry no value
	ValueString
	ValueDate
	ValueBool
	ValueInt
	ValueList
)

// String returns the kind name for diagnostics.
func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueString:
		return "string"
	case ValueDate:
		return "date"
	case ValueBool:
		return "bool"
	case ValueInt:
		return "int"
	case ValueList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a literal parsed from query text. Only the field matching Kind is meaningful.
type Value struct {
	Kind ValueKind
	Str  string
	Date types.Date
	Bool bool
	Int  int64
	List []string
}

// NoValue returns the literal carried by null-check conditions.
func NoValue() Value { return Value{Kind: ValueNone} }

// StringValue returns a string literal.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// DateValue returns a date literal.
func DateValue(d types.Date) Value { return Value{Kind: ValueDate, Date: d} }

// BoolValue returns a boolean literal.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// IntValue returns an integer literal.
func IntValue(n int64) Value { return Value{Kind: ValueInt, Int: n} }

// ListValue returns a list literal.
func ListValue(items ...string) Value { return Value{Kind: ValueList, List: items} }

// String renders the literal back into query syntax.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return quote(v.Str)
	case ValueDate:
		return v.Date.String()
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueList:
		items := make([]string, len(v.List))
		for i, item := range v.List {
			items[i] = quote(item)
		}
		return "(" + strings.Join(items, ", ") + ")"
	default:
		return ""
	}
}

// DateResolver resolves relative and absolute date text (today, 2024-12-15, ...).
// Implemented by *dates.Resolver.
type DateResolver interface {
	ResolveDate(text string) (types.Date, bool)
}

// ParseLiteral converts raw literal text into a Value. Never fails.
// A nil resolver disables rule 5 (dates).
func ParseLiteral(text string, resolver DateResolver) Value {
	trimmed := strings.TrimSpace(text)

	if s, ok := unquote(trimmed); ok {
		return StringValue(s)
	}

	if len(trimmed) >= 2 && trimmed[0] == '(' && trimmed[len(trimmed)-1] == ')' {
		parts := strings.Split(trimmed[1:len(trimmed)-1], ",")
		items := make([]string, len(parts))
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if s, ok := unquote(part); ok {
				part = s
			}
			items[i] = part
		}
		return ListValue(items...)
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return IntValue(n)
	}

	if resolver != nil {
		if d, ok := resolver.ResolveDate(trimmed); ok {
			return DateValue(d)
		}
	}

	return StringValue(trimmed)
}

// unquote strips one pair of matching single or double quotes.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '\'' || first == '"') && first == last {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// quote renders s as a single-quoted literal, switching to double quotes when s contains one.
func quote(s string) string {
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}
