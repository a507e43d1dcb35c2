// internal/filter/parse.go
package filter

import (
	"strings"

	"github.com/solatis/sieve/internal/dates"
	"github.com/solatis/sieve/internal/types"
)

/*
 * Recursive-descent expression builder.
 *
 * Each call trims its input and tries, in order:
 *   1. "NOT " prefix (case-insensitive)  -> Not{parse(rest)}
 *   2. leading "("                       -> unwrap, or group followed by AND/OR
 *   3. first top-level " OR "            -> Compound{Or}
 *   4. first top-level " AND "           -> Compound{And}
 *   5. single condition
 *
 * A parenthesized group followed by text that does not start with AND/OR
 * keeps the group and drops the trailing text: "(a = 1) junk" parses as
 * "a = 1". Callers rely on this, so it is not reported as an error.
 *
 * Parsing fails whole; no partial tree is returned.
 */

// Expr is a parsed filter expression: Condition, Not or Compound.
// Expressions are immutable and safe for concurrent use.
type Expr interface {
	// Matches reports whether item satisfies the expression.
	Matches(item Filterable) bool
	// String renders the expression in query syntax. Re-parsing the result
	// with the same resolver yields a structurally equal expression unless a
	// literal contains an operator or connector substring.
	String() string
}

// Not negates its child expression.
type Not struct {
	Expr Expr
}

// String renders n in query syntax.
func (n Not) String() string {
	return "NOT (" + n.Expr.String() + ")"
}

// Compound joins two expressions with AND or OR.
type Compound struct {
	Left  Expr
	Op    LogicalOp
	Right Expr
}

// String renders c in query syntax, fully parenthesized.
func (c Compound) String() string {
	return "(" + c.Left.String() + " " + c.Op.String() + " " + c.Right.String() + ")"
}

// Parser turns query text into expressions. The zero value parses without
// date literals; use NewParser to attach a resolver.
type Parser struct {
	resolver DateResolver
}

// NewParser creates a parser that resolves date literals with resolver.
func NewParser(resolver DateResolver) *Parser {
	return &Parser{resolver: resolver}
}

// ParseFilter parses query with a resolver anchored to the local clock.
func ParseFilter(query string) (Expr, error) {
	return NewParser(dates.NewResolver()).Parse(query)
}

// Parse parses query into an expression tree.
func (p *Parser) Parse(query string) (Expr, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, types.ErrEmptyQuery
	}

	if strings.HasPrefix(upperASCII(q), "NOT ") {
		inner, err := p.Parse(q[len("NOT "):])
		if err != nil {
			return nil, err
		}
		return Not{Expr: inner}, nil
	}

	if q[0] == '(' {
		return p.parseGroup(q)
	}

	if left, op, right, ok := splitLogical(q); ok {
		return p.parseCompound(left, op, right)
	}

	cond, err := parseCondition(q, p.resolver)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// parseGroup handles text starting with '('.
func (p *Parser) parseGroup(q string) (Expr, error) {
	end := findMatchingParen(q)
	if end < 0 {
		return nil, types.ErrUnmatchedParenthesis
	}
	if end == len(q)-1 {
		return p.Parse(q[1:end])
	}

	inner, err := p.Parse(q[1:end])
	if err != nil {
		return nil, err
	}

	rest := strings.TrimSpace(q[end+1:])
	upper := upperASCII(rest)
	switch {
	case strings.HasPrefix(upper, "AND "):
		return p.parseRight(inner, And, rest[len("AND "):])
	case strings.HasPrefix(upper, "OR "):
		return p.parseRight(inner, Or, rest[len("OR "):])
	default:
		return inner, nil
	}
}

func (p *Parser) parseCompound(left string, op LogicalOp, right string) (Expr, error) {
	l, err := p.Parse(left)
	if err != nil {
		return nil, err
	}
	return p.parseRight(l, op, right)
}

func (p *Parser) parseRight(left Expr, op LogicalOp, right string) (Expr, error) {
	r, err := p.Parse(right)
	if err != nil {
		return nil, err
	}
	return Compound{Left: left, Op: op, Right: r}, nil
}
