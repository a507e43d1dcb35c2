// internal/filter/cost.go
package filter

import "strings"

/*
 * Cost model for parsed expressions.
 *
 * Bounds the work a query can demand per record so the query service can
 * reject oversized expressions before evaluating them.
 *
 * condition = lookup_cost + (operator_cost * 8^wildcards)
 * NOT       = child + CostNot
 * AND/OR    = left + right
 *
 * Lookup cost scales with the number of dotted path segments. Wildcards
 * multiply the operator cost by 8 each, so items.*.tags.* costs 64x.
 * IN adds one unit per list entry.
 */

const (
	// Operator base costs
	CostNull     = 1
	CostEq       = 5
	CostOrdered  = 7
	CostIn       = 8
	CostContains = 10
	CostLike     = 20

	// CostNot is charged once per negation.
	CostNot = 1

	// CostLookupPerSegment is charged per dotted path segment.
	CostLookupPerSegment = 16

	maxExecMult = 1 << 21
)

// Cost returns the evaluation cost of expr for a single record.
func Cost(expr Expr) int {
	switch e := expr.(type) {
	case Condition:
		return conditionCost(e)
	case Not:
		return Cost(e.Expr) + CostNot
	case Compound:
		return Cost(e.Left) + Cost(e.Right)
	default:
		return 0
	}
}

func conditionCost(c Condition) int {
	segments := strings.Split(c.Field, ".")
	wildcards := 0
	for _, seg := range segments {
		if seg == "*" {
			wildcards++
		}
	}

	opCost := operatorCost(c.Operator)
	if c.Operator == OpIn {
		opCost += len(c.Value.List)
	}

	// Saturates well above any sane limit so long wildcard runs cannot overflow.
	execMult := 1
	for i := 0; i < wildcards && execMult < maxExecMult; i++ {
		execMult *= 8
	}

	return len(segments)*CostLookupPerSegment + opCost*execMult
}

func operatorCost(op Operator) int {
	switch op {
	case OpIsNull, OpIsNotNull:
		return CostNull
	case OpEq, OpNeq:
		return CostEq
	case OpLt, OpLte, OpGt, OpGte:
		return CostOrdered
	case OpIn:
		return CostIn
	case OpContains:
		return CostContains
	case OpLike:
		return CostLike
	default:
		return CostEq
	}
}
