// internal/filter/cost_test.go
package filter

import "testing"

func TestCost(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"due IS NULL", CostLookupPerSegment + CostNull},
		{"status = open", CostLookupPerSegment + CostEq},
		{"due < today", CostLookupPerSegment + CostOrdered},
		{"status IN ('a', 'b', 'c')", CostLookupPerSegment + CostIn + 3},
		{"tags CONTAINS x", CostLookupPerSegment + CostContains},
		{"name LIKE '%x%'", CostLookupPerSegment + CostLike},
		{"owner.name = x", 2*CostLookupPerSegment + CostEq},
		{"items.*.sku = x", 3*CostLookupPerSegment + CostEq*8},
		{"a.*.b.* = x", 4*CostLookupPerSegment + CostEq*64},
		{"NOT status = open", CostLookupPerSegment + CostEq + CostNot},
		{"a = 1 AND b = 2 OR c = 3", 3 * (CostLookupPerSegment + CostEq)},
	}

	p := NewParser(nil)
	for _, tt := range tests {
		expr, err := p.Parse(tt.query)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v, want nil", tt.query, err)
		}
		if got := Cost(expr); got != tt.want {
			t.Errorf("Cost(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestCost_WildcardRunSaturates(t *testing.T) {
	field := "a"
	for i := 0; i < 100; i++ {
		field += ".*"
	}
	got := Cost(Condition{Field: field, Operator: OpEq, Value: StringValue("x")})
	if got <= 0 {
		t.Errorf("Cost() = %d, want positive", got)
	}
}

func TestCost_OrderingByOperator(t *testing.T) {
	// Cheaper operators first.
	order := []Operator{OpIsNull, OpEq, OpLt, OpIn, OpContains, OpLike}
	for i := 1; i < len(order); i++ {
		if operatorCost(order[i-1]) >= operatorCost(order[i]) {
			t.Errorf("operatorCost(%s) >= operatorCost(%s)", order[i-1], order[i])
		}
	}
}
