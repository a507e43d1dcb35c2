// internal/filter/evaluate_test.go
package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/sieve/internal/types"
)

// record is a minimal Filterable keyed by lower-case field name.
type record struct {
	id     string
	fields map[string]FieldValue
}

func (r record) FieldValue(name string) (FieldValue, bool) {
	v, ok := r.fields[name]
	return v, ok
}

func (r record) ItemID() string { return r.id }

func (r record) ItemName() string {
	if v, ok := r.fields["name"]; ok {
		return v.Str
	}
	return ""
}

func task(id, status string, tags ...string) record {
	return record{id: id, fields: map[string]FieldValue{
		"status": StringField(status),
		"tags":   StringListField(tags),
	}}
}

func ids[T Filterable](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ItemID()
	}
	return out
}

func mustParse(t *testing.T, query string) Expr {
	t.Helper()
	expr, err := NewParser(testResolver()).Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v, want nil", query, err)
	}
	return expr
}

func TestMatches_CaseInsensitive(t *testing.T) {
	r := task("r1", "open")
	if !Matches(mustParse(t, "STATUS = OPEN"), r) {
		t.Errorf("STATUS = OPEN did not match status=open")
	}
}

func TestFilterItems_Composition(t *testing.T) {
	items := []record{
		task("r1", "open", "work"),
		task("r2", "completed", "work"),
		task("r3", "open", "personal"),
		task("r4", "canceled", "work"),
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"and", "status = 'open' AND tags CONTAINS 'work'", []string{"r1"}},
		{"or", "status = 'completed' OR tags CONTAINS 'personal'", []string{"r2", "r3"}},
		{"not", "NOT status = 'open'", []string{"r2", "r4"}},
		{"grouping", "(status = 'open' OR status = 'canceled') AND tags CONTAINS 'work'", []string{"r1", "r4"}},
		{"in", "status IN ('open', 'canceled')", []string{"r1", "r3", "r4"}},
		{"not in", "NOT status IN ('open', 'canceled')", []string{"r2"}},
		{"nothing", "status = 'archived'", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterItems(items, mustParse(t, tt.query)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterItems(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilterItems_OrSplitsFirst(t *testing.T) {
	// "A AND B OR C" groups as (A AND B) OR C.
	r := task("r1", "completed", "b")
	expr := mustParse(t, "status = 'open' AND tags CONTAINS 'a' OR tags CONTAINS 'b'")
	if !Matches(expr, r) {
		t.Errorf("%s did not match completed record tagged b", expr)
	}

	other := task("r2", "completed", "a")
	if Matches(expr, other) {
		t.Errorf("%s matched completed record tagged a", expr)
	}
}

func TestFilterItems_PreservesOrderAndInput(t *testing.T) {
	items := []record{task("c", "open"), task("a", "completed"), task("b", "open")}
	before := ids(items)

	got := ids(FilterItems(items, mustParse(t, "status = open")))
	if want := []string{"c", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FilterItems() = %v, want %v", got, want)
	}
	if after := ids(items); !reflect.DeepEqual(before, after) {
		t.Errorf("input mutated: %v -> %v", before, after)
	}
}

func TestMatches_NilExpression(t *testing.T) {
	if !Matches(nil, task("r1", "open")) {
		t.Errorf("Matches(nil) = false, want true")
	}
}

func TestMatches_NullHandling(t *testing.T) {
	due := types.NewDate(2024, time.December, 20)
	withDue := record{id: "with", fields: map[string]FieldValue{"due": OptionalDateField(&due)}}
	nullDue := record{id: "null", fields: map[string]FieldValue{"due": OptionalDateField(nil)}}
	noDue := record{id: "absent", fields: map[string]FieldValue{}}

	tests := []struct {
		query string
		item  record
		want  bool
	}{
		{"due IS NULL", withDue, false},
		{"due IS NOT NULL", withDue, true},
		{"due IS NULL", nullDue, true},
		{"due IS NOT NULL", nullDue, false},
		{"due IS NULL", noDue, true},
		{"due IS NOT NULL", noDue, false},
		// An unknown field satisfies IS NULL and nothing else.
		{"due != today", noDue, false},
		{"NOT due = today", noDue, true},
		// A null optional only satisfies the negated forms.
		{"due = today", nullDue, false},
		{"due != today", nullDue, true},
		{"due < 2030-01-01", nullDue, false},
	}

	for _, tt := range tests {
		got := Matches(mustParse(t, tt.query), tt.item)
		if got != tt.want {
			t.Errorf("%q on %s = %v, want %v", tt.query, tt.item.id, got, tt.want)
		}
	}
}

func TestMatches_Operators(t *testing.T) {
	due := types.NewDate(2024, time.December, 15)
	note := "Call Bob"
	item := record{id: "t1", fields: map[string]FieldValue{
		"name":     StringField("Write quarterly review"),
		"notes":    OptionalStringField(&note),
		"status":   StringField("open"),
		"due":      OptionalDateField(&due),
		"created":  DateField(types.NewDate(2024, time.December, 1)),
		"tags":     StringListField([]string{"Work", "urgent"}),
		"flagged":  BoolField(true),
		"priority": IntField(3),
	}}

	tests := []struct {
		query string
		want  bool
	}{
		// equality
		{"name = 'write quarterly review'", true},
		{"notes = 'call bob'", true},
		{"notes == 'call'", false},
		{"due = 2024-12-15", true},
		{"due = 2024-12-16", false},
		{"created = 2024-12-01", true},
		{"flagged = true", true},
		{"flagged = false", false},
		{"priority = 3", true},
		{"priority = 4", false},
		{"tags = 'work'", true},
		{"tags = 'home'", false},
		{"priority = '3'", false},
		{"flagged = 'true'", false},
		{"name = 2024-12-15", false},
		// inequality
		{"status != 'open'", false},
		{"status <> 'completed'", true},
		{"priority != 'x'", true},
		// dates only
		{"due < 2024-12-20", true},
		{"due <= 2024-12-15", true},
		{"due > 2024-12-15", false},
		{"due >= 2024-12-15", true},
		{"due > today", true},
		{"due < today", false},
		{"created < due", false},
		{"priority > 1", false},
		{"name < 'z'", false},
		// LIKE
		{"name LIKE '%review%'", true},
		{"name LIKE '%REVIEW'", true},
		{"name LIKE 'write%'", true},
		{"name LIKE '%report%'", false},
		{"name LIKE 'Write_quarterly_review'", true},
		{"name LIKE 'Write quarterly revie_'", true},
		{"name LIKE 'Write quarterly revie'", false},
		{"notes LIKE 'call%'", true},
		{"tags LIKE 'work'", false},
		{"priority LIKE '3'", false},
		{"name LIKE 2024", false},
		// CONTAINS
		{"name CONTAINS 'QUARTERLY'", true},
		{"notes CONTAINS 'bob'", true},
		{"tags CONTAINS 'urgent'", true},
		{"tags CONTAINS 'URG'", false},
		{"flagged CONTAINS 'true'", false},
		// IN
		{"status IN ('open', 'canceled')", true},
		{"status IN ('completed')", false},
		{"tags IN ('home', 'WORK')", true},
		{"tags IN ('home')", false},
		{"status IN 'open'", false},
		{"priority IN (3)", false},
	}

	for _, tt := range tests {
		got := Matches(mustParse(t, tt.query), item)
		if got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestLikePattern_EscapesRegexMeta(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"a.c", "abc", false},
		{"a.c", "a.c", true},
		{"(draft)%", "(draft) plan", true},
		{"100%", "100 percent", true},
		{"a+b", "aab", false},
		{"%", "", true},
		{"_", "", false},
		{"%line%", "first\nsecond line", true},
	}

	for _, tt := range tests {
		got := likePattern(tt.pattern).MatchString(tt.input)
		if got != tt.want {
			t.Errorf("LIKE %q on %q = %v, want %v", tt.pattern, tt.input, got, tt.want)
		}
	}
}

func TestCompound_ShortCircuits(t *testing.T) {
	calls := 0
	probe := probeExpr{result: true, calls: &calls}

	anyOf := Compound{Left: probeExpr{result: true, calls: &calls}, Op: Or, Right: probe}
	if !anyOf.Matches(record{}) {
		t.Fatalf("OR = false, want true")
	}
	if calls != 1 {
		t.Errorf("OR evaluated %d children, want 1", calls)
	}

	calls = 0
	allOf := Compound{Left: probeExpr{result: false, calls: &calls}, Op: And, Right: probe}
	if allOf.Matches(record{}) {
		t.Fatalf("AND = true, want false")
	}
	if calls != 1 {
		t.Errorf("AND evaluated %d children, want 1", calls)
	}
}

type probeExpr struct {
	result bool
	calls  *int
}

func (p probeExpr) Matches(Filterable) bool { *p.calls++; return p.result }
func (p probeExpr) String() string          { return "probe" }

// Property-based test: filtering is idempotent
func TestFilterItems_PropertyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	statuses := []string{"open", "completed", "canceled"}
	tagSets := [][]string{{"work"}, {"personal"}, {"work", "urgent"}, {}}
	queries := []string{
		"status = 'open'",
		"tags CONTAINS 'work'",
		"status = 'open' AND tags CONTAINS 'work' OR status = 'canceled'",
		"NOT (status IN ('open', 'completed'))",
		"due IS NULL OR due < today",
	}

	p := NewParser(testResolver())
	properties.Property("re-filtering a filtered set changes nothing", prop.ForAll(
		func(seeds []int, qi int) bool {
			items := make([]record, len(seeds))
			for i, s := range seeds {
				items[i] = task(string(rune('a'+i%26)), statuses[s%len(statuses)], tagSets[s%len(tagSets)]...)
				if s%2 == 0 {
					d := types.NewDate(2024, time.December, 1+s%28)
					items[i].fields["due"] = OptionalDateField(&d)
				}
			}

			expr, err := p.Parse(queries[qi])
			if err != nil {
				return false
			}
			once := FilterItems(items, expr)
			twice := FilterItems(once, expr)
			return reflect.DeepEqual(ids(once), ids(twice))
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.IntRange(0, len(queries)-1),
	))

	properties.TestingRun(t)
}
