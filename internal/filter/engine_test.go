// internal/filter/engine_test.go
package filter

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/solatis/sieve/internal/types"
)

func TestEngine_Compile(t *testing.T) {
	e := NewEngine(WithResolver(testResolver()))

	compiled, err := e.Compile("status = open AND due < today")
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if compiled.Cost != 2*CostLookupPerSegment+CostEq+CostOrdered {
		t.Errorf("Cost = %d, want %d", compiled.Cost, 2*CostLookupPerSegment+CostEq+CostOrdered)
	}
	if compiled.Query != "status = open AND due < today" {
		t.Errorf("Query = %q", compiled.Query)
	}
	if got := compiled.Expr.String(); got != "(status = 'open' AND due < 2024-12-11)" {
		t.Errorf("Expr = %s", got)
	}
}

func TestEngine_Limits(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		query   string
		wantErr error
	}{
		{"default length", nil, "a = " + strings.Repeat("x", types.MaxQueryLength), types.ErrQueryTooLong},
		{"custom length", []Option{WithLimits(10, 0)}, "status = 'open'", types.ErrQueryTooLong},
		{"custom cost", []Option{WithLimits(0, CostLookupPerSegment)}, "status = open", types.ErrQueryTooComplex},
		{"wildcard cost", []Option{WithLimits(0, 100)}, "a.*.b.* = x", types.ErrQueryTooComplex},
		{"parse error passes through", nil, "status ?? open", types.ErrInvalidCondition},
		{"empty", nil, " ", types.ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.opts...)
			_, err := e.Compile(tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_CostLimitBoundsChains(t *testing.T) {
	e := NewEngine(WithLimits(0, 1000))
	terms := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		terms = append(terms, "a = 1")
	}
	_, err := e.Compile(strings.Join(terms, " OR "))
	if !errors.Is(err, types.ErrQueryTooComplex) {
		t.Errorf("Compile() error = %v, want ErrQueryTooComplex", err)
	}
}

func TestEngine_LogsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := NewEngine(WithLogger(logger))

	_, _ = e.Compile("status ?? open")
	if !strings.Contains(buf.String(), "query parse failed") {
		t.Errorf("log output = %q, want parse failure entry", buf.String())
	}
}

func TestFilter(t *testing.T) {
	items := []record{task("r1", "open"), task("r2", "completed")}
	e := NewEngine(WithResolver(testResolver()))

	got, compiled, err := Filter(e, items, "status != open")
	if err != nil {
		t.Fatalf("Filter() error = %v, want nil", err)
	}
	if want := []string{"r2"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Filter() = %v, want %v", ids(got), want)
	}
	if compiled == nil || compiled.Cost == 0 {
		t.Errorf("Filter() compiled = %+v, want cost", compiled)
	}

	if _, _, err := Filter(e, items, ""); !errors.Is(err, types.ErrEmptyQuery) {
		t.Errorf("Filter(\"\") error = %v, want ErrEmptyQuery", err)
	}
}
