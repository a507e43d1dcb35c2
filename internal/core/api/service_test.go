package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/sieve/internal/dates"
	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
	"github.com/solatis/sieve/internal/types"
)

var fixedNow = time.Date(2024, time.December, 11, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSource() StaticSource {
	todos := []tasks.Todo{
		{ID: "t1", Name: "Write report", Status: tasks.StatusOpen, Tags: []string{"work"},
			DueDate: ptr(types.NewDate(2024, time.December, 10))},
		{ID: "t2", Name: "Buy milk", Status: tasks.StatusOpen, Tags: []string{"errand"}},
		{ID: "t3", Name: "File taxes", Status: tasks.StatusCompleted, Tags: []string{"work"}},
	}
	projects := []tasks.Project{{ID: "p1", Name: "Q4", Status: tasks.StatusOpen}}
	return StaticSource{
		tasks.KindTodos:    tasks.AsFilterable(todos),
		tasks.KindProjects: tasks.AsFilterable(projects),
	}
}

func newService(t *testing.T, source ItemSource) *QueryService {
	t.Helper()
	engine := filter.NewEngine(
		filter.WithResolver(dates.NewResolverAt(fixedNow)),
		filter.WithLogger(quietLogger()),
		filter.WithLimits(200, 0),
	)
	svc, err := NewQueryService(engine, source, tasks.KindTodos, quietLogger())
	require.NoError(t, err)
	return svc
}

// dialService serves svc over an in-memory connection.
func dialService(t *testing.T, svc QueryServer) *QueryClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterQueryServer(srv, svc)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewQueryClient(conn)
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return req
}

func itemIDs(resp *structpb.Struct) []string {
	var ids []string
	for _, v := range resp.GetFields()["items"].GetListValue().GetValues() {
		ids = append(ids, v.GetStructValue().GetFields()["id"].GetStringValue())
	}
	return ids
}

func TestFilter(t *testing.T) {
	client := dialService(t, newService(t, testSource()))
	ctx := context.Background()

	tests := []struct {
		name     string
		req      map[string]any
		wantIDs  []string
		matched  float64
		wantExpr string
	}{
		{
			name:    "default kind",
			req:     map[string]any{"query": "status = open"},
			wantIDs: []string{"t1", "t2"}, matched: 2,
			wantExpr: "status = 'open'",
		},
		{
			name:    "compound",
			req:     map[string]any{"query": "tags CONTAINS work AND due < today"},
			wantIDs: []string{"t1"}, matched: 1,
		},
		{
			name:    "limit truncates items only",
			req:     map[string]any{"query": "status = open", "limit": 1},
			wantIDs: []string{"t1"}, matched: 2,
		},
		{
			name:    "explicit kind",
			req:     map[string]any{"query": "name = q4", "kind": "project"},
			wantIDs: []string{"p1"}, matched: 1,
		},
		{
			name:    "no matches",
			req:     map[string]any{"query": "status = canceled"},
			wantIDs: nil, matched: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Filter(ctx, request(t, tt.req))
			require.NoError(t, err)

			fields := resp.GetFields()
			assert.Equal(t, tt.wantIDs, itemIDs(resp))
			assert.Equal(t, tt.matched, fields["matched"].GetNumberValue())
			assert.Positive(t, fields["cost"].GetNumberValue())
			if tt.wantExpr != "" {
				assert.Equal(t, tt.wantExpr, fields["expression"].GetStringValue())
			}
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	client := dialService(t, newService(t, testSource()))
	ctx := context.Background()

	tests := []struct {
		name     string
		req      map[string]any
		wantCode codes.Code
	}{
		{"empty query", map[string]any{}, codes.InvalidArgument},
		{"invalid condition", map[string]any{"query": "status open"}, codes.InvalidArgument},
		{"unmatched paren", map[string]any{"query": "(status = open"}, codes.InvalidArgument},
		{"too long", map[string]any{"query": "name = " + strings.Repeat("x", 300)}, codes.InvalidArgument},
		{"unknown kind", map[string]any{"query": "a = 1", "kind": "tags"}, codes.InvalidArgument},
		{"kind not loaded", map[string]any{"query": "a = 1", "kind": "areas"}, codes.InvalidArgument},
		{"negative limit", map[string]any{"query": "a = 1", "limit": -1}, codes.InvalidArgument},
		{"fractional limit", map[string]any{"query": "a = 1", "limit": 1.5}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Filter(ctx, request(t, tt.req))
			assert.Equal(t, tt.wantCode, status.Code(err), "err = %v", err)
		})
	}
}

type failingSource struct{ err error }

func (f failingSource) Items(context.Context, tasks.Kind) ([]filter.Filterable, error) {
	return nil, f.err
}

func TestFilter_SourceFailure(t *testing.T) {
	client := dialService(t, newService(t, failingSource{err: errors.New("database is locked")}))

	_, err := client.Filter(context.Background(), request(t, map[string]any{"query": "a = 1"}))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestValidate(t *testing.T) {
	client := dialService(t, newService(t, testSource()))
	ctx := context.Background()

	resp, err := client.Validate(ctx, request(t, map[string]any{"query": "a = 1 AND b = 2 OR c = 3"}))
	require.NoError(t, err)
	fields := resp.GetFields()
	assert.True(t, fields["valid"].GetBoolValue())
	assert.Equal(t, "((a = 1 AND b = 2) OR c = 3)", fields["expression"].GetStringValue())
	assert.Positive(t, fields["cost"].GetNumberValue())

	resp, err = client.Validate(ctx, request(t, map[string]any{"query": "(a = 1"}))
	require.NoError(t, err)
	fields = resp.GetFields()
	assert.False(t, fields["valid"].GetBoolValue())
	assert.Contains(t, fields["error"].GetStringValue(), "unmatched parenthesis")
	assert.NotContains(t, fields, "expression")
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{nil, codes.OK},
		{types.ErrQueryTooComplex, codes.InvalidArgument},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{status.Error(codes.NotFound, "x"), codes.NotFound},
		{errors.New("disk full"), codes.Unavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), "toStatus(%v)", tt.err)
	}
}

func TestNewQueryService_Validation(t *testing.T) {
	_, err := NewQueryService(nil, testSource(), tasks.KindTodos, nil)
	assert.Error(t, err)
	_, err = NewQueryService(filter.NewEngine(), nil, tasks.KindTodos, nil)
	assert.Error(t, err)
}
