package server

import (
	"context"
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
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/sieve/internal/core/api"
	"github.com/solatis/sieve/internal/core/auth"
	"github.com/solatis/sieve/internal/core/config"
	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
)

var testKey = auth.FormatAPIKey("0123456789abcdef0123456789abcdef", strings.Repeat("ab", 32))

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, authenticator *auth.Authenticator) *grpc.ClientConn {
	t.Helper()

	source := api.StaticSource{
		tasks.KindTodos: tasks.AsFilterable([]tasks.Todo{
			{ID: "t1", Name: "Write report", Status: tasks.StatusOpen},
		}),
	}
	svc, err := api.NewQueryService(filter.NewEngine(filter.WithLogger(quietLogger())), source, tasks.KindTodos, quietLogger())
	require.NoError(t, err)

	cfg := config.Default().Server
	srv, err := NewGRPCServer(cfg, svc, authenticator, quietLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.NoError(t, <-served)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func filterReq(t *testing.T) *structpb.Struct {
	req, err := structpb.NewStruct(map[string]any{"query": "status = open"})
	require.NoError(t, err)
	return req
}

func TestGRPCServer_LocalMode(t *testing.T) {
	conn := startServer(t, nil)

	resp, err := api.NewQueryClient(conn).Filter(context.Background(), filterReq(t))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.GetFields()["matched"].GetNumberValue())
}

func TestGRPCServer_Auth(t *testing.T) {
	authenticator, err := auth.NewAuthenticator([]string{testKey})
	require.NoError(t, err)
	conn := startServer(t, authenticator)
	client := api.NewQueryClient(conn)

	_, err = client.Filter(context.Background(), filterReq(t))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", testKey)
	resp, err := client.Filter(ctx, filterReq(t))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.GetFields()["matched"].GetNumberValue())
}

func TestGRPCServer_HealthSkipsAuth(t *testing.T) {
	authenticator, err := auth.NewAuthenticator([]string{testKey})
	require.NoError(t, err)
	conn := startServer(t, authenticator)

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestTimeoutInterceptor(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := func(ctx context.Context, req any) (any, error) {
		deadline, ok = ctx.Deadline()
		return nil, nil
	}

	_, _ = timeoutInterceptor(time.Second)(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	_, _ = timeoutInterceptor(0)(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	assert.False(t, ok)
}

func TestNewGRPCServer_RequiresService(t *testing.T) {
	_, err := NewGRPCServer(config.Default().Server, nil, nil, nil)
	assert.Error(t, err)
}
