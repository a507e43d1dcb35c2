// Package api implements the sieve.v1.QueryService gRPC service.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/sieve/internal/core/auth"
	"github.com/solatis/sieve/internal/filter"
	"github.com/solatis/sieve/internal/tasks"
)

// QueryService compiles queries under the engine's limits and runs them
// against an ItemSource. Safe for concurrent use.
type QueryService struct {
	engine      *filter.Engine
	source      ItemSource
	defaultKind tasks.Kind
	logger      *slog.Logger
}

var _ QueryServer = (*QueryService)(nil)

// NewQueryService creates the service. defaultKind applies to Filter
// requests without a kind.
func NewQueryService(engine *filter.Engine, source ItemSource, defaultKind tasks.Kind, logger *slog.Logger) (*QueryService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{engine: engine, source: source, defaultKind: defaultKind, logger: logger}, nil
}

// Filter runs a query.
//
//	request:  {query: string, kind?: string, limit?: number}
//	response: {expression, cost, matched, items: [{id, name}]}
//
// matched counts every match; items is truncated to limit when limit > 0.
func (s *QueryService) Filter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	query := fields["query"].GetStringValue()

	kind := s.defaultKind
	if raw := fields["kind"].GetStringValue(); raw != "" {
		parsed, err := tasks.ParseKind(raw)
		if err != nil {
			return nil, toStatus(err)
		}
		kind = parsed
	}

	limit := 0
	if v, ok := fields["limit"]; ok {
		n := v.GetNumberValue()
		if n < 0 || n != float64(int(n)) {
			return nil, status.Errorf(codes.InvalidArgument, "limit must be a non-negative integer, got %v", n)
		}
		limit = int(n)
	}

	compiled, err := s.engine.Compile(query)
	if err != nil {
		return nil, toStatus(err)
	}

	items, err := s.source.Items(ctx, kind)
	if err != nil {
		s.logger.Warn("item source failed", "kind", kind, "error", err)
		return nil, toStatus(err)
	}

	matched := filter.FilterItems(items, compiled.Expr)
	s.logger.Debug("filter served",
		"key_id", auth.KeyIDFromContext(ctx),
		"kind", kind,
		"cost", compiled.Cost,
		"scanned", len(items),
		"matched", len(matched),
	)

	shown := matched
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	out := make([]any, len(shown))
	for i, item := range shown {
		out[i] = map[string]any{"id": item.ItemID(), "name": item.ItemName()}
	}

	resp, err := structpb.NewStruct(map[string]any{
		"expression": compiled.Expr.String(),
		"cost":       compiled.Cost,
		"matched":    len(matched),
		"items":      out,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

// Validate compiles a query without running it. Invalid queries are a
// normal response, not an RPC error.
//
//	request:  {query: string}
//	response: {valid, expression?, cost?, error?}
func (s *QueryService) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query := req.GetFields()["query"].GetStringValue()

	body := map[string]any{"valid": false}
	if compiled, err := s.engine.Compile(query); err != nil {
		body["error"] = err.Error()
	} else {
		body["valid"] = true
		body["expression"] = compiled.Expr.String()
		body["cost"] = compiled.Cost
	}

	resp, err := structpb.NewStruct(body)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}
