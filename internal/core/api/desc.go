package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * sieve.v1.QueryService is declared by hand. Requests and responses are
 * google.protobuf.Struct messages, so any gRPC client (grpcurl included)
 * can call it without generated stubs:
 *
 *   rpc Filter(Struct) returns (Struct)    {query, kind?, limit?}
 *   rpc Validate(Struct) returns (Struct)  {query}
 */

const (
	ServiceName = "sieve.v1.QueryService"

	FilterMethod   = "/" + ServiceName + "/Filter"
	ValidateMethod = "/" + ServiceName + "/Validate"
)

// QueryServer is the server API for sieve.v1.QueryService.
type QueryServer interface {
	Filter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// QueryServiceDesc describes sieve.v1.QueryService for grpc.Server.
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Filter", Handler: unaryHandler(FilterMethod, QueryServer.Filter)},
		{MethodName: "Validate", Handler: unaryHandler(ValidateMethod, QueryServer.Validate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sieve/v1/query.proto",
}

// RegisterQueryServer registers srv on s.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

type structCall func(QueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QueryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QueryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// QueryClient calls sieve.v1.QueryService.
type QueryClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryClient wraps a client connection.
func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

// Filter calls QueryService.Filter.
func (c *QueryClient) Filter(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FilterMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate calls QueryService.Validate.
func (c *QueryClient) Validate(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ValidateMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
