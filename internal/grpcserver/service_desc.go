package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SupervisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary("Ping", func(s SupervisorServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
			return s.Ping(ctx, in)
		})},
		{MethodName: "ListRuns", Handler: unary("ListRuns", func(s SupervisorServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.ListRuns(ctx, in)
		})},
		{MethodName: "StartRun", Handler: unary("StartRun", func(s SupervisorServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.StartRun(ctx, in)
		})},
		{MethodName: "StopRun", Handler: unary("StopRun", func(s SupervisorServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.StopRun(ctx, in)
		})},
		{MethodName: "QueryJobs", Handler: unary("QueryJobs", func(s SupervisorServer, ctx context.Context, in *wrapperspb.Int32Value) (proto.Message, error) {
			return s.QueryJobs(ctx, in)
		})},
	},
	Metadata: "api/harvester/v1/supervisor.proto",
}

// unary adapts a typed method to grpc.MethodDesc's handler signature.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](method string, call func(SupervisorServer, context.Context, PReq) (proto.Message, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(SupervisorServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		})
	}
}

// Client calls the Supervisor service over conn.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Ping(ctx context.Context) (*timestamppb.Timestamp, error) {
	out := &timestamppb.Timestamp{}
	return out, c.conn.Invoke(ctx, "/"+serviceName+"/Ping", &emptypb.Empty{}, out)
}

func (c *Client) ListRuns(ctx context.Context, status string) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	return out, c.conn.Invoke(ctx, "/"+serviceName+"/ListRuns", wrapperspb.String(status), out)
}

func (c *Client) StartRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	return out, c.conn.Invoke(ctx, "/"+serviceName+"/StartRun", req, out)
}

func (c *Client) StopRun(ctx context.Context, platform string, graceful bool) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"platform": platform, "graceful": graceful})
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	return out, c.conn.Invoke(ctx, "/"+serviceName+"/StopRun", req, out)
}

func (c *Client) QueryJobs(ctx context.Context, limit int32) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	return out, c.conn.Invoke(ctx, "/"+serviceName+"/QueryJobs", wrapperspb.Int32(limit), out)
}
