package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "startrails.Trails"

// TrailsServer is the server API for the Trails service. Messages are generic
// structs whose fields mirror the JSON of the HTTP API.
type TrailsServer interface {
	Health(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTrailsServer attaches srv to s.
func RegisterTrailsServer(s grpc.ServiceRegistrar, srv TrailsServer) {
	s.RegisterService(&trailsServiceDesc, srv)
}

var trailsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrailsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "ListRuns", Handler: structHandler("ListRuns", TrailsServer.ListRuns)},
		{MethodName: "GetRun", Handler: structHandler("GetRun", TrailsServer.GetRun)},
		{MethodName: "SubmitRun", Handler: structHandler("SubmitRun", TrailsServer.SubmitRun)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "startrails/trails.proto",
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrailsServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Health"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrailsServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type structMethod func(TrailsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(name string, m structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv.(TrailsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
		handler := func(ctx context.Context, req any) (any, error) {
			return m(srv.(TrailsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls a remote Trails service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial connects to a plaintext Trails server.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	return grpc.NewClient(addr, append(base, opts...)...)
}

func (c *Client) Health(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/Health", &emptypb.Empty{}, out)
	return out, err
}

func (c *Client) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListRuns", in)
}

func (c *Client) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetRun", in)
}

func (c *Client) SubmitRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return c.invoke(ctx, "SubmitRun", in)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
