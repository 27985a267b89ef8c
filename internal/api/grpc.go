package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// SchedulerServiceName is the fully qualified gRPC service name.
const SchedulerServiceName = "mirador.scheduler.v1.Scheduler"

const (
	optimizeMethod       = "/" + SchedulerServiceName + "/Optimize"
	policyDefaultsMethod = "/" + SchedulerServiceName + "/PolicyDefaults"
)

// Scheduler is the application service exposed by both transports.
type Scheduler interface {
	Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResponse, error)
	PolicyDefaults() map[string]any
}

// SchedulerServer is the gRPC surface. Payloads are google.protobuf.Struct
// documents with the same fields as the HTTP JSON API.
type SchedulerServer interface {
	Optimize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	PolicyDefaults(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// NewSchedulerServer adapts svc to the gRPC surface.
func NewSchedulerServer(svc Scheduler) SchedulerServer {
	return &grpcScheduler{svc: svc}
}

type grpcScheduler struct {
	svc Scheduler
}

func (g *grpcScheduler) Optimize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	var dto OptimizeRequest
	if err := fromStruct(req, &dto); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := g.svc.Optimize(ctx, dto)
	if err != nil {
		return nil, grpcStatus(err)
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (g *grpcScheduler) PolicyDefaults(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	out, err := toStruct(PolicyResponse{Settings: g.svc.PolicyDefaults()})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// RegisterSchedulerServer registers srv on s.
func RegisterSchedulerServer(s grpc.ServiceRegistrar, srv SchedulerServer) {
	s.RegisterService(&schedulerServiceDesc, srv)
}

var schedulerServiceDesc = grpc.ServiceDesc{
	ServiceName: SchedulerServiceName,
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Optimize", Handler: optimizeHandler},
		{MethodName: "PolicyDefaults", Handler: policyDefaultsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mirador/scheduler/v1/scheduler.proto",
}

func optimizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).Optimize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: optimizeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).Optimize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func policyDefaultsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).PolicyDefaults(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: policyDefaultsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServer).PolicyDefaults(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SchedulerClient calls the Scheduler service.
type SchedulerClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulerClient wraps an established connection.
func NewSchedulerClient(cc grpc.ClientConnInterface) *SchedulerClient {
	return &SchedulerClient{cc: cc}
}

// Optimize sends req and decodes the ranked result.
func (c *SchedulerClient) Optimize(ctx context.Context, req OptimizeRequest, opts ...grpc.CallOption) (OptimizeResponse, error) {
	in, err := toStruct(req)
	if err != nil {
		return OptimizeResponse{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, optimizeMethod, in, out, opts...); err != nil {
		return OptimizeResponse{}, err
	}
	var resp OptimizeResponse
	if err := fromStruct(out, &resp); err != nil {
		return OptimizeResponse{}, err
	}
	return resp, nil
}

// PolicyDefaults fetches the server's base policy.
func (c *SchedulerClient) PolicyDefaults(ctx context.Context, opts ...grpc.CallOption) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, policyDefaultsMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	var resp PolicyResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Settings, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
