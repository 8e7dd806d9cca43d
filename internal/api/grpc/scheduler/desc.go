package scheduler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rtcalarm.v1.SchedulerService"

// Full method names.
const (
	AddAlarmMethod     = "/" + ServiceName + "/AddAlarm"
	ClearAlarmMethod   = "/" + ServiceName + "/ClearAlarm"
	ClearExpiredMethod = "/" + ServiceName + "/ClearExpired"
	NextAlarmMethod    = "/" + ServiceName + "/NextAlarm"
	ListAlarmsMethod   = "/" + ServiceName + "/ListAlarms"
)

// SchedulerServer is the server API of the scheduler service.
type SchedulerServer interface {
	AddAlarm(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error)
	ClearAlarm(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error)
	ClearExpired(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error)
	NextAlarm(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ListAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
}

// RegisterSchedulerServer registers srv on s.
func RegisterSchedulerServer(s grpc.ServiceRegistrar, srv SchedulerServer) {
	s.RegisterService(&SchedulerServiceDesc, srv)
}

// SchedulerServiceDesc describes the scheduler service for grpc.Server.
//
//nolint:gochecknoglobals // grpc.ServiceRegistrar takes the descriptor by pointer.
var SchedulerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddAlarm", Handler: addAlarmHandler},
		{MethodName: "ClearAlarm", Handler: clearAlarmHandler},
		{MethodName: "ClearExpired", Handler: clearExpiredHandler},
		{MethodName: "NextAlarm", Handler: nextAlarmHandler},
		{MethodName: "ListAlarms", Handler: listAlarmsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rtcalarm/v1/scheduler.proto",
}

// unary decodes the request into a fresh Req and runs call, through the interceptor when one is set.
func unary[Req any, Resp any](
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
	srv any,
	method string,
	call func(SchedulerServer, context.Context, *Req) (Resp, error),
) (any, error) {
	in := new(Req)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(SchedulerServer)
	if interceptor == nil {
		return call(server, ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: method,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		typed, _ := req.(*Req)

		return call(server, ctx, typed)
	}

	return interceptor(ctx, in, info, handler)
}

func addAlarmHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) { //nolint:revive // grpc.MethodHandler signature.
	return unary(ctx, dec, interceptor, srv, AddAlarmMethod, SchedulerServer.AddAlarm)
}

func clearAlarmHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) { //nolint:revive // grpc.MethodHandler signature.
	return unary(ctx, dec, interceptor, srv, ClearAlarmMethod, SchedulerServer.ClearAlarm)
}

func clearExpiredHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) { //nolint:revive // grpc.MethodHandler signature.
	return unary(ctx, dec, interceptor, srv, ClearExpiredMethod, SchedulerServer.ClearExpired)
}

func nextAlarmHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) { //nolint:revive // grpc.MethodHandler signature.
	return unary(ctx, dec, interceptor, srv, NextAlarmMethod, SchedulerServer.NextAlarm)
}

func listAlarmsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) { //nolint:revive // grpc.MethodHandler signature.
	return unary(ctx, dec, interceptor, srv, ListAlarmsMethod, SchedulerServer.ListAlarms)
}
