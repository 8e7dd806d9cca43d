package scheduler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
	core "github.com/oshokin/rtc-alarm/internal/scheduler"
)

// Server implements the SchedulerService gRPC API.
type Server struct {
	// service provides the scheduler operations.
	service Service
}

// Compile-time interface satisfaction check.
var _ SchedulerServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// AddAlarm schedules an alarm and returns its handle.
func (s *Server) AddAlarm(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	n, err := decodeNewAlarm(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	h, err := s.service.AddAlarm(ctx, n)
	if err != nil {
		return nil, toStatus(ctx, "add alarm", err)
	}

	return wrapperspb.Int64(int64(h)), nil
}

// ClearAlarm frees an alarm slot.
func (s *Server) ClearAlarm(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "handle is required")
	}

	if err := s.service.ClearAlarm(ctx, alarm.Handle(req.GetValue())); err != nil {
		return nil, toStatus(ctx, "clear alarm", err)
	}

	return new(emptypb.Empty), nil
}

// ClearExpired frees every alarm before the threshold epoch and returns how many were freed.
func (s *Server) ClearExpired(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "threshold is required")
	}

	return wrapperspb.Int64(int64(s.service.ClearExpired(ctx, req.GetValue()))), nil
}

// NextAlarm returns the peripheral's alarm register.
func (s *Server) NextAlarm(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	next, err := s.service.NextAlarm(ctx)
	if err != nil {
		return nil, toStatus(ctx, "next alarm", err)
	}

	resp, err := encodeNext(next)
	if err != nil {
		return nil, toStatus(ctx, "encode next alarm", err)
	}

	return resp, nil
}

// ListAlarms returns every scheduled alarm in handle order.
func (s *Server) ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	alarms := s.service.ListAlarms(ctx)

	list := &structpb.ListValue{
		Values: make([]*structpb.Value, 0, len(alarms)),
	}

	for _, a := range alarms {
		item, err := encodeAlarm(a)
		if err != nil {
			return nil, toStatus(ctx, "encode alarm", err)
		}

		list.Values = append(list.Values, structpb.NewStructValue(item))
	}

	return list, nil
}

// toStatus maps service errors to gRPC status codes.
func toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, core.ErrCapacityExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, core.ErrInvalidHandle):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, core.ErrZeroInterval),
		errors.Is(err, core.ErrNilCallback),
		errors.Is(err, calendar.ErrInvalidDateTime),
		errors.Is(err, calendar.ErrOutOfRange),
		errors.Is(err, alarm.ErrUnknownTimeUnit),
		errors.Is(err, alarm.ErrIntervalOverflow):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	logger.ErrorKV(ctx, "Scheduler call failed", "operation", op, "error", err)

	return status.Error(codes.Internal, "unable to "+op)
}
