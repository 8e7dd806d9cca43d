package scheduler

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Client is the SchedulerService stub.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a stub calling through cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// AddAlarm schedules an alarm and returns its handle.
func (c *Client) AddAlarm(ctx context.Context, n NewAlarm, opts ...grpc.CallOption) (alarm.Handle, error) {
	req, err := encodeNewAlarm(n)
	if err != nil {
		return alarm.InvalidHandle, fmt.Errorf("encode request: %w", err)
	}

	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, AddAlarmMethod, req, out, opts...); err != nil {
		return alarm.InvalidHandle, err
	}

	return alarm.Handle(out.GetValue()), nil
}

// ClearAlarm frees an alarm slot.
func (c *Client) ClearAlarm(ctx context.Context, h alarm.Handle, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ClearAlarmMethod, wrapperspb.Int64(int64(h)), new(emptypb.Empty), opts...)
}

// ClearExpired frees every alarm before threshold and returns how many were freed.
func (c *Client) ClearExpired(ctx context.Context, threshold int64, opts ...grpc.CallOption) (int, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, ClearExpiredMethod, wrapperspb.Int64(threshold), out, opts...); err != nil {
		return 0, err
	}

	return int(out.GetValue()), nil
}

// NextAlarm returns the peripheral's alarm register.
func (c *Client) NextAlarm(ctx context.Context, opts ...grpc.CallOption) (Next, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, NextAlarmMethod, new(emptypb.Empty), out, opts...); err != nil {
		return Next{}, err
	}

	return decodeNext(out)
}

// ListAlarms returns every scheduled alarm in handle order.
func (c *Client) ListAlarms(ctx context.Context, opts ...grpc.CallOption) ([]Alarm, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListAlarmsMethod, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	alarms := make([]Alarm, 0, len(out.GetValues()))

	for i, v := range out.GetValues() {
		a, err := decodeAlarm(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("decode alarm %d: %w", i, err)
		}

		alarms = append(alarms, a)
	}

	return alarms, nil
}
