//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	api "github.com/oshokin/rtc-alarm/internal/api/grpc/scheduler"
	"github.com/oshokin/rtc-alarm/internal/config"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Client wraps the SchedulerService stub with per-call timeouts.
type Client struct {
	// conn is the underlying gRPC connection to the simulator.
	conn *grpc.ClientConn
	// api is the SchedulerService stub.
	api *api.Client

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the simulator.
// Note: this uses insecure transport credentials; the simulator is meant for a
// trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial simulator: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// AddAlarm schedules an alarm on the simulator.
func (c *Client) AddAlarm(ctx context.Context, req api.NewAlarm) (alarm.Handle, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	h, err := c.api.AddAlarm(callCtx, req)
	if err != nil {
		return alarm.InvalidHandle, fmt.Errorf("add alarm: %w", err)
	}

	return h, nil
}

// ClearAlarm frees an alarm slot.
func (c *Client) ClearAlarm(ctx context.Context, h alarm.Handle) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.api.ClearAlarm(callCtx, h); err != nil {
		return fmt.Errorf("clear alarm %d: %w", h, err)
	}

	return nil
}

// ClearExpired frees every alarm before threshold and returns how many were freed.
func (c *Client) ClearExpired(ctx context.Context, threshold int64) (int, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	n, err := c.api.ClearExpired(callCtx, threshold)
	if err != nil {
		return 0, fmt.Errorf("clear expired alarms: %w", err)
	}

	return n, nil
}

// NextAlarm returns the simulator's alarm register.
func (c *Client) NextAlarm(ctx context.Context) (api.Next, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	next, err := c.api.NextAlarm(callCtx)
	if err != nil {
		return api.Next{}, fmt.Errorf("next alarm: %w", err)
	}

	return next, nil
}

// ListAlarms returns every scheduled alarm.
func (c *Client) ListAlarms(ctx context.Context) ([]api.Alarm, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	alarms, err := c.api.ListAlarms(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return alarms, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
