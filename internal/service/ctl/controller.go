package ctl

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	api "github.com/oshokin/rtc-alarm/internal/api/grpc/scheduler"
	"github.com/oshokin/rtc-alarm/internal/config"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
	"github.com/oshokin/rtc-alarm/internal/service/common"
)

// Scheduler is the remote API the controller drives. *common.Client implements it.
type Scheduler interface {
	AddAlarm(ctx context.Context, req api.NewAlarm) (alarm.Handle, error)
	ClearAlarm(ctx context.Context, h alarm.Handle) error
	ClearExpired(ctx context.Context, threshold int64) (int, error)
	NextAlarm(ctx context.Context) (api.Next, error)
	ListAlarms(ctx context.Context) ([]api.Alarm, error)
}

// Options configures how rtcalarm-ctl reaches the simulator.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// Address overrides the configured simulator address.
	Address string
}

// AddRequest describes an alarm to add from the command line.
type AddRequest struct {
	// Label names the alarm.
	Label string
	// When is the first firing time in any form ParseWhen accepts.
	When string
	// Every is the recurrence count; zero means one-shot.
	Every int64
	// Unit is the recurrence unit name.
	Unit string
}

// Controller runs ctl operations and prints their results.
type Controller struct {
	client Scheduler
	out    io.Writer
	owner  string
}

// New returns a controller writing to out. owner is recorded with added alarms.
func New(client Scheduler, out io.Writer, owner string) *Controller {
	return &Controller{
		client: client,
		out:    out,
		owner:  owner,
	}
}

// Connect loads settings, dials the simulator and detects the owner.
// The returned close function releases the connection.
func Connect(ctx context.Context, opts *Options, out io.Writer) (*Controller, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	address := cfg.ListenAddress
	if opts.Address != "" {
		address = opts.Address
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, nil, err
	}

	client, err := common.Dial(ctx, address, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, nil, err
	}

	logger.DebugKV(ctx, "Connected to simulator", "address", address, "owner", actor.String())

	closeFn := func() {
		_ = client.Close()
	}

	return New(client, out, actor.String()), closeFn, nil
}

// Add schedules an alarm and prints its handle.
func (c *Controller) Add(ctx context.Context, req AddRequest) (alarm.Handle, error) {
	next, err := c.client.NextAlarm(ctx)
	if err != nil {
		return alarm.InvalidHandle, err
	}

	epoch, err := ParseWhen(req.When, next.Clock)
	if err != nil {
		return alarm.InvalidHandle, err
	}

	n := api.NewAlarm{
		Label: req.Label,
		Owner: c.owner,
		Epoch: epoch,
	}

	if req.Every != 0 {
		unit, err := alarm.ParseTimeUnit(req.Unit)
		if err != nil {
			return alarm.InvalidHandle, err
		}

		n.Unit, n.Count = unit, req.Every
	}

	h, err := c.client.AddAlarm(ctx, n)
	if err != nil {
		return alarm.InvalidHandle, err
	}

	if n.Recurring() {
		fmt.Fprintf(c.out, "added alarm %d at %s every %d %s\n", h, formatEpoch(epoch), n.Count, n.Unit)
	} else {
		fmt.Fprintf(c.out, "added alarm %d at %s\n", h, formatEpoch(epoch))
	}

	return h, nil
}

// Clear frees an alarm slot.
func (c *Controller) Clear(ctx context.Context, h alarm.Handle) error {
	if err := c.client.ClearAlarm(ctx, h); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "cleared alarm %d\n", h)

	return nil
}

// ClearExpired frees every alarm before the given time, "now" by default.
func (c *Controller) ClearExpired(ctx context.Context, before string) (int, error) {
	if before == "" {
		before = "now"
	}

	next, err := c.client.NextAlarm(ctx)
	if err != nil {
		return 0, err
	}

	threshold, err := ParseWhen(before, next.Clock)
	if err != nil {
		return 0, err
	}

	n, err := c.client.ClearExpired(ctx, threshold)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(c.out, "cleared %d alarm(s) before %s\n", n, formatEpoch(threshold))

	return n, nil
}

// Next prints the simulator clock and alarm register.
func (c *Controller) Next(ctx context.Context) (api.Next, error) {
	next, err := c.client.NextAlarm(ctx)
	if err != nil {
		return api.Next{}, err
	}

	fmt.Fprintf(c.out, "clock: %s\n", formatEpoch(next.Clock))

	if next.Armed {
		fmt.Fprintf(c.out, "next alarm: %s (in %ds)\n", formatEpoch(next.Epoch), next.Epoch-next.Clock)
	} else {
		fmt.Fprintln(c.out, "next alarm: none")
	}

	return next, nil
}

// List prints every scheduled alarm as a table.
func (c *Controller) List(ctx context.Context) ([]api.Alarm, error) {
	alarms, err := c.client.ListAlarms(ctx)
	if err != nil {
		return nil, err
	}

	if len(alarms) == 0 {
		fmt.Fprintln(c.out, "no alarms")

		return alarms, nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tAT\tEVERY\tLABEL\tOWNER")

	for _, a := range alarms {
		every := "-"
		if a.Recurring {
			every = fmt.Sprintf("%ds", a.Interval)
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.Handle, formatEpoch(a.Epoch), every, a.Label, a.Owner)
	}

	return alarms, tw.Flush()
}
