package ctl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/rtc-alarm/internal/api/grpc/scheduler"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// clock is 2026-10-17 12:34:56 UTC.
const clock int64 = 1792240496

// fakeScheduler records calls made by the controller.
type fakeScheduler struct {
	added     []api.NewAlarm
	cleared   []alarm.Handle
	threshold int64
	next      api.Next
	alarms    []api.Alarm
	err       error
}

func (f *fakeScheduler) AddAlarm(_ context.Context, req api.NewAlarm) (alarm.Handle, error) {
	if f.err != nil {
		return alarm.InvalidHandle, f.err
	}

	f.added = append(f.added, req)

	return alarm.Handle(len(f.added) - 1), nil
}

func (f *fakeScheduler) ClearAlarm(_ context.Context, h alarm.Handle) error {
	f.cleared = append(f.cleared, h)

	return f.err
}

func (f *fakeScheduler) ClearExpired(_ context.Context, threshold int64) (int, error) {
	f.threshold = threshold

	return 3, f.err
}

func (f *fakeScheduler) NextAlarm(context.Context) (api.Next, error) { return f.next, nil }

func (f *fakeScheduler) ListAlarms(context.Context) ([]api.Alarm, error) { return f.alarms, f.err }

func newTestController() (*Controller, *fakeScheduler, *bytes.Buffer) {
	fake := &fakeScheduler{next: api.Next{Clock: clock}}
	out := new(bytes.Buffer)

	return New(fake, out, "tester@host"), fake, out
}

// TestController_Add resolves times against the simulated clock.
func TestController_Add(t *testing.T) {
	t.Parallel()

	c, fake, out := newTestController()
	ctx := context.Background()

	h, err := c.Add(ctx, AddRequest{Label: "soon", When: "+90s"})
	require.NoError(t, err)
	require.Equal(t, alarm.Handle(0), h)

	h, err = c.Add(ctx, AddRequest{Label: "hourly", When: "2026-10-17T13:00:00", Every: 1, Unit: "hour"})
	require.NoError(t, err)
	require.Equal(t, alarm.Handle(1), h)

	require.Equal(t, []api.NewAlarm{
		{Label: "soon", Owner: "tester@host", Epoch: clock + 90},
		{Label: "hourly", Owner: "tester@host", Epoch: 1792242000, Unit: alarm.Hour, Count: 1},
	}, fake.added)

	require.Contains(t, out.String(), "added alarm 0 at 2026-10-17 12:36:26")
	require.Contains(t, out.String(), "added alarm 1 at 2026-10-17 13:00:00 every 1 hour")

	_, err = c.Add(ctx, AddRequest{When: "now", Every: 2, Unit: "fortnight"})
	require.ErrorIs(t, err, alarm.ErrUnknownTimeUnit)

	_, err = c.Add(ctx, AddRequest{When: "tomorrow"})
	require.Error(t, err)
	require.Len(t, fake.added, 2)
}

// TestController_ClearAndExpire prints results and forwards errors.
func TestController_ClearAndExpire(t *testing.T) {
	t.Parallel()

	c, fake, out := newTestController()
	ctx := context.Background()

	require.NoError(t, c.Clear(ctx, 4))
	require.Equal(t, []alarm.Handle{4}, fake.cleared)
	require.Contains(t, out.String(), "cleared alarm 4")

	n, err := c.ClearExpired(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, clock, fake.threshold)
	require.Contains(t, out.String(), "cleared 3 alarm(s) before 2026-10-17 12:34:56")

	fake.err = errors.New("unavailable")
	require.Error(t, c.Clear(ctx, 5))
}

// TestController_NextAndList renders the register and the alarm table.
func TestController_NextAndList(t *testing.T) {
	t.Parallel()

	c, fake, out := newTestController()
	ctx := context.Background()

	_, err := c.Next(ctx)
	require.NoError(t, err)
	require.Contains(t, out.String(), "next alarm: none")

	_, err = c.List(ctx)
	require.NoError(t, err)
	require.Contains(t, out.String(), "no alarms")

	out.Reset()

	fake.next = api.Next{Epoch: clock + 60, Armed: true, Clock: clock}
	fake.alarms = []api.Alarm{
		{Snapshot: alarm.Snapshot{Handle: 2, Epoch: clock + 60, Recurring: true, Interval: 60}, Label: "minutely", Owner: "a@b"},
	}

	_, err = c.Next(ctx)
	require.NoError(t, err)
	require.Contains(t, out.String(), "next alarm: 2026-10-17 12:35:56 (in 60s)")

	alarms, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	require.Contains(t, out.String(), "HANDLE")
	require.Contains(t, out.String(), "minutely")
	require.Contains(t, out.String(), "60s")
}

// TestParseWhen covers every accepted form.
func TestParseWhen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{in: "now", want: clock},
		{in: "+1m", want: clock + 60},
		{in: "+1500ms", want: clock + 1},
		{in: "1792240000", want: 1792240000},
		{in: "2026-10-17 12:34:56", want: clock},
		{in: " 2026-10-17T12:34:56 ", want: clock},
	}

	for _, tc := range cases {
		got, err := ParseWhen(tc.in, clock)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "+soon", "2026-02-30 00:00:00", "2100-01-01 00:00:00"} {
		_, err := ParseWhen(bad, clock)
		require.Error(t, err, bad)
	}
}
