package shell

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/rtc-alarm/internal/api/grpc/scheduler"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/service/ctl"
)

const clock int64 = 1792240496

// memoryScheduler is an in-process stand-in for the simulator.
type memoryScheduler struct {
	alarms []api.Alarm
}

func (m *memoryScheduler) AddAlarm(_ context.Context, req api.NewAlarm) (alarm.Handle, error) {
	var interval int64

	if req.Recurring() {
		var err error
		if interval, err = alarm.Interval(req.Unit, req.Count); err != nil {
			return alarm.InvalidHandle, err
		}
	}

	h := alarm.Handle(len(m.alarms))
	m.alarms = append(m.alarms, api.Alarm{
		Snapshot: alarm.Snapshot{
			Handle:    h,
			Epoch:     req.Epoch,
			Recurring: req.Recurring(),
			Interval:  interval,
		},
		Label: req.Label,
		Owner: req.Owner,
	})

	return h, nil
}

func (m *memoryScheduler) ClearAlarm(_ context.Context, h alarm.Handle) error {
	kept := m.alarms[:0]

	for _, a := range m.alarms {
		if a.Handle != h {
			kept = append(kept, a)
		}
	}

	m.alarms = kept

	return nil
}

func (m *memoryScheduler) ClearExpired(context.Context, int64) (int, error) { return 0, nil }

func (m *memoryScheduler) NextAlarm(context.Context) (api.Next, error) {
	return api.Next{Clock: clock}, nil
}

func (m *memoryScheduler) ListAlarms(context.Context) ([]api.Alarm, error) { return m.alarms, nil }

// TestShell_Execute walks through a short session.
func TestShell_Execute(t *testing.T) {
	t.Parallel()

	mem := new(memoryScheduler)
	out := new(bytes.Buffer)
	sh := New(ctl.New(mem, out, "tester@host"), out)
	ctx := context.Background()

	run := func(line string) {
		t.Helper()

		quit, err := sh.Execute(ctx, line)
		require.NoError(t, err, line)
		require.False(t, quit, line)
	}

	run("")
	run("help")
	require.Contains(t, out.String(), "Commands:")

	run("add +30s morning tea")
	run("every 2 hours 2026-10-17T14:00:00 water plants")
	require.Len(t, mem.alarms, 2)
	require.Equal(t, "morning tea", mem.alarms[0].Label)
	require.Equal(t, clock+30, mem.alarms[0].Epoch)
	require.Equal(t, int64(7200), mem.alarms[1].Interval)

	run("clear 0")
	run("list")
	require.Contains(t, out.String(), "water plants")
	require.Len(t, mem.alarms, 1)

	run("next")
	run("expire")

	quit, err := sh.Execute(ctx, "quit")
	require.NoError(t, err)
	require.True(t, quit)
}

// TestShell_Execute_Errors reports bad input without quitting.
func TestShell_Execute_Errors(t *testing.T) {
	t.Parallel()

	sh := New(ctl.New(new(memoryScheduler), new(bytes.Buffer), "x@y"), new(bytes.Buffer))

	for _, line := range []string{"add", "every 0 hour now", "every 1 hour", "clear", "clear abc", "dance"} {
		quit, err := sh.Execute(context.Background(), line)
		require.Error(t, err, line)
		require.False(t, quit, line)
	}

	_, err := sh.Execute(context.Background(), "clear x")
	require.ErrorIs(t, err, errUsage)
}
