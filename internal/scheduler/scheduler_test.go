package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/rtc"
)

// now is 2026-10-17 12:00:00 UTC, the simulated clock value used by these tests.
var now = calendar.MustEpoch(calendar.DateTime{YearsFrom2000: 26, Month: 10, Day: 17, Hour: 12})

// noop is a callback that does nothing.
func noop() {}

// newTestScheduler builds a scheduler over a simulated peripheral and a recording sink.
func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *rtc.Soft, *diag.Recorder) {
	t.Helper()

	hw := rtc.NewSoft(now)
	rec := new(diag.Recorder)

	s := New(hw, append([]Option{WithSink(rec)}, opts...)...)

	return s, hw, rec
}

// armedEpoch reads the peripheral's alarm register back as an epoch.
func armedEpoch(t *testing.T, s *Scheduler) int64 {
	t.Helper()

	epoch, err := s.NextAlarmEpoch()
	require.NoError(t, err)

	return epoch
}

// TestNew_ResetsPeripheral checks the constructor leaves the peripheral disarmed at its zero date.
func TestNew_ResetsPeripheral(t *testing.T) {
	t.Parallel()

	s, hw, _ := newTestScheduler(t)

	require.Equal(t, DefaultCapacity, s.Capacity())
	require.Equal(t, rtc.MatchOff, hw.Match())
	require.Equal(t, calendar.MustEpoch(calendar.Zero()), armedEpoch(t, s))
	require.Empty(t, s.Alarms())
}

// TestNextAlarmFrom_Selection checks the soonest alarm at or after each threshold.
func TestNextAlarmFrom_Selection(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t)

	for _, epoch := range []int64{10, 5, 20} {
		_, err := s.AddSingle(epoch, noop)
		require.NoError(t, err)
	}

	cases := []struct {
		threshold int64
		want      int64
		handle    alarm.Handle
		found     bool
	}{
		{threshold: 0, want: 5, handle: 1, found: true},
		{threshold: 5, want: 5, handle: 1, found: true},
		{threshold: 6, want: 10, handle: 0, found: true},
		{threshold: 11, want: 20, handle: 2, found: true},
		{threshold: 21, handle: alarm.InvalidHandle, found: false},
	}

	for _, tc := range cases {
		h, epoch, ok := s.NextAlarmFrom(tc.threshold)
		require.Equal(t, tc.found, ok, "threshold %d", tc.threshold)
		require.Equal(t, tc.handle, h, "threshold %d", tc.threshold)

		if tc.found {
			require.Equal(t, tc.want, epoch, "threshold %d", tc.threshold)
		}
	}
}

// TestNextAlarmFrom_TieBreak ensures equal epochs resolve to the lowest handle.
func TestNextAlarmFrom_TieBreak(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t)

	_, err := s.AddSingle(now+50, noop)
	require.NoError(t, err)

	first, err := s.AddSingle(now+10, noop)
	require.NoError(t, err)

	_, err = s.AddSingle(now+10, noop)
	require.NoError(t, err)

	h, epoch, ok := s.NextAlarmFrom(now)
	require.True(t, ok)
	require.Equal(t, first, h)
	require.Equal(t, now+10, epoch)
}

// TestAddAlarm_PreemptsArmedAlarm checks that a sooner alarm takes over the register.
func TestAddAlarm_PreemptsArmedAlarm(t *testing.T) {
	t.Parallel()

	s, hw, rec := newTestScheduler(t)

	_, err := s.AddSingle(now+100, noop)
	require.NoError(t, err)
	require.Equal(t, now+100, armedEpoch(t, s))
	require.Equal(t, rtc.MatchYYMMDDHHMMSS, hw.Match())

	_, err = s.AddSingle(now+50, noop)
	require.NoError(t, err)
	require.Equal(t, now+50, armedEpoch(t, s))

	_, err = s.AddSingle(now+75, noop)
	require.NoError(t, err)
	require.Equal(t, now+50, armedEpoch(t, s))

	require.Equal(t, 3, rec.Count(diag.KindArmed))
}

// TestAddAlarm_Validation covers nil callbacks and non-positive intervals.
func TestAddAlarm_Validation(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t)

	h, err := s.AddSingle(now+1, nil)
	require.ErrorIs(t, err, ErrNilCallback)
	require.Equal(t, alarm.InvalidHandle, h)

	h, err = s.AddAlarm(now+1, noop, true, 0)
	require.ErrorIs(t, err, ErrZeroInterval)
	require.Equal(t, alarm.InvalidHandle, h)

	h, err = s.AddRecurring(now+1, alarm.Minute, -1, noop)
	require.ErrorIs(t, err, ErrZeroInterval)
	require.Equal(t, alarm.InvalidHandle, h)

	h, err = s.AddSingleAt(calendar.DateTime{Month: 2, Day: 30}, noop)
	require.ErrorIs(t, err, calendar.ErrInvalidDateTime)
	require.Equal(t, alarm.InvalidHandle, h)

	require.Empty(t, s.Alarms())
}

// TestAddAlarm_CapacityExceeded checks the sentinel handle and that the registry is untouched.
func TestAddAlarm_CapacityExceeded(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, WithCapacity(3))
	require.Equal(t, 3, s.Capacity())

	for i := range 3 {
		h, err := s.AddSingle(now+int64(10*(i+1)), noop)
		require.NoError(t, err)
		require.Equal(t, alarm.Handle(i), h)
	}

	before := s.Alarms()
	armed := armedEpoch(t, s)

	h, err := s.AddSingle(now+1, noop)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.Equal(t, alarm.InvalidHandle, h)
	require.Equal(t, before, s.Alarms())
	require.Equal(t, armed, armedEpoch(t, s))
}

// TestAddAlarm_ReusesFreedSlot ensures a cleared slot is handed out again.
func TestAddAlarm_ReusesFreedSlot(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t, WithCapacity(2))

	a, err := s.AddSingle(now+10, noop)
	require.NoError(t, err)

	_, err = s.AddSingle(now+20, noop)
	require.NoError(t, err)

	require.NoError(t, s.ClearAlarm(a))

	c, err := s.AddSingle(now+30, noop)
	require.NoError(t, err)
	require.Equal(t, a, c)
}

// TestClearAlarm covers invalid handles, re-arming and disarming when the last alarm goes.
func TestClearAlarm(t *testing.T) {
	t.Parallel()

	s, hw, rec := newTestScheduler(t)

	require.ErrorIs(t, s.ClearAlarm(alarm.InvalidHandle), ErrInvalidHandle)
	require.ErrorIs(t, s.ClearAlarm(alarm.Handle(s.Capacity())), ErrInvalidHandle)

	early, err := s.AddSingle(now+10, noop)
	require.NoError(t, err)

	late, err := s.AddSingle(now+20, noop)
	require.NoError(t, err)
	require.Equal(t, now+10, armedEpoch(t, s))

	require.NoError(t, s.ClearAlarm(early))
	require.Equal(t, now+20, armedEpoch(t, s))

	require.NoError(t, s.ClearAlarm(late))
	require.Equal(t, rtc.MatchOff, hw.Match())
	require.Equal(t, diag.KindNoPendingAlarm, rec.Kinds()[len(rec.Kinds())-1])

	// Clearing a free slot is allowed.
	require.NoError(t, s.ClearAlarm(late))
}

// TestClearExpired disables everything before the threshold regardless of recurrence.
func TestClearExpired(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestScheduler(t)

	_, err := s.AddSingle(now-30, noop)
	require.NoError(t, err)

	_, err = s.AddRecurring(now-20, alarm.Minute, 1, noop)
	require.NoError(t, err)

	keepOneShot, err := s.AddSingle(now, noop)
	require.NoError(t, err)

	keepRecurring, err := s.AddRecurring(now+10, alarm.Hour, 1, noop)
	require.NoError(t, err)

	armed := armedEpoch(t, s)

	require.Equal(t, 2, s.ClearExpired(now))

	alarms := s.Alarms()
	require.Len(t, alarms, 2)
	require.Equal(t, keepOneShot, alarms[0].Handle)
	require.Equal(t, now, alarms[0].Epoch)
	require.Equal(t, keepRecurring, alarms[1].Handle)
	require.True(t, alarms[1].Recurring)
	require.Equal(t, int64(3600), alarms[1].Interval)

	// No re-arm side effect.
	require.Equal(t, armed, armedEpoch(t, s))
}

// TestAddAlarm_PastAlarmIsNotArmed checks that an alarm before the clock stays pending but unarmed.
func TestAddAlarm_PastAlarmIsNotArmed(t *testing.T) {
	t.Parallel()

	s, hw, rec := newTestScheduler(t)

	_, err := s.AddSingle(now-1, noop)
	require.NoError(t, err)
	require.Equal(t, rtc.MatchOff, hw.Match())
	require.Equal(t, []diag.Kind{diag.KindNoPendingAlarm}, rec.Kinds())
	require.Len(t, s.Alarms(), 1)
}

// TestAddAlarm_UnrepresentableEpoch checks that epochs past the peripheral range are reported, not armed.
func TestAddAlarm_UnrepresentableEpoch(t *testing.T) {
	t.Parallel()

	s, hw, rec := newTestScheduler(t)

	// 2100-01-01, one second past the two-digit year range.
	h, err := s.AddSingle(4102444800, noop)
	require.NoError(t, err)
	require.Equal(t, rtc.MatchOff, hw.Match())

	events := rec.Events()
	require.Len(t, events, 1)
	require.Equal(t, diag.KindNoPendingAlarm, events[0].Kind)
	require.Equal(t, h, events[0].Handle)
	require.Contains(t, events[0].Detail, "range")
}
