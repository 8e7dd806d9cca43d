package alarm

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Handle is the slot id of an alarm in the registry.
// It stays valid until the slot is freed and is reused only after that.
type Handle int

// InvalidHandle is returned instead of a slot id when an alarm could not be added.
const InvalidHandle Handle = -1

// Valid reports whether the handle can address a slot in a registry of the given capacity.
func (h Handle) Valid(capacity int) bool {
	return h >= 0 && int(h) < capacity
}

// Callback is invoked when an alarm fires.
// It runs on the dispatcher and must not block or take long.
type Callback func()

// TimeUnit is a recurrence unit expressed in seconds.
type TimeUnit int64

// Supported recurrence units.
const (
	Second TimeUnit = 1
	Minute          = 60 * Second
	Hour            = 60 * Minute
	Day             = 24 * Hour
)

var (
	// ErrUnknownTimeUnit is returned by ParseTimeUnit for unsupported names.
	ErrUnknownTimeUnit = errors.New("unknown time unit")
	// ErrIntervalOverflow is returned when a recurrence does not fit in int64 seconds.
	ErrIntervalOverflow = errors.New("recurrence interval overflows")
)

// String returns the unit name.
func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	default:
		return fmt.Sprintf("%ds", int64(u))
	}
}

// ParseTimeUnit converts a unit name (singular or plural, case-insensitive) to a TimeUnit.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "second", "sec":
		return Second, nil
	case "minute", "min":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTimeUnit, s)
	}
}

// Interval returns the recurrence interval in seconds for count units.
func Interval(unit TimeUnit, count int64) (int64, error) {
	if unit <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTimeUnit, int64(unit))
	}

	if count > math.MaxInt64/int64(unit) || count < math.MinInt64/int64(unit) {
		return 0, fmt.Errorf("%w: %d %s", ErrIntervalOverflow, count, unit)
	}

	return int64(unit) * count, nil
}

// NextEpoch returns epoch + interval, or false when the sum does not fit in int64.
func NextEpoch(epoch, interval int64) (int64, bool) {
	if interval > 0 && epoch > math.MaxInt64-interval {
		return 0, false
	}

	return epoch + interval, true
}

// Record is one scheduled callback held in a registry slot.
type Record struct {
	// Epoch is the next firing time in seconds since the Unix epoch.
	Epoch int64
	// Callback is invoked on firing. Never nil while Enabled.
	Callback Callback
	// Enabled is false for free slots and fired one-shot alarms.
	Enabled bool
	// Recurring alarms are rescheduled by Interval after each firing.
	Recurring bool
	// Interval is the recurrence period in seconds, positive when Recurring.
	Interval int64
}

// Free reports whether the slot can be reused.
func (r *Record) Free() bool {
	return !r.Enabled
}

// Snapshot returns a callback-free copy of the record for the given handle.
func (r *Record) Snapshot(h Handle) Snapshot {
	return Snapshot{
		Handle:    h,
		Epoch:     r.Epoch,
		Recurring: r.Recurring,
		Interval:  r.Interval,
	}
}

// Snapshot is a read-only view of an enabled alarm.
type Snapshot struct {
	// Handle is the slot id of the alarm.
	Handle Handle
	// Epoch is the next firing time.
	Epoch int64
	// Recurring tells whether the alarm is rescheduled after firing.
	Recurring bool
	// Interval is the recurrence period in seconds.
	Interval int64
}
