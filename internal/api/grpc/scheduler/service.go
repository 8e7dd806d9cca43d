package scheduler

import (
	"context"

	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	AddAlarm(ctx context.Context, req NewAlarm) (alarm.Handle, error)
	ClearAlarm(ctx context.Context, h alarm.Handle) error
	ClearExpired(ctx context.Context, threshold int64) int
	NextAlarm(ctx context.Context) (Next, error)
	ListAlarms(ctx context.Context) []Alarm
}

// NewAlarm is a request to schedule an alarm.
type NewAlarm struct {
	// Label names the alarm in logs and the journal.
	Label string
	// Owner is the user@host that requested the alarm.
	Owner string
	// Epoch is the first firing time in Unix seconds.
	Epoch int64
	// Unit is the recurrence unit; ignored when Count is zero.
	Unit alarm.TimeUnit
	// Count is the number of units between firings; zero means one-shot.
	Count int64
}

// Recurring reports whether the request describes a recurring alarm.
func (n NewAlarm) Recurring() bool {
	return n.Count > 0
}

// Alarm is a scheduled alarm as listed by the server.
type Alarm struct {
	alarm.Snapshot

	// Label names the alarm.
	Label string
	// Owner is the user@host that requested the alarm.
	Owner string
}

// Next describes the peripheral's alarm register and clock.
type Next struct {
	// Epoch is the value held by the alarm register.
	Epoch int64
	// Armed is false when matching is switched off.
	Armed bool
	// Clock is the peripheral's current time in Unix seconds.
	Clock int64
}
