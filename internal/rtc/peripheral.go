package rtc

import "github.com/oshokin/rtc-alarm/internal/calendar"

// MatchGranularity selects which alarm fields must equal the clock for the alarm to fire.
type MatchGranularity uint8

// Match granularities supported by the peripheral, from coarse to full.
const (
	MatchOff MatchGranularity = iota
	MatchSS
	MatchMMSS
	MatchHHMMSS
	MatchDDHHMMSS
	MatchMMDDHHMMSS
	MatchYYMMDDHHMMSS
)

// String returns the granularity name.
func (m MatchGranularity) String() string {
	switch m {
	case MatchOff:
		return "off"
	case MatchSS:
		return "ss"
	case MatchMMSS:
		return "mmss"
	case MatchHHMMSS:
		return "hhmmss"
	case MatchDDHHMMSS:
		return "ddhhmmss"
	case MatchMMDDHHMMSS:
		return "mmddhhmmss"
	case MatchYYMMDDHHMMSS:
		return "yymmddhhmmss"
	default:
		return "unknown"
	}
}

// Matches reports whether clock satisfies alarm at this granularity.
func (m MatchGranularity) Matches(clock, alarm calendar.DateTime) bool {
	if m == MatchOff || m > MatchYYMMDDHHMMSS {
		return false
	}

	checks := []bool{
		clock.Second == alarm.Second,
		clock.Minute == alarm.Minute,
		clock.Hour == alarm.Hour,
		clock.Day == alarm.Day,
		clock.Month == alarm.Month,
		clock.YearsFrom2000 == alarm.YearsFrom2000,
	}

	for _, ok := range checks[:m] {
		if !ok {
			return false
		}
	}

	return true
}

// Peripheral is the RTC hardware boundary.
// The scheduler only touches the alarm register, its match mode and the interrupt line.
type Peripheral interface {
	// Now returns the current clock value in epoch seconds.
	Now() int64
	// SetAlarm writes the alarm date-time register.
	SetAlarm(d calendar.DateTime)
	// Alarm reads back the alarm date-time register.
	Alarm() calendar.DateTime
	// Matched returns the alarm register value latched when the interrupt was last raised.
	// It stays put when the register is rewritten before the handler is serviced.
	Matched() calendar.DateTime
	// EnableAlarm turns on alarm matching at the given granularity.
	EnableAlarm(m MatchGranularity)
	// DisableAlarm turns off alarm matching.
	DisableAlarm()
	// AttachInterrupt installs the alarm interrupt handler.
	AttachInterrupt(handler func())
	// DetachInterrupt removes the alarm interrupt handler.
	DetachInterrupt()
}
