package scheduler

import (
	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/rtc"
)

// rearmLocked points the peripheral at the soonest alarm not before threshold.
// With nothing to arm, matching is switched off so no stale target fires.
// s.mu must be held; the returned event is reported by the caller after unlocking.
func (s *Scheduler) rearmLocked(threshold int64) diag.Event {
	h, epoch, ok := s.reg.nextFrom(threshold)
	if !ok {
		s.hw.DisableAlarm()

		return s.event(diag.KindNoPendingAlarm, alarm.InvalidHandle, threshold, "no further alarms scheduled")
	}

	if err := s.armHardwareLocked(epoch); err != nil {
		s.hw.DisableAlarm()

		return s.event(diag.KindNoPendingAlarm, h, epoch, err.Error())
	}

	return s.event(diag.KindArmed, h, epoch, "")
}

// armHardwareLocked writes epoch to the alarm register and enables a full date-time match.
func (s *Scheduler) armHardwareLocked(epoch int64) error {
	fields, err := calendar.FromEpoch(epoch)
	if err != nil {
		return err
	}

	s.hw.SetAlarm(fields)
	s.hw.EnableAlarm(rtc.MatchYYMMDDHHMMSS)

	return nil
}
