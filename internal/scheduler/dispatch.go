package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// activate handles one pending activation using the epoch latched when the interrupt fired.
func (s *Scheduler) activate() {
	matched, err := s.takeLatched()
	switch {
	case errors.Is(err, errNothingLatched):
		// Coalesced with an activation that already consumed the latch.
		return
	case err != nil:
		s.report(s.event(diag.KindDispatchInconsistency, alarm.InvalidHandle, 0, err.Error()))

		return
	}

	s.dispatch(matched)
}

// dispatch fires every enabled alarm at the matched epoch once, in ascending handle order.
// Callbacks run without the lock held, so they may call back into the Scheduler.
// Alarms that came due while dispatch lagged behind the clock are fired next,
// then the peripheral is re-armed from the last dispatched epoch.
// A matched epoch with no alarm is reported and dispatch moves on.
func (s *Scheduler) dispatch(matched int64) {
	s.mu.Lock()
	_, ok := s.reg.findAt(matched)
	s.mu.Unlock()

	if !ok {
		s.report(s.event(
			diag.KindDispatchInconsistency,
			alarm.InvalidHandle,
			matched,
			"interrupt fired but no alarm matches the armed epoch",
		))
	}

	for {
		for {
			h, cb, due := s.takeDue(matched)
			if !due {
				break
			}

			s.invoke(h, cb, matched)
		}

		s.mu.Lock()
		s.dropLatchedThrough(matched)

		if next, overdue := s.overdueLocked(matched); overdue {
			s.mu.Unlock()

			matched = next

			continue
		}

		event := s.rearmLocked(matched)
		s.mu.Unlock()

		s.report(event)

		return
	}
}

// overdueLocked returns the soonest alarm after epoch that the clock has already passed.
// s.mu must be held.
func (s *Scheduler) overdueLocked(epoch int64) (int64, bool) {
	if epoch == math.MaxInt64 {
		return 0, false
	}

	_, next, found := s.reg.nextFrom(epoch + 1)
	if !found || next > s.hw.Now() {
		return 0, false
	}

	return next, true
}

// dropLatchedThrough clears a latched epoch the running dispatch has already covered.
func (s *Scheduler) dropLatchedThrough(epoch int64) {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()

	if s.latched.set && s.latched.epoch <= epoch {
		s.latched = latch{}
	}
}

// takeDue claims the lowest enabled alarm at epoch: one-shots are disabled,
// recurring alarms move to epoch + interval. The claimed callback is returned.
// A recurring alarm whose next epoch would overflow is disabled after this run.
func (s *Scheduler) takeDue(epoch int64) (alarm.Handle, alarm.Callback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.reg.findAt(epoch)
	if !ok {
		return alarm.InvalidHandle, nil, false
	}

	rec := &s.reg.slots[h]
	if next, fits := alarm.NextEpoch(epoch, rec.Interval); rec.Recurring && fits {
		rec.Epoch = next
	} else {
		rec.Enabled = false
	}

	return h, rec.Callback, true
}

// invoke runs a callback and reports the outcome. A panic is recovered and reported.
func (s *Scheduler) invoke(h alarm.Handle, cb alarm.Callback, epoch int64) {
	defer func() {
		if r := recover(); r != nil {
			s.report(s.event(diag.KindCallbackPanic, h, epoch, fmt.Sprint(r)))
		}
	}()

	cb()

	s.report(s.event(diag.KindAlarmFired, h, epoch, ""))
}
