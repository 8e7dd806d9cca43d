package scheduler

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/oshokin/rtc-alarm/internal/calendar"
)

// active is the single scheduler the alarm interrupt is routed to.
// Only one Scheduler per process can receive interrupts at a time.
//
//nolint:gochecknoglobals // The interrupt handler has no context pointer to carry the target.
var active atomic.Pointer[Scheduler]

// errNothingLatched means an activation ran with no matched epoch left to dispatch.
var errNothingLatched = errors.New("no latched alarm")

// latch holds the epoch matched by interrupts not yet dispatched.
type latch struct {
	// epoch is the earliest matched epoch.
	epoch int64
	// set tells whether epoch is meaningful.
	set bool
	// err records a latched register that could not be converted.
	err error
}

// interruptTrampoline is attached to the peripheral. It runs in interrupt
// context: it records the register value the peripheral matched and flags
// the bound scheduler, and never blocks.
func interruptTrampoline() {
	if s := active.Load(); s != nil {
		s.requestActivation(s.hw.Matched())
	}
}

// requestActivation latches the matched register and records a pending activation.
// Requests raised while one is pending are coalesced and keep the earliest epoch;
// later ones are caught up by the dispatcher.
func (s *Scheduler) requestActivation(matched calendar.DateTime) {
	epoch, err := calendar.ToEpoch(matched)

	s.irqMu.Lock()

	switch {
	case err != nil:
		if !s.latched.set {
			s.latched.err = err
		}
	case !s.latched.set || epoch < s.latched.epoch:
		s.latched = latch{epoch: epoch, set: true}
	}

	s.irqMu.Unlock()

	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// takeLatched hands the latched epoch to the dispatcher and clears the latch.
func (s *Scheduler) takeLatched() (int64, error) {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()

	l := s.latched
	s.latched = latch{}

	switch {
	case l.set:
		return l.epoch, nil
	case l.err != nil:
		return 0, l.err
	default:
		return 0, errNothingLatched
	}
}

// thresholdLocked is where facade re-arms start searching: the clock, or the
// latched epoch when an undispatched match lies before it. s.mu must be held.
func (s *Scheduler) thresholdLocked() int64 {
	threshold := s.hw.Now()

	s.irqMu.Lock()
	if s.latched.set && s.latched.epoch < threshold {
		threshold = s.latched.epoch
	}
	s.irqMu.Unlock()

	return threshold
}

// Enable binds s as the interrupt target and attaches the interrupt handler to
// its peripheral. A previously bound scheduler loses the binding and its
// peripheral's handler is detached first.
func (s *Scheduler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := active.Load(); prev != nil && prev != s {
		prev.hw.DetachInterrupt()
	}

	active.Store(s)
	s.hw.AttachInterrupt(interruptTrampoline)
}

// Disable detaches the interrupt handler and unbinds s if it is the current target.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active.Load() == s {
		s.hw.DetachInterrupt()
		active.CompareAndSwap(s, nil)
	}
}

// Bound reports whether s is the current interrupt target.
func (s *Scheduler) Bound() bool {
	return active.Load() == s
}

// HandlePending dispatches a pending activation, if any, without blocking.
// It is meant for hosts that own their event loop. It reports whether a dispatch ran.
func (s *Scheduler) HandlePending() bool {
	select {
	case <-s.pending:
		s.activate()

		return true
	default:
		return false
	}
}

// Run dispatches activations as they are requested until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
			s.activate()
		}
	}
}
