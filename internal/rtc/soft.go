package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/rtc-alarm/internal/calendar"
)

// Soft is a simulated RTC peripheral.
// Its clock only moves when Tick, Advance or Set is called.
type Soft struct {
	// now is the clock value in epoch seconds.
	now int64
	// alarm is the alarm date-time register.
	alarm calendar.DateTime
	// matched is the alarm register latched at the last raised interrupt.
	matched calendar.DateTime
	// match is the active match granularity.
	match MatchGranularity
	// handler is the attached interrupt handler.
	handler func()
	// fired counts raised interrupts.
	fired uint64
	// mu protects the registers above.
	mu sync.Mutex
	// irq is held while an interrupt is latched and its handler runs.
	// DetachInterrupt takes it, so no handler is in flight once it returns.
	irq sync.Mutex
}

// Compile-time interface satisfaction check.
var _ Peripheral = (*Soft)(nil)

// NewSoft creates a simulated peripheral with its clock set to start.
func NewSoft(start int64) *Soft {
	return &Soft{
		now:     start,
		alarm:   calendar.Zero(),
		matched: calendar.Zero(),
	}
}

// Now returns the clock value.
func (s *Soft) Now() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

// Set moves the clock to epoch without raising interrupts.
func (s *Soft) Set(epoch int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = epoch
}

// SetAlarm writes the alarm register.
func (s *Soft) SetAlarm(d calendar.DateTime) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarm = d
}

// Alarm reads the alarm register.
func (s *Soft) Alarm() calendar.DateTime {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.alarm
}

// EnableAlarm turns on matching at granularity m.
func (s *Soft) EnableAlarm(m MatchGranularity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match = m
}

// DisableAlarm turns off matching.
func (s *Soft) DisableAlarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match = MatchOff
}

// Match returns the active match granularity.
func (s *Soft) Match() MatchGranularity {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.match
}

// AttachInterrupt installs the alarm handler.
func (s *Soft) AttachInterrupt(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handler = handler
}

// DetachInterrupt removes the alarm handler and waits for a running one to return.
func (s *Soft) DetachInterrupt() {
	s.irq.Lock()
	defer s.irq.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.handler = nil
}

// Fired returns how many interrupts have been raised.
func (s *Soft) Fired() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fired
}

// Matched returns the alarm register latched when the last interrupt was raised.
func (s *Soft) Matched() calendar.DateTime {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.matched
}

// Tick advances the clock by one second and raises the interrupt when the alarm matches.
// The matching register value is latched first. The handler runs on the caller's
// goroutine, outside the register lock.
func (s *Soft) Tick() {
	s.irq.Lock()
	defer s.irq.Unlock()

	s.mu.Lock()

	s.now++

	handler := s.handler
	if handler == nil || !s.matchesLocked() {
		s.mu.Unlock()
		return
	}

	s.fired++
	s.matched = s.alarm
	s.mu.Unlock()

	handler()
}

// Advance ticks n times.
func (s *Soft) Advance(n int) {
	for range n {
		s.Tick()
	}
}

// Run ticks once per interval until ctx is canceled.
func (s *Soft) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// matchesLocked compares the clock with the alarm register. s.mu must be held.
func (s *Soft) matchesLocked() bool {
	if s.match == MatchOff {
		return false
	}

	clock, err := calendar.FromEpoch(s.now)
	if err != nil {
		return false
	}

	return s.match.Matches(clock, s.alarm)
}
