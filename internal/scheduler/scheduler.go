package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/rtc"
)

// DefaultCapacity is the number of registry slots when WithCapacity is not given.
const DefaultCapacity = 100

// Scheduler keeps the peripheral's single alarm register pointed at the soonest pending alarm.
type Scheduler struct {
	// hw is the RTC peripheral; only its alarm register and interrupt line are used.
	hw rtc.Peripheral
	// reg holds every alarm slot.
	reg registry
	// sink receives dispatch-time conditions.
	sink diag.Sink
	// clock stamps diagnostic events.
	clock func() time.Time
	// pending holds at most one activation request raised by the interrupt.
	pending chan struct{}
	// latched is the matched epoch waiting for dispatch, guarded by irqMu.
	latched latch
	// mu is the critical section around reg and every alarm register access.
	mu sync.Mutex
	// irqMu guards latched. It is the only lock the interrupt handler takes
	// and may be taken while mu is held, never the other way round.
	irqMu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCapacity sets the number of registry slots. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(s *Scheduler) {
		if capacity > 0 {
			s.reg = newRegistry(capacity)
		}
	}
}

// WithSink sets the diagnostics sink.
func WithSink(sink diag.Sink) Option {
	return func(s *Scheduler) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithClock sets the clock used to timestamp diagnostic events.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a Scheduler bound as the interrupt target with the peripheral disarmed.
// The binding is process-wide: a scheduler created earlier loses it and its
// peripheral's interrupt handler is detached, as with Enable.
func New(hw rtc.Peripheral, opts ...Option) *Scheduler {
	s := &Scheduler{
		hw:      hw,
		reg:     newRegistry(DefaultCapacity),
		sink:    diag.Nop{},
		clock:   time.Now,
		pending: make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Enable()

	s.mu.Lock()
	s.hw.SetAlarm(calendar.Zero())
	s.hw.DisableAlarm()
	s.mu.Unlock()

	return s
}

// Capacity returns the number of registry slots.
func (s *Scheduler) Capacity() int {
	return len(s.reg.slots)
}

// AddAlarm stores an alarm in the first free slot and re-arms the peripheral
// from the current clock, so an alarm sooner than the armed one preempts it.
// While a matched interrupt waits for dispatch, the re-arm starts at its epoch instead.
// On failure the returned handle is alarm.InvalidHandle and the registry is unchanged.
func (s *Scheduler) AddAlarm(epoch int64, cb alarm.Callback, recurring bool, interval int64) (alarm.Handle, error) {
	if cb == nil {
		return alarm.InvalidHandle, ErrNilCallback
	}

	if recurring && interval <= 0 {
		return alarm.InvalidHandle, fmt.Errorf("%w: got %d", ErrZeroInterval, interval)
	}

	if !recurring {
		interval = 0
	}

	if _, ok := alarm.NextEpoch(epoch, interval); !ok {
		return alarm.InvalidHandle, fmt.Errorf("%w: %d + %d", alarm.ErrIntervalOverflow, epoch, interval)
	}

	s.mu.Lock()

	h, ok := s.reg.allocate()
	if !ok {
		s.mu.Unlock()

		return alarm.InvalidHandle, ErrCapacityExceeded
	}

	s.reg.slots[h] = alarm.Record{
		Epoch:     epoch,
		Callback:  cb,
		Enabled:   true,
		Recurring: recurring,
		Interval:  interval,
	}

	event := s.rearmLocked(s.thresholdLocked())
	s.mu.Unlock()

	s.report(event)

	return h, nil
}

// AddSingle adds a one-shot alarm at epoch.
func (s *Scheduler) AddSingle(epoch int64, cb alarm.Callback) (alarm.Handle, error) {
	return s.AddAlarm(epoch, cb, false, 0)
}

// AddSingleAt adds a one-shot alarm at the given date-time.
func (s *Scheduler) AddSingleAt(at calendar.DateTime, cb alarm.Callback) (alarm.Handle, error) {
	epoch, err := calendar.ToEpoch(at)
	if err != nil {
		return alarm.InvalidHandle, err
	}

	return s.AddSingle(epoch, cb)
}

// AddRecurring adds an alarm first firing at epoch and then every count units.
func (s *Scheduler) AddRecurring(epoch int64, unit alarm.TimeUnit, count int64, cb alarm.Callback) (alarm.Handle, error) {
	interval, err := alarm.Interval(unit, count)
	if err != nil {
		return alarm.InvalidHandle, err
	}

	return s.AddAlarm(epoch, cb, true, interval)
}

// AddRecurringAt adds a recurring alarm first firing at the given date-time.
func (s *Scheduler) AddRecurringAt(
	at calendar.DateTime,
	unit alarm.TimeUnit,
	count int64,
	cb alarm.Callback,
) (alarm.Handle, error) {
	epoch, err := calendar.ToEpoch(at)
	if err != nil {
		return alarm.InvalidHandle, err
	}

	return s.AddRecurring(epoch, unit, count, cb)
}

// ClearAlarm frees the slot and re-arms the peripheral from the current clock,
// or from a matched epoch still waiting for dispatch.
func (s *Scheduler) ClearAlarm(h alarm.Handle) error {
	if !h.Valid(s.Capacity()) {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	s.mu.Lock()
	s.reg.slots[h].Enabled = false
	event := s.rearmLocked(s.thresholdLocked())
	s.mu.Unlock()

	s.report(event)

	return nil
}

// ClearExpired frees every slot whose epoch is before threshold, recurring or not.
// It does not re-arm the peripheral. It returns the number of alarms freed.
func (s *Scheduler) ClearExpired(threshold int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reg.clearBefore(threshold)
}

// NextAlarmFrom returns the pending alarm with the smallest epoch not before threshold.
// Ties resolve to the lowest handle.
func (s *Scheduler) NextAlarmFrom(threshold int64) (alarm.Handle, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reg.nextFrom(threshold)
}

// NextAlarmEpoch returns the epoch currently held by the peripheral's alarm register.
// It can differ from the registry's soonest alarm until the next re-arm.
func (s *Scheduler) NextAlarmEpoch() (int64, error) {
	s.mu.Lock()
	fields := s.hw.Alarm()
	s.mu.Unlock()

	return calendar.ToEpoch(fields)
}

// Alarms returns the enabled alarms in handle order.
func (s *Scheduler) Alarms() []alarm.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reg.snapshots()
}

// report forwards event to the sink. It must be called without s.mu held.
func (s *Scheduler) report(event diag.Event) {
	s.sink.Report(event)
}

// event builds a diagnostic event stamped with the scheduler clock.
func (s *Scheduler) event(kind diag.Kind, h alarm.Handle, epoch int64, detail string) diag.Event {
	return diag.Event{
		Timestamp: s.clock(),
		Kind:      kind,
		Handle:    h,
		Epoch:     epoch,
		Detail:    detail,
	}
}
