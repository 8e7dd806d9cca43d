package simulator

import (
	"context"
	"sync"
	"sync/atomic"

	api "github.com/oshokin/rtc-alarm/internal/api/grpc/scheduler"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
	"github.com/oshokin/rtc-alarm/internal/rtc"
	"github.com/oshokin/rtc-alarm/internal/scheduler"
)

// meta is what the simulator knows about an alarm beyond the scheduler record.
type meta struct {
	label string
	owner string
}

// service implements the transport's Service on top of a Scheduler.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// ctx carries the logger used by alarm callbacks.
	ctx context.Context //nolint:containedctx // Callbacks run on the dispatcher without a request context.
	// sched is the alarm scheduler.
	sched *scheduler.Scheduler
	// hw is the simulated peripheral the scheduler arms.
	hw *rtc.Soft
	// meta maps handles to labels and owners.
	meta map[alarm.Handle]meta
	// adding is the label of the alarm being added, reported before its handle is known.
	adding *meta
	// firing is the alarm whose callback ran last on the dispatcher, until its
	// outcome is labeled.
	firing *meta
	// fired counts callback invocations.
	fired atomic.Uint64
	// addMu serializes AddAlarm.
	addMu sync.Mutex
	// mu protects meta and adding.
	mu sync.RWMutex
}

// Compile-time interface satisfaction check.
var _ api.Service = (*service)(nil)

// newService creates a service for hw. The scheduler is attached with attach.
func newService(ctx context.Context, hw *rtc.Soft) *service {
	return &service{
		ctx:  ctx,
		hw:   hw,
		meta: make(map[alarm.Handle]meta),
	}
}

// attach sets the scheduler the service drives.
func (s *service) attach(sched *scheduler.Scheduler) {
	s.sched = sched
}

// Label implements journal.Labeler.
// Fired and panic events take the label of the callback that just ran; its slot
// may already be freed and handed to another alarm. Arming events for a handle
// not yet recorded belong to the alarm being added.
func (s *service) Label(event diag.Event) string {
	if event.Handle == alarm.InvalidHandle {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Kind {
	case diag.KindAlarmFired, diag.KindCallbackPanic:
		if s.firing != nil {
			label := s.firing.label
			s.firing = nil

			return label
		}
	case diag.KindArmed, diag.KindNoPendingAlarm:
		if _, ok := s.meta[event.Handle]; !ok && s.adding != nil {
			return s.adding.label
		}
	}

	return s.meta[event.Handle].label
}

// label returns the recorded label of a scheduled alarm.
func (s *service) label(h alarm.Handle) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.meta[h].label
}

// AddAlarm schedules an alarm whose callback logs its label and owner.
func (s *service) AddAlarm(ctx context.Context, req api.NewAlarm) (alarm.Handle, error) {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	m := meta{label: req.Label, owner: req.Owner}

	s.mu.Lock()
	s.pruneLocked()
	s.adding = &m
	s.mu.Unlock()

	var (
		h        = alarm.InvalidHandle
		interval int64
		err      error
	)

	if req.Recurring() {
		interval, err = alarm.Interval(req.Unit, req.Count)
	}

	if err == nil {
		h, err = s.sched.AddAlarm(req.Epoch, s.callback(m), req.Recurring(), interval)
	}

	s.mu.Lock()
	s.adding = nil

	if err == nil {
		s.meta[h] = m
	}
	s.mu.Unlock()

	if err != nil {
		logger.WarnKV(ctx, "Alarm rejected", "label", req.Label, "owner", req.Owner, "error", err)

		return alarm.InvalidHandle, err
	}

	logger.InfoKV(ctx, "Alarm added",
		"handle", int(h),
		"label", req.Label,
		"owner", req.Owner,
		"epoch", req.Epoch,
		"recurring", req.Recurring(),
	)

	return h, nil
}

// ClearAlarm frees an alarm slot.
func (s *service) ClearAlarm(ctx context.Context, h alarm.Handle) error {
	if err := s.sched.ClearAlarm(h); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.meta, h)
	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm cleared", "handle", int(h))

	return nil
}

// ClearExpired frees every alarm before threshold.
func (s *service) ClearExpired(ctx context.Context, threshold int64) int {
	n := s.sched.ClearExpired(threshold)

	logger.InfoKV(ctx, "Expired alarms cleared", "threshold", threshold, "count", n)

	return n
}

// NextAlarm reports the alarm register, whether matching is on, and the simulated clock.
func (s *service) NextAlarm(context.Context) (api.Next, error) {
	epoch, err := s.sched.NextAlarmEpoch()
	if err != nil {
		return api.Next{}, err
	}

	return api.Next{
		Epoch: epoch,
		Armed: s.hw.Match() != rtc.MatchOff,
		Clock: s.hw.Now(),
	}, nil
}

// ListAlarms returns scheduled alarms with their labels.
func (s *service) ListAlarms(context.Context) []api.Alarm {
	snapshots := s.sched.Alarms()

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]api.Alarm, 0, len(snapshots))
	for _, snap := range snapshots {
		m := s.meta[snap.Handle]
		result = append(result, api.Alarm{
			Snapshot: snap,
			Label:    m.label,
			Owner:    m.owner,
		})
	}

	return result
}

// Fired returns how many alarm callbacks ran.
func (s *service) Fired() uint64 {
	return s.fired.Load()
}

// callback builds the function the scheduler invokes when the alarm fires.
func (s *service) callback(m meta) alarm.Callback {
	return func() {
		s.mu.Lock()
		s.firing = &m
		s.mu.Unlock()

		s.fired.Add(1)

		logger.InfoKV(s.ctx, "Alarm fired", "label", m.label, "owner", m.owner, "clock", s.hw.Now())
	}
}

// pruneLocked forgets labels of slots the scheduler no longer holds. s.mu must be held.
func (s *service) pruneLocked() {
	live := make(map[alarm.Handle]struct{}, len(s.meta))
	for _, snap := range s.sched.Alarms() {
		live[snap.Handle] = struct{}{}
	}

	for h := range s.meta {
		if _, ok := live[h]; !ok {
			delete(s.meta, h)
		}
	}
}
