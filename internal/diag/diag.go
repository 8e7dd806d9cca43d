package diag

import (
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Kind classifies a diagnostic event.
type Kind uint8

// Event kinds.
const (
	// KindAlarmFired is reported after an alarm callback ran.
	KindAlarmFired Kind = iota + 1
	// KindArmed is reported when the peripheral was armed for an alarm.
	KindArmed
	// KindNoPendingAlarm is reported when re-arming found nothing to arm.
	KindNoPendingAlarm
	// KindDispatchInconsistency is reported when the interrupt fired but no alarm matched.
	KindDispatchInconsistency
	// KindCallbackPanic is reported when an alarm callback panicked.
	KindCallbackPanic
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAlarmFired:
		return "alarm_fired"
	case KindArmed:
		return "armed"
	case KindNoPendingAlarm:
		return "no_pending_alarm"
	case KindDispatchInconsistency:
		return "dispatch_inconsistency"
	case KindCallbackPanic:
		return "callback_panic"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k := KindAlarmFired; k <= KindCallbackPanic; k++ {
		if k.String() == s {
			return k, true
		}
	}

	return 0, false
}

// Event is one diagnostic record.
type Event struct {
	// Timestamp is when the event was reported.
	Timestamp time.Time
	// Kind classifies the event.
	Kind Kind
	// Handle is the alarm involved, or alarm.InvalidHandle.
	Handle alarm.Handle
	// Epoch is the alarm or matched epoch involved.
	Epoch int64
	// Detail is a free-form explanation.
	Detail string
}

// Sink receives diagnostic events.
// Report is called with the scheduler lock released and must not block.
type Sink interface {
	Report(event Event)
}

// Nop discards all events.
type Nop struct{}

// Report discards the event.
func (Nop) Report(Event) {}

// Multi fans events out to several sinks.
type Multi []Sink

// Report sends the event to every sink in order.
func (m Multi) Report(event Event) {
	for _, s := range m {
		if s != nil {
			s.Report(event)
		}
	}
}

// Recorder keeps every reported event in memory.
type Recorder struct {
	events []Event
	mu     sync.Mutex
}

// Report stores the event.
func (r *Recorder) Report(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}

	return n
}

// Compile-time interface satisfaction checks.
var (
	_ Sink = Nop{}
	_ Sink = Multi(nil)
	_ Sink = (*Recorder)(nil)
)
