package journal

import (
	"time"

	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// Filter selects journal entries. Zero-valued fields match every entry.
type Filter struct {
	// RunID matches one simulator run.
	RunID string
	// Kind matches one event kind.
	Kind *diag.Kind
	// Handle matches one alarm slot.
	Handle *alarm.Handle
	// Label matches one alarm label.
	Label string
	// Since matches entries at or after this time.
	Since time.Time
	// Until matches entries before this time.
	Until time.Time
}

// Matches reports whether e satisfies every criterion of f.
func (f *Filter) Matches(e Entry) bool {
	switch {
	case f.RunID != "" && e.RunID != f.RunID:
		return false
	case f.Kind != nil && e.Kind != *f.Kind:
		return false
	case f.Handle != nil && e.Handle != *f.Handle:
		return false
	case f.Label != "" && e.Label != f.Label:
		return false
	case !f.Since.IsZero() && e.Timestamp.Before(f.Since):
		return false
	case !f.Until.IsZero() && !e.Timestamp.Before(f.Until):
		return false
	}

	return true
}
