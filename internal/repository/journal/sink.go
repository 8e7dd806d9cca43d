package journal

import (
	"context"

	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
)

// Labeler names the alarm an event is about.
// It gets the whole event so the label of a fired alarm can come from the
// invocation itself rather than from a slot that may already be reused.
type Labeler interface {
	Label(event diag.Event) string
}

// Sink adapts a Repository into a diag.Sink.
// Append failures are logged and otherwise dropped.
type Sink struct {
	repo   Repository
	runID  string
	labels Labeler
}

// Compile-time interface satisfaction check.
var _ diag.Sink = (*Sink)(nil)

// NewSink returns a sink appending every event to repo under runID.
// labels may be nil.
func NewSink(repo Repository, runID string, labels Labeler) *Sink {
	return &Sink{
		repo:   repo,
		runID:  runID,
		labels: labels,
	}
}

// Report appends the event.
func (s *Sink) Report(event diag.Event) {
	var label string
	if s.labels != nil && event.Handle != alarm.InvalidHandle {
		label = s.labels.Label(event)
	}

	ctx := context.Background()
	if err := s.repo.Append(ctx, FromEvent(s.runID, label, event)); err != nil {
		logger.WarnKV(ctx, "Failed to append journal entry", "kind", event.Kind.String(), "error", err)
	}
}
