package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

type labelMap map[alarm.Handle]string

func (m labelMap) Label(event diag.Event) string {
	return m[event.Handle]
}

type failingRepository struct {
	calls int
}

func (r *failingRepository) Append(context.Context, Entry) error {
	r.calls++

	return errors.New("disk full")
}

func (r *failingRepository) Load(context.Context, Filter) ([]Entry, error) {
	return nil, nil
}

// TestSink_Report stores events with the run id and alarm labels.
func TestSink_Report(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	sink := NewSink(repo, "run-z", labelMap{2: "sprinkler"})

	sink.Report(diag.Event{Timestamp: base, Kind: diag.KindAlarmFired, Handle: 2, Epoch: 42})
	sink.Report(diag.Event{Timestamp: base, Kind: diag.KindDispatchInconsistency, Handle: alarm.InvalidHandle, Epoch: 43, Detail: "stale"})

	got, err := repo.Load(context.Background(), Filter{RunID: "run-z"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, diag.KindAlarmFired, got[0].Kind)
	require.Equal(t, "sprinkler", got[0].Label)
	require.Equal(t, int64(42), got[0].Epoch)

	require.Equal(t, diag.KindDispatchInconsistency, got[1].Kind)
	require.Empty(t, got[1].Label)
	require.Equal(t, "stale", got[1].Detail)
}

// TestSink_ReportSwallowsErrors keeps dispatch going when the journal fails.
func TestSink_ReportSwallowsErrors(t *testing.T) {
	t.Parallel()

	repo := new(failingRepository)
	sink := NewSink(repo, "run-z", nil)

	require.NotPanics(t, func() {
		sink.Report(diag.Event{Kind: diag.KindArmed, Handle: 1})
	})
	require.Equal(t, 1, repo.calls)
}
