package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/rtc-alarm/internal/config"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/repository/journal"
	"github.com/oshokin/rtc-alarm/internal/service/common"
	"github.com/oshokin/rtc-alarm/internal/service/ctl"
	"github.com/oshokin/rtc-alarm/internal/service/simulator"
)

// start is 2026-10-17 12:34:56 UTC.
const start int64 = 1792240496

// startSimulator runs the real simulator with a fast clock and returns its address
// and a stop function that waits for a clean shutdown.
func startSimulator(t *testing.T, journalPath string) (string, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		ListenAddress: "127.0.0.1:0",
		JournalFile:   journalPath,
		LogLevel:      "warn",
		Capacity:      4,
		TickInterval:  20 * time.Millisecond,
		Timeout:       3 * time.Second,
	}))

	ready := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		errCh <- simulator.Run(ctx, &simulator.Options{
			ConfigPath:    cfgPath,
			StartEpoch:    start,
			AllowMultiple: true,
			Ready:         func(addr string) { ready <- addr },
		})
	}()

	select {
	case addr := <-ready:
		return addr, func() {
			cancel()
			require.NoError(t, <-errCh)
		}
	case err := <-errCh:
		cancel()
		t.Fatalf("simulator exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("simulator did not start")
	}

	return "", nil
}

// TestGRPC_Roundtrip drives the simulator through the ctl controller and
// checks the alarms fire in order and land in the on-disk journal.
func TestGRPC_Roundtrip(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.cbor")
	addr, stop := startSimulator(t, journalPath)

	ctx := context.Background()

	client, err := common.Dial(ctx, addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	out := new(bytes.Buffer)
	c := ctl.New(client, out, "tester@host")

	_, err = c.Add(ctx, ctl.AddRequest{Label: "second", When: "+30s"})
	require.NoError(t, err)

	_, err = c.Add(ctx, ctl.AddRequest{Label: "first", When: "+20s"})
	require.NoError(t, err)

	pulse, err := c.Add(ctx, ctl.AddRequest{Label: "pulse", When: "+10s", Every: 5, Unit: "second"})
	require.NoError(t, err)

	// Capacity is 4: one slot left, then the registry is full.
	_, err = c.Add(ctx, ctl.AddRequest{Label: "far", When: "+1h"})
	require.NoError(t, err)

	_, err = c.Add(ctx, ctl.AddRequest{Label: "overflow", When: "+2h"})
	require.ErrorContains(t, err, "ResourceExhausted")

	require.Eventually(t, func() bool {
		alarms, listErr := client.ListAlarms(ctx)

		return listErr == nil && len(alarms) == 2
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, c.Clear(ctx, pulse))

	_, err = c.List(ctx)
	require.NoError(t, err)
	require.Contains(t, out.String(), "far")

	stop()

	fired := diag.KindAlarmFired

	entries, err := journal.ReadAll(ctx, afero.NewOsFs(), journalPath, journal.Filter{Kind: &fired})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 3)

	var (
		labels []string
		pulses []int64
	)

	for _, e := range entries {
		if e.Label == "pulse" {
			pulses = append(pulses, e.Epoch)
		} else {
			labels = append(labels, e.Label)
		}
	}

	require.Equal(t, []string{"first", "second"}, labels)
	require.Equal(t, "pulse", entries[0].Label)
	require.GreaterOrEqual(t, len(pulses), 2)

	for i := 1; i < len(pulses); i++ {
		require.Equal(t, pulses[i-1]+5, pulses[i])
	}
}
