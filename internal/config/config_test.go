package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
)

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	// Missing address.
	require.ErrorIs(t, Validate(new(Config)), errListenAddressRequired)

	// Bad address.
	require.Error(t, Validate(&Config{ListenAddress: "bad:address"}))

	cases := []struct {
		name string
		cfg  Config
		err  error
	}{
		{
			name: "unknown log level",
			cfg:  Config{ListenAddress: "127.0.0.1:0", LogLevel: "loud"},
			err:  errUnknownLogLevel,
		},
		{
			name: "unknown diag level",
			cfg:  Config{ListenAddress: "127.0.0.1:0", DiagLevel: "trace"},
			err:  errUnknownLogLevel,
		},
		{
			name: "capacity too large",
			cfg:  Config{ListenAddress: "127.0.0.1:0", Capacity: MaxCapacity + 1},
			err:  errCapacityOutOfRange,
		},
		{
			name: "negative capacity",
			cfg:  Config{ListenAddress: "127.0.0.1:0", Capacity: -1},
			err:  errCapacityOutOfRange,
		},
		{
			name: "alarm without time",
			cfg:  Config{ListenAddress: "127.0.0.1:0", Alarms: []BootAlarm{{Label: "x"}}},
			err:  errAlarmTimeRequired,
		},
		{
			name: "alarm with bad date",
			cfg:  Config{ListenAddress: "127.0.0.1:0", Alarms: []BootAlarm{{At: "2026-02-30 00:00:00"}}},
			err:  calendar.ErrInvalidDateTime,
		},
		{
			name: "alarm with unknown unit",
			cfg:  Config{ListenAddress: "127.0.0.1:0", Alarms: []BootAlarm{{Epoch: 1, Every: 1, Unit: "fortnight"}}},
			err:  alarm.ErrUnknownTimeUnit,
		},
		{
			name: "alarm with negative count",
			cfg:  Config{ListenAddress: "127.0.0.1:0", Alarms: []BootAlarm{{Epoch: 1, Every: -2, Unit: "second"}}},
			err:  errAlarmEveryNegative,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := tc.cfg
			require.ErrorIs(t, Validate(&cfg), tc.err)
		})
	}
}

// TestValidate_Defaults ensures omitted fields are filled.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := &Config{ListenAddress: "127.0.0.1:50051"}
	require.NoError(t, Validate(settings))

	require.Equal(t, DefaultJournalFilename, settings.JournalFile)
	require.Equal(t, DefaultLogLevel, settings.LogLevel)
	require.Equal(t, DefaultCapacity, settings.Capacity)
	require.Equal(t, DefaultTickInterval, settings.TickInterval)
	require.Equal(t, DefaultTimeout, settings.Timeout)
}

// TestBootAlarm resolves first epochs and intervals.
func TestBootAlarm(t *testing.T) {
	t.Parallel()

	a := BootAlarm{Label: "watering", At: "2026-10-17 12:34:56", Every: 2, Unit: "hours"}

	epoch, err := a.FirstEpoch()
	require.NoError(t, err)
	require.Equal(t, int64(1792240496), epoch)

	interval, err := a.Interval()
	require.NoError(t, err)
	require.Equal(t, int64(7200), interval)

	// Epoch is used when At is empty; zero Every is one-shot.
	a = BootAlarm{Epoch: 1792240496}

	epoch, err = a.FirstEpoch()
	require.NoError(t, err)
	require.Equal(t, int64(1792240496), epoch)

	interval, err = a.Interval()
	require.NoError(t, err)
	require.Zero(t, interval)

	_, err = BootAlarm{Epoch: 1792240496, Every: 1 << 50, Unit: "day"}.Interval()
	require.ErrorIs(t, err, alarm.ErrIntervalOverflow)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ListenAddress: "127.0.0.1:50051",
		JournalFile:   filepath.Join(dir, "journal.cbor"),
		LogLevel:      "debug",
		DiagLevel:     "warn",
		Capacity:      16,
		TickInterval:  250 * time.Millisecond,
		Alarms: []BootAlarm{
			{Label: "heartbeat", Epoch: 1792240496, Every: 30, Unit: "second"},
			{Label: "report", At: "2026-10-18 00:00:00"},
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_Missing reports a read error.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
