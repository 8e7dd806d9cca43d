package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
)

// Config holds the settings shared by the rtcalarm binaries.
type Config struct {
	// ListenAddress is the gRPC address the simulator serves and the client dials.
	ListenAddress string `yaml:"listen_addr"`
	// JournalFile is the path to the CBOR journal of dispatch events.
	JournalFile string `yaml:"journal_file"`
	// LogLevel is the minimum level of the application logger.
	LogLevel string `yaml:"log_level"`
	// DiagLevel optionally overrides the level of the diagnostics logger.
	DiagLevel string `yaml:"diag_level,omitempty"`
	// Capacity is the number of alarm slots in the scheduler registry.
	Capacity int `yaml:"capacity"`
	// TickInterval is the wall-clock period of one simulated RTC second.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// Alarms are registered when the simulator starts.
	Alarms []BootAlarm `yaml:"alarms,omitempty"`
}

// BootAlarm describes an alarm registered at simulator start.
type BootAlarm struct {
	// Label names the alarm in logs and the journal.
	Label string `yaml:"label"`
	// At is the first firing time in calendar.Layout form (UTC).
	At string `yaml:"at,omitempty"`
	// Epoch is the first firing time in Unix seconds, used when At is empty.
	Epoch int64 `yaml:"epoch,omitempty"`
	// Every is the recurrence count; zero means one-shot.
	Every int64 `yaml:"every,omitempty"`
	// Unit is the recurrence unit: second, minute, hour or day.
	Unit string `yaml:"unit,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "rtcalarm-settings.yaml"

	// DefaultJournalFilename is the default filename for the event journal.
	DefaultJournalFilename = "rtcalarm-journal.cbor"

	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultCapacity is the registry size used when none is configured.
	DefaultCapacity = 100

	// MaxCapacity bounds the registry size.
	MaxCapacity = 1024

	// DefaultTickInterval is one simulated second per wall-clock second.
	DefaultTickInterval = time.Second

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config and journal files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errListenAddressRequired is returned when the listen address is missing.
	errListenAddressRequired = errors.New("listen address must be provided")
	// errUnknownLogLevel is returned for a level logger.ParseLogLevel does not know.
	errUnknownLogLevel = errors.New("unknown log level")
	// errCapacityOutOfRange is returned for a capacity outside 1..MaxCapacity.
	errCapacityOutOfRange = errors.New("capacity out of range")
	// errAlarmTimeRequired is returned when a boot alarm has neither at nor epoch.
	errAlarmTimeRequired = errors.New("alarm needs either at or epoch")
	// errAlarmEveryNegative is returned for a negative recurrence count.
	errAlarmEveryNegative = errors.New("alarm every must not be negative")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ListenAddress == "" {
		return errListenAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if settings.JournalFile == "" {
		settings.JournalFile = DefaultJournalFilename
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if settings.DiagLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.DiagLevel); !ok {
			return fmt.Errorf("%w: diag %q", errUnknownLogLevel, settings.DiagLevel)
		}
	}

	if settings.Capacity == 0 {
		settings.Capacity = DefaultCapacity
	}

	if settings.Capacity < 1 || settings.Capacity > MaxCapacity {
		return fmt.Errorf("%w: %d not in 1..%d", errCapacityOutOfRange, settings.Capacity, MaxCapacity)
	}

	if settings.TickInterval <= 0 {
		settings.TickInterval = DefaultTickInterval
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	for i, a := range settings.Alarms {
		if _, err := a.FirstEpoch(); err != nil {
			return fmt.Errorf("alarm %d (%s): %w", i, a.Label, err)
		}

		if _, err := a.Interval(); err != nil {
			return fmt.Errorf("alarm %d (%s): %w", i, a.Label, err)
		}
	}

	return nil
}

// FirstEpoch returns the first firing time of the boot alarm.
func (a BootAlarm) FirstEpoch() (int64, error) {
	if a.At == "" {
		if a.Epoch == 0 {
			return 0, errAlarmTimeRequired
		}

		return a.Epoch, nil
	}

	at, err := calendar.Parse(a.At)
	if err != nil {
		return 0, err
	}

	return calendar.ToEpoch(at)
}

// Interval returns the recurrence interval in seconds, or zero for a one-shot alarm.
func (a BootAlarm) Interval() (int64, error) {
	switch {
	case a.Every < 0:
		return 0, fmt.Errorf("%w: %d", errAlarmEveryNegative, a.Every)
	case a.Every == 0:
		return 0, nil
	}

	unit, err := alarm.ParseTimeUnit(a.Unit)
	if err != nil {
		return 0, err
	}

	return alarm.Interval(unit, a.Every)
}
