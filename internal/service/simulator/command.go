package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	api "github.com/oshokin/rtc-alarm/internal/api/grpc/scheduler"
	"github.com/oshokin/rtc-alarm/internal/config"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
	"github.com/oshokin/rtc-alarm/internal/repository/journal"
	"github.com/oshokin/rtc-alarm/internal/rtc"
	"github.com/oshokin/rtc-alarm/internal/scheduler"
	"github.com/oshokin/rtc-alarm/internal/service/instance"
	"github.com/oshokin/rtc-alarm/internal/version"
)

// bootOwner is the owner recorded for alarms from the settings file.
const bootOwner = "settings"

// Options controls the rtcalarm-sim process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress overrides the configured gRPC listen address.
	ListenAddress string
	// JournalFile overrides the configured journal path.
	JournalFile string
	// StartEpoch sets the simulated clock at start; zero means the wall clock.
	StartEpoch int64
	// AllowMultiple skips the single-instance guard.
	AllowMultiple bool
	// Fs holds the journal; nil means the OS filesystem.
	Fs afero.Fs
	// Ready, when set, receives the bound listen address once the server accepts connections.
	Ready func(addr string)
}

// Run starts the simulator and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "rtcalarm-sim")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	if !opts.AllowMultiple {
		if err = guard(); err != nil {
			return err
		}
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	journalFile := settings.JournalFile
	if opts.JournalFile != "" {
		journalFile = opts.JournalFile
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	repo, err := journal.NewFileRepository(fs, journalFile)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close journal", "error", closeErr)
		}
	}()

	runID := uuid.NewString()
	ctx = logger.WithKV(ctx, "run_id", runID)

	start := opts.StartEpoch
	if start == 0 {
		start = time.Now().Unix()
	}

	hw := rtc.NewSoft(start)
	svc := newService(ctx, hw)

	sched := scheduler.New(hw,
		scheduler.WithCapacity(settings.Capacity),
		scheduler.WithSink(diag.Multi{
			diag.NewLoggerSink(diagLogger(ctx, settings.DiagLevel)),
			journal.NewSink(repo, runID, svc),
		}),
	)
	defer sched.Disable()

	svc.attach(sched)

	if err = registerBootAlarms(ctx, svc, settings.Alarms); err != nil {
		return err
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterSchedulerServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Simulator listening",
		"version", version.Short(),
		"listen_address", lis.Addr().String(),
		"journal_file", journalFile,
		"capacity", settings.Capacity,
		"tick_interval", settings.TickInterval,
		"start_epoch", start,
	)

	var wg sync.WaitGroup

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	wg.Go(func() { hw.Run(runCtx, settings.TickInterval) })
	wg.Go(func() { sched.Run(runCtx) })

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-runCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if opts.Ready != nil {
		opts.Ready(lis.Addr().String())
	}

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		stop()
		wg.Wait()

		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	wg.Wait()

	logger.InfoKV(ctx, "Simulator stopped", "alarms_fired", svc.Fired())

	return nil
}

// guard refuses to start when another simulator runs on the host.
func guard() error {
	name, err := instance.SelfName()
	if err != nil {
		return fmt.Errorf("detect executable: %w", err)
	}

	return instance.EnsureSingle(name)
}

// diagLogger returns the logger for scheduler diagnostics, pinned to level when one is set.
func diagLogger(ctx context.Context, level string) *zap.SugaredLogger {
	l := logger.FromContext(ctx).Named("diag")

	if lvl, ok := logger.ParseLogLevel(level); ok && level != "" {
		l = l.WithOptions(logger.WithLevel(lvl))
	}

	return l
}

// registerBootAlarms adds the alarms listed in the settings file.
func registerBootAlarms(ctx context.Context, svc *service, alarms []config.BootAlarm) error {
	for i, a := range alarms {
		req, err := bootRequest(a)
		if err != nil {
			return fmt.Errorf("boot alarm %d (%s): %w", i, a.Label, err)
		}

		if _, err = svc.AddAlarm(ctx, req); err != nil {
			return fmt.Errorf("boot alarm %d (%s): %w", i, a.Label, err)
		}
	}

	return nil
}

// bootRequest converts a settings entry into an add request.
func bootRequest(a config.BootAlarm) (api.NewAlarm, error) {
	epoch, err := a.FirstEpoch()
	if err != nil {
		return api.NewAlarm{}, err
	}

	interval, err := a.Interval()
	if err != nil {
		return api.NewAlarm{}, err
	}

	req := api.NewAlarm{
		Label: a.Label,
		Owner: bootOwner,
		Epoch: epoch,
	}

	if interval > 0 {
		req.Unit = alarm.Second
		req.Count = interval
	}

	return req, nil
}
