package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/rtc-alarm/internal/config"
	"github.com/oshokin/rtc-alarm/internal/service/simulator"
	"github.com/oshokin/rtc-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// journalFile overrides the configured journal path.
	journalFile string
	// startEpoch sets the simulated clock at start.
	startEpoch int64
	// allowMultiple skips the single-instance guard.
	allowMultiple bool

	// rootCmd represents the base command for running the simulator.
	rootCmd = &cobra.Command{
		Use:   "rtcalarm-sim [listen-address]",
		Short: "Run a simulated RTC with the alarm scheduler behind a gRPC control plane.",
		Long: `Starts a simulated real-time clock peripheral, binds the alarm scheduler to its
alarm interrupt and serves the scheduler over gRPC.

The listen address comes from the configuration file unless given as an argument.
Alarms listed in the configuration are registered at start. Every scheduler event is
logged and appended to the CBOR journal; alarms are not restored on the next start.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &simulator.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				JournalFile:   journalFile,
				StartEpoch:    startEpoch,
				AllowMultiple: allowMultiple,
			}

			return simulator.Run(ctx, options)
		},
	}
)

// Execute runs the rtcalarm-sim CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&journalFile, "journal", "j", "", "path to the event journal (overrides config)")
	rootCmd.Flags().Int64Var(&startEpoch, "start", 0, "simulated clock at start in Unix seconds (default: wall clock)")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the one-simulator-per-host check")
}
