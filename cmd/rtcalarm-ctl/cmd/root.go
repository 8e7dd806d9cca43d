package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/oshokin/rtc-alarm/internal/config"
	"github.com/oshokin/rtc-alarm/internal/diag"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/logger"
	"github.com/oshokin/rtc-alarm/internal/repository/journal"
	"github.com/oshokin/rtc-alarm/internal/service/ctl"
	"github.com/oshokin/rtc-alarm/internal/service/shell"
	"github.com/oshokin/rtc-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// address overrides the simulator address from the configuration.
	address string
	// logLevel is the minimum level of the client logger.
	logLevel string

	// label of the alarm to add.
	label string
	// every is the recurrence count of the alarm to add.
	every int64
	// unit is the recurrence unit of the alarm to add.
	unit string

	// journalRun, journalKind, journalLabel and journalSince filter journal output.
	journalRun   string
	journalKind  string
	journalLabel string
	journalSince time.Duration

	// rootCmd represents the base command of the client.
	rootCmd = &cobra.Command{
		Use:   "rtcalarm-ctl",
		Short: "Manage alarms on a running rtcalarm-sim.",
		Long: `Adds, clears and lists alarms on a running simulator over gRPC, reads the
simulator's event journal, and offers an interactive shell.

Times are "now", "+<duration>" relative to the simulated clock, Unix seconds,
or "2006-01-02T15:04:05" in UTC.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}

	addCmd = &cobra.Command{
		Use:   "add <when>",
		Short: "Add a one-shot or recurring alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: withController(func(ctx context.Context, c *ctl.Controller, args []string) error {
			_, err := c.Add(ctx, ctl.AddRequest{Label: label, When: args[0], Every: every, Unit: unit})

			return err
		}),
	}

	clearCmd = &cobra.Command{
		Use:   "clear <handle>",
		Short: "Remove an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: withController(func(ctx context.Context, c *ctl.Controller, args []string) error {
			h, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("handle must be an integer: %w", err)
			}

			return c.Clear(ctx, alarm.Handle(h))
		}),
	}

	clearExpiredCmd = &cobra.Command{
		Use:   "clear-expired [before]",
		Short: "Remove every alarm scheduled before a time (default now).",
		Args:  cobra.MaximumNArgs(1),
		RunE: withController(func(ctx context.Context, c *ctl.Controller, args []string) error {
			var before string
			if len(args) > 0 {
				before = args[0]
			}

			_, err := c.ClearExpired(ctx, before)

			return err
		}),
	}

	nextCmd = &cobra.Command{
		Use:   "next",
		Short: "Show the simulated clock and the armed alarm.",
		Args:  cobra.NoArgs,
		RunE: withController(func(ctx context.Context, c *ctl.Controller, _ []string) error {
			_, err := c.Next(ctx)

			return err
		}),
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List scheduled alarms.",
		Args:  cobra.NoArgs,
		RunE: withController(func(ctx context.Context, c *ctl.Controller, _ []string) error {
			_, err := c.List(ctx)

			return err
		}),
	}

	journalCmd = &cobra.Command{
		Use:   "journal [file]",
		Short: "Print the simulator's event journal.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultJournalFilename
			if cfg, err := config.Load(configPath); err == nil {
				path = cfg.JournalFile
			}

			if len(args) > 0 {
				path = args[0]
			}

			filter := journal.Filter{
				RunID: journalRun,
				Label: journalLabel,
			}

			if journalKind != "" {
				kind, ok := diag.ParseKind(journalKind)
				if !ok {
					return fmt.Errorf("unknown event kind %q", journalKind)
				}

				filter.Kind = &kind
			}

			if journalSince > 0 {
				filter.Since = time.Now().Add(-journalSince)
			}

			_, err := ctl.Journal(cmd.Context(), cmd.OutOrStdout(), afero.NewOsFs(), path, filter)

			return err
		},
	}

	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive console.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return shell.Run(cmd.Context(), &ctl.Options{ConfigPath: configPath, Address: address})
		},
	}
)

// withController connects to the simulator before running fn.
func withController(
	fn func(ctx context.Context, c *ctl.Controller, args []string) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logger.WithName(cmd.Context(), "rtcalarm-ctl")

		c, closeFn, err := ctl.Connect(ctx, &ctl.Options{ConfigPath: configPath, Address: address}, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		defer closeFn()

		return fn(ctx, c, args)
	}
}

// Execute runs the rtcalarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:gocritic // stop is called explicitly above.
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", "", "simulator address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	addCmd.Flags().StringVarP(&label, "label", "l", "", "alarm label")
	addCmd.Flags().Int64VarP(&every, "every", "e", 0, "repeat every N units (0 for one-shot)")
	addCmd.Flags().StringVarP(&unit, "unit", "u", "second", "repeat unit: second, minute, hour, day")

	journalCmd.Flags().StringVar(&journalRun, "run", "", "only entries of this run id")
	journalCmd.Flags().StringVar(&journalKind, "kind", "", "only entries of this kind, e.g. alarm_fired")
	journalCmd.Flags().StringVar(&journalLabel, "label", "", "only entries of this alarm label")
	journalCmd.Flags().DurationVar(&journalSince, "since", 0, "only entries newer than this duration")

	rootCmd.AddCommand(addCmd, clearCmd, clearExpiredCmd, nextCmd, listCmd, journalCmd, shellCmd)
}
