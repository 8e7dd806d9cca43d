package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// With --short it prints only the release, otherwise the full build info.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print the release, commit hash, build timestamp and platform of this binary.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := Full()
			if short {
				info = Short()
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the release version")
	root.AddCommand(cmd)
}
