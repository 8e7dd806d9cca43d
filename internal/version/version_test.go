package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/spf13/cobra"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), Platform())
	require.Contains(t, Platform(), runtime.GOOS)
}

// TestAttachCobraVersionCommand runs the version subcommand with and without --short.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "full", args: []string{"version"}, want: Full() + "\n"},
		{name: "short", args: []string{"version", "--short"}, want: Short() + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := &cobra.Command{Use: "rtcalarm-test"}
			AttachCobraVersionCommand(root)

			out := new(bytes.Buffer)
			root.SetOut(out)
			root.SetArgs(tt.args)

			require.NoError(t, root.Execute())
			require.Equal(t, tt.want, out.String())
		})
	}
}
