package ctl

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/afero"

	"github.com/oshokin/rtc-alarm/internal/calendar"
	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/repository/journal"
)

// Journal prints the entries of the journal at path that match filter.
func Journal(ctx context.Context, out io.Writer, fs afero.Fs, path string, filter journal.Filter) (int, error) {
	entries, err := journal.ReadAll(ctx, fs, path, filter)
	if err != nil {
		return 0, err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tKIND\tHANDLE\tEPOCH\tLABEL\tDETAIL")

	for _, e := range entries {
		handle := "-"
		if e.Handle != alarm.InvalidHandle {
			handle = fmt.Sprint(int(e.Handle))
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.UTC().Format(calendar.Layout),
			shortRunID(e.RunID),
			e.Kind,
			handle,
			formatEpoch(e.Epoch),
			e.Label,
			e.Detail,
		)
	}

	return len(entries), tw.Flush()
}

// shortRunID trims a run id to its first group.
func shortRunID(id string) string {
	const short = 8

	if len(id) > short {
		return id[:short]
	}

	return id
}
