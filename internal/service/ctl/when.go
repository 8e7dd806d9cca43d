package ctl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/rtc-alarm/internal/calendar"
)

// errEmptyTime is returned for an empty time argument.
var errEmptyTime = errors.New("time is required")

// ParseWhen resolves a time argument against the simulated clock.
// Accepted forms: "now", "+<duration>" (e.g. "+90s"), Unix seconds, and
// "2006-01-02 15:04:05" or "2006-01-02T15:04:05" (UTC).
func ParseWhen(s string, clock int64) (int64, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return 0, errEmptyTime
	case s == "now":
		return clock, nil
	case strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return 0, fmt.Errorf("parse offset %q: %w", s, err)
		}

		return clock + int64(d/time.Second), nil
	}

	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epoch, nil
	}

	at, err := calendar.Parse(strings.Replace(s, "T", " ", 1))
	if err != nil {
		return 0, err
	}

	return calendar.ToEpoch(at)
}

// formatEpoch renders an epoch as a calendar date-time when the peripheral can hold it.
func formatEpoch(epoch int64) string {
	at, err := calendar.FromEpoch(epoch)
	if err != nil {
		return strconv.FormatInt(epoch, 10)
	}

	return at.String()
}
