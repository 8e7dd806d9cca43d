package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/oshokin/rtc-alarm/internal/domain/alarm"
	"github.com/oshokin/rtc-alarm/internal/service/ctl"
)

// Prompt is shown before every command.
const Prompt = "rtcalarm> "

// errUsage is returned when a command has the wrong arguments.
var errUsage = errors.New("usage")

// Shell executes console commands against a controller.
type Shell struct {
	ctl *ctl.Controller
	out io.Writer
}

// New returns a shell printing to out.
func New(c *ctl.Controller, out io.Writer) *Shell {
	return &Shell{
		ctl: c,
		out: out,
	}
}

// Run connects to the simulator and reads commands until quit, EOF or ctx is done.
func Run(ctx context.Context, opts *ctl.Options) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}

	defer rl.Close()

	c, closeFn, err := ctl.Connect(ctx, opts, rl.Stdout())
	if err != nil {
		return err
	}

	defer closeFn()

	sh := New(c, rl.Stdout())
	sh.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}

			return nil
		}

		quit, err := sh.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}

		if quit {
			return nil
		}
	}
}

// Execute runs one command line. It reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}

	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "help", "?":
		s.printHelp()
	case "quit", "exit", "q":
		return true, nil
	case "add", "a":
		if len(args) < 1 {
			return false, fmt.Errorf("%w: add <when> [label]", errUsage)
		}

		_, err := s.ctl.Add(ctx, ctl.AddRequest{When: args[0], Label: strings.Join(args[1:], " ")})

		return false, err
	case "every", "e":
		if len(args) < 3 {
			return false, fmt.Errorf("%w: every <count> <unit> <when> [label]", errUsage)
		}

		count, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || count <= 0 {
			return false, fmt.Errorf("%w: count must be a positive integer", errUsage)
		}

		_, err = s.ctl.Add(ctx, ctl.AddRequest{
			Every: count,
			Unit:  args[1],
			When:  args[2],
			Label: strings.Join(args[3:], " "),
		})

		return false, err
	case "clear", "c":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: clear <handle>", errUsage)
		}

		h, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%w: handle must be an integer", errUsage)
		}

		return false, s.ctl.Clear(ctx, alarm.Handle(h))
	case "expire", "x":
		var before string
		if len(args) > 0 {
			before = args[0]
		}

		_, err := s.ctl.ClearExpired(ctx, before)

		return false, err
	case "next", "n":
		_, err := s.ctl.Next(ctx)

		return false, err
	case "list", "ls", "l":
		_, err := s.ctl.List(ctx)

		return false, err
	default:
		return false, fmt.Errorf("unknown command %q, type help", parts[0])
	}

	return false, nil
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  add <when> [label]                   one-shot alarm
  every <count> <unit> <when> [label]  recurring alarm (unit: second, minute, hour, day)
  clear <handle>                       remove an alarm
  expire [when]                        remove alarms before when (default now)
  next                                 show the clock and the armed alarm
  list                                 show scheduled alarms
  help                                 show this help
  quit                                 leave the shell
<when> is now, +<duration> (e.g. +90s), Unix seconds, or 2006-01-02T15:04:05 (UTC).`)
}
