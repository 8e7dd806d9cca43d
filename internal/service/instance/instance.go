package instance

import (
	"errors"
	"fmt"
	"os"

	ps "github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process with the same executable is found.
var ErrAlreadyRunning = errors.New("another instance is already running")

// processLister abstracts the process table for tests.
type processLister func() ([]ps.Process, error)

// EnsureSingle returns ErrAlreadyRunning when a process other than the current one
// runs an executable called name.
func EnsureSingle(name string) error {
	return ensureSingle(ps.Processes, os.Getpid(), name)
}

// SelfName returns the executable name of the current process.
func SelfName() (string, error) {
	self, err := ps.FindProcess(os.Getpid())
	if err != nil {
		return "", fmt.Errorf("find current process: %w", err)
	}

	if self == nil {
		return "", fmt.Errorf("current process %d not found", os.Getpid())
	}

	return self.Executable(), nil
}

func ensureSingle(list processLister, selfPID int, name string) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if process.Executable() != name {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, name, process.Pid())
	}

	return nil
}
