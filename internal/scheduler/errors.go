package scheduler

import "errors"

var (
	// ErrCapacityExceeded is returned by AddAlarm when every slot is taken.
	ErrCapacityExceeded = errors.New("alarm capacity exceeded")
	// ErrInvalidHandle is returned by ClearAlarm for handles outside the registry.
	ErrInvalidHandle = errors.New("invalid alarm handle")
	// ErrZeroInterval is returned when a recurring alarm has a non-positive interval.
	ErrZeroInterval = errors.New("recurring alarm requires a positive interval")
	// ErrNilCallback is returned when an alarm is added without a callback.
	ErrNilCallback = errors.New("alarm callback is required")
)
