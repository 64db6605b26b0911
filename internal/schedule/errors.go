package schedule

import (
	"errors"
	"fmt"
)

// ErrSchedule is the base error. Every other configuration error of this
// package matches it with errors.Is.
var ErrSchedule = errors.New("schedule: error")

var (
	// ErrInvalidUnit is returned when a job is finalized without a unit,
	// or when a unit name cannot be parsed.
	ErrInvalidUnit = fmt.Errorf("%w: invalid unit", ErrSchedule)

	// ErrInterval is returned when a singular unit (Second, Minute, ...) is
	// used with an interval other than 1.
	ErrInterval = fmt.Errorf("%w: improper interval", ErrSchedule)

	// ErrIntervalRange is returned when interval times unit overflows a
	// time.Duration.
	ErrIntervalRange = fmt.Errorf("%w: interval out of range", ErrSchedule)

	// ErrNoScheduler is returned by Do on a builder that is not bound to
	// a Scheduler.
	ErrNoScheduler = fmt.Errorf("%w: job is not associated with a scheduler", ErrSchedule)

	// ErrNilFunc is returned by Do when the job function is nil.
	ErrNilFunc = fmt.Errorf("%w: nil job function", ErrSchedule)

	// ErrNotScheduled is the panic value raised when the due state of a job
	// that was never scheduled is queried.
	ErrNotScheduled = fmt.Errorf("%w: job has no next run, it was never scheduled", ErrSchedule)
)
