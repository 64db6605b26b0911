package schedule

import "time"

// RunRecord describes one finished job run.
type RunRecord struct {
	JobID    string
	Job      string
	Interval int
	Unit     Unit
	Started  time.Time
	Finished time.Time
	// NextRun is the job's next run after this run. For a failed run it is
	// unchanged, so the job is still due.
	NextRun time.Time
	Err     error
}

// Duration returns how long the job function ran.
func (r RunRecord) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Succeeded reports whether the job function returned no error.
func (r RunRecord) Succeeded() bool {
	return r.Err == nil
}

// Observer is notified synchronously after every job run, in the order the
// observers were registered. Implementations must not call back into the
// scheduler.
type Observer interface {
	JobRan(r RunRecord)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(r RunRecord)

// JobRan implements Observer.
func (f ObserverFunc) JobRan(r RunRecord) { f(r) }
