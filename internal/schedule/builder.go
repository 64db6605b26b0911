package schedule

import (
	"context"
	"fmt"
)

// Func is the work a job performs. Arguments are bound by closure capture
// when the job is defined; the returned value is handed back by Job.Run.
type Func func(ctx context.Context) (any, error)

// Task adapts a function that only reports an error into a Func.
func Task(fn func(ctx context.Context) error) Func {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}
}

// Builder accumulates a job definition. Each method returns a modified
// copy, so a Builder can be shared and extended without aliasing. Nothing
// reaches the scheduler until Do is called.
type Builder struct {
	scheduler *Scheduler
	interval  int
	unit      Unit
	name      string
	err       error
}

// Seconds selects seconds as the unit.
func (b Builder) Seconds() Builder { return b.withUnit(Seconds) }

// Minutes selects minutes as the unit.
func (b Builder) Minutes() Builder { return b.withUnit(Minutes) }

// Hours selects hours as the unit.
func (b Builder) Hours() Builder { return b.withUnit(Hours) }

// Days selects days as the unit.
func (b Builder) Days() Builder { return b.withUnit(Days) }

// Weeks selects weeks as the unit.
func (b Builder) Weeks() Builder { return b.withUnit(Weeks) }

// Second is Seconds for an interval of exactly 1. Any other interval
// records ErrInterval on the returned builder.
func (b Builder) Second() Builder { return b.singular(Seconds) }

// Minute is Minutes for an interval of exactly 1.
func (b Builder) Minute() Builder { return b.singular(Minutes) }

// Hour is Hours for an interval of exactly 1.
func (b Builder) Hour() Builder { return b.singular(Hours) }

// Day is Days for an interval of exactly 1.
func (b Builder) Day() Builder { return b.singular(Days) }

// Week is Weeks for an interval of exactly 1.
func (b Builder) Week() Builder { return b.singular(Weeks) }

// Unit selects u directly. Used when the unit comes from configuration.
func (b Builder) Unit(u Unit) Builder { return b.withUnit(u) }

// Named sets the label used for the job in logs, metrics and traces.
func (b Builder) Named(name string) Builder {
	b.name = name
	return b
}

// Interval returns the configured interval.
func (b Builder) Interval() int { return b.interval }

// Err returns the first configuration error recorded on the builder.
func (b Builder) Err() error { return b.err }

func (b Builder) withUnit(u Unit) Builder {
	b.unit = u
	return b
}

func (b Builder) singular(u Unit) Builder {
	if b.interval != 1 {
		if b.err == nil {
			b.err = fmt.Errorf("%w: every(%d) needs %s, not the singular form", ErrInterval, b.interval, u)
		}
		return b
	}
	return b.withUnit(u)
}

// Do finalizes the definition: it binds fn, computes the first next run
// and registers the job with the scheduler.
func (b Builder) Do(fn Func) (*Job, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.scheduler == nil {
		return nil, ErrNoScheduler
	}
	if fn == nil {
		return nil, ErrNilFunc
	}
	j, err := newJob(b, fn)
	if err != nil {
		return nil, err
	}
	if err := j.scheduleNextRun(b.scheduler.now()); err != nil {
		return nil, err
	}
	b.scheduler.add(j)
	return j, nil
}
