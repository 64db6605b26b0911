package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Job is a finalized, registered unit of recurring work. Jobs are created
// by Builder.Do; a zero Job is never scheduled.
type Job struct {
	id        string
	name      string
	interval  int
	unit      Unit
	period    time.Duration
	fn        Func
	lastRun   time.Time
	nextRun   time.Time
	scheduler *Scheduler
}

func newJob(b Builder, fn Func) (*Job, error) {
	if !b.unit.Valid() {
		return nil, fmt.Errorf("%w: select a unit before calling Do", ErrInvalidUnit)
	}
	id := uuid.NewString()
	name := b.name
	if name == "" {
		name = id
	}
	return &Job{
		id:        id,
		name:      name,
		interval:  b.interval,
		unit:      b.unit,
		fn:        fn,
		scheduler: b.scheduler,
	}, nil
}

// ID returns the handle used to remove the job from its scheduler.
func (j *Job) ID() string { return j.id }

// Name returns the job label. It defaults to the ID.
func (j *Job) Name() string { return j.name }

// Interval returns the number of units between runs.
func (j *Job) Interval() int { return j.interval }

// Unit returns the unit the interval is counted in.
func (j *Job) Unit() Unit { return j.unit }

// Period returns the time between runs as of the last scheduling.
func (j *Job) Period() time.Duration { return j.period }

// LastRun returns the completion time of the last successful run. The
// zero time means the job never completed a run.
func (j *Job) LastRun() time.Time { return j.lastRun }

// NextRun returns the instant at or after which the job is due.
func (j *Job) NextRun() time.Time { return j.nextRun }

func (j *Job) String() string {
	return fmt.Sprintf("Job(%s, every %d %s, next %s)", j.name, j.interval, j.unit, j.nextRun.Format(time.RFC3339))
}

// scheduleNextRun recomputes the period and sets the next run one period
// after now. Late runs push the schedule back instead of catching up.
func (j *Job) scheduleNextRun(now time.Time) error {
	period, err := j.unit.Period(j.interval)
	if err != nil {
		return err
	}
	j.period = period
	j.nextRun = now.Add(period)
	return nil
}

// ShouldRun reports whether the job is due. It panics with ErrNotScheduled
// if the job was never scheduled.
func (j *Job) ShouldRun() bool {
	if j.scheduler == nil {
		return j.shouldRunAt(time.Now())
	}
	return j.shouldRunAt(j.scheduler.now())
}

func (j *Job) shouldRunAt(now time.Time) bool {
	if j.nextRun.IsZero() {
		panic(ErrNotScheduled)
	}
	return !now.Before(j.nextRun)
}

// Less orders jobs by next run, earliest first.
func (j *Job) Less(other *Job) bool {
	return j.nextRun.Before(other.nextRun)
}

// Run invokes the job function and, if it succeeds, records the run time
// and schedules the next run from it. A failing function leaves the timing
// state untouched and its error is returned as is.
func (j *Job) Run(ctx context.Context) (any, error) {
	s := j.scheduler
	if s == nil {
		return nil, ErrNoScheduler
	}

	ctx, span := s.tracer.Start(ctx, "schedule.job.run", trace.WithAttributes(
		attribute.String("job.id", j.id),
		attribute.String("job.name", j.name),
		attribute.Int("job.interval", j.interval),
		attribute.String("job.unit", j.unit.String()),
	))
	defer span.End()

	s.logger.Debug("schedule: running job", "job", j.name, "id", j.id, "scheduled", j.nextRun)

	started := s.now()
	ret, err := j.fn(ctx)
	finished := s.now()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		j.lastRun = finished
		// The unit was validated at Do; the error is unreachable here.
		_ = j.scheduleNextRun(finished)
		span.SetAttributes(attribute.String("job.next_run", j.nextRun.Format(time.RFC3339Nano)))
	}

	s.notify(RunRecord{
		JobID:    j.id,
		Job:      j.name,
		Interval: j.interval,
		Unit:     j.unit,
		Started:  started,
		Finished: finished,
		NextRun:  j.nextRun,
		Err:      err,
	})
	return ret, err
}
