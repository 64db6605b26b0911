// Package schedule is an in-process, poll-driven periodic job scheduler.
//
// Jobs are defined with a fluent builder and registered with a Scheduler:
//
//	s := schedule.New()
//	job, err := s.Every(10).Minutes().Do(refresh)
//
// The scheduler owns no goroutine. A host loop calls RunPending at its own
// cadence; each call runs the jobs that are due at that instant, earliest
// first. After a run the next run is computed from the actual run time, so
// a late run shifts the schedule instead of triggering catch-up runs.
//
// A Scheduler is not safe for concurrent use. Hosts that share one across
// goroutines must serialize every call.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flemzord/every/internal/schedule"

// Scheduler holds a registry of jobs and runs the due ones on demand.
type Scheduler struct {
	jobs            []*Job
	now             func() time.Time
	logger          *slog.Logger
	tracer          trace.Tracer
	observers       []Observer
	continueOnError bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now as the scheduler's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTracer sets the tracer used for job run spans. Defaults to the
// global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scheduler) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithObserver adds an observer notified after every job run.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithContinueOnError makes RunPending run every due job even when some of
// them fail, returning the joined errors. By default the first failure ends
// the sweep.
func WithContinueOnError() Option {
	return func(s *Scheduler) { s.continueOnError = true }
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		now:    time.Now,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every starts the definition of a job running every interval units.
// The interval is not validated: zero or negative intervals make the job
// due at every sweep.
func (s *Scheduler) Every(interval int) Builder {
	return Builder{scheduler: s, interval: interval}
}

func (s *Scheduler) add(j *Job) {
	if j.period <= 0 {
		s.logger.Warn("schedule: non-positive period, job is due at every sweep",
			"job", j.name,
			"interval", j.interval,
			"unit", j.unit.String(),
		)
	}
	s.jobs = append(s.jobs, j)
	s.logger.Debug("schedule: job registered", "job", j.name, "id", j.id, "next_run", j.nextRun)
}

// RunPending runs every job that is due at the time of the call, in order
// of next run. Jobs that become due while the sweep is running wait for the
// next call, and no job runs more than once per call.
//
// The first job error stops the sweep and is returned unchanged; the jobs
// that did not run stay due for the next call. See WithContinueOnError.
func (s *Scheduler) RunPending(ctx context.Context) error {
	now := s.now()
	due := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.shouldRunAt(now) {
			due = append(due, j)
		}
	}
	return s.runJobs(ctx, due)
}

// RunAll runs every registered job immediately, regardless of due state,
// in order of next run.
func (s *Scheduler) RunAll(ctx context.Context) error {
	return s.runJobs(ctx, slices.Clone(s.jobs))
}

func (s *Scheduler) runJobs(ctx context.Context, jobs []*Job) error {
	// Stable: jobs with equal next runs keep registration order.
	slices.SortStableFunc(jobs, func(a, b *Job) int {
		return a.nextRun.Compare(b.nextRun)
	})

	var errs []error
	for _, j := range jobs {
		if _, err := j.Run(ctx); err != nil {
			s.logger.Error("schedule: job failed", "job", j.name, "id", j.id, "error", err)
			if !s.continueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove unregisters the job with the given ID. It reports whether a job
// was removed.
func (s *Scheduler) Remove(id string) bool {
	for i, j := range s.jobs {
		if j.id == id {
			s.jobs = slices.Delete(s.jobs, i, i+1)
			s.logger.Debug("schedule: job removed", "job", j.name, "id", id)
			return true
		}
	}
	return false
}

// Clear unregisters every job.
func (s *Scheduler) Clear() {
	s.jobs = nil
}

// Jobs returns the registered jobs in registration order. The slice is a
// copy; the jobs are shared.
func (s *Scheduler) Jobs() []*Job {
	return slices.Clone(s.jobs)
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.jobs)
}

// NextRun returns the earliest next run among registered jobs, and false
// when there are none.
func (s *Scheduler) NextRun() (time.Time, bool) {
	if len(s.jobs) == 0 {
		return time.Time{}, false
	}
	next := slices.MinFunc(s.jobs, func(a, b *Job) int {
		return a.nextRun.Compare(b.nextRun)
	})
	return next.nextRun, true
}

// IdleTime returns the time until the earliest next run. It is negative
// when a job is overdue and zero when no job is registered.
func (s *Scheduler) IdleTime() time.Duration {
	next, ok := s.NextRun()
	if !ok {
		return 0
	}
	return next.Sub(s.now())
}

func (s *Scheduler) notify(r RunRecord) {
	for _, o := range s.observers {
		o.JobRan(r)
	}
}
