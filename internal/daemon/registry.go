package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/flemzord/every/internal/gateway"
	"github.com/flemzord/every/internal/metrics"
	"github.com/flemzord/every/internal/schedule"
)

// Registry serializes access to a scheduler shared by the cron driver and
// the gateway. Snapshots are refreshed after each mutation so readers never
// wait behind a running sweep.
type Registry struct {
	mu       sync.Mutex
	sched    *schedule.Scheduler
	metrics  *metrics.Metrics
	logger   *slog.Logger
	snapshot atomic.Pointer[[]gateway.JobStatus]
}

// Compile-time interface check.
var _ gateway.Registry = (*Registry)(nil)

// NewRegistry wraps sched. m may be nil.
func NewRegistry(sched *schedule.Scheduler, m *metrics.Metrics, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{sched: sched, metrics: m, logger: logger}
	r.refresh()
	return r
}

// Register schedules fn every interval units under name.
func (r *Registry) Register(name string, interval int, unit schedule.Unit, fn schedule.Func) (*schedule.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.sched.Every(interval).Unit(unit).Named(name).Do(fn)
	if err != nil {
		return nil, fmt.Errorf("daemon: register %q: %w", name, err)
	}
	if r.metrics != nil {
		r.metrics.JobScheduled(j)
		r.metrics.JobsRegistered(r.sched.Len())
	}
	r.refresh()
	r.logger.Info("daemon: job registered", "job", name, "every", interval, "unit", unit, "next_run", j.NextRun())
	return j, nil
}

// Sweep runs the jobs that are due.
func (r *Registry) Sweep(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.sched.RunPending(ctx)
	if r.metrics != nil {
		r.metrics.SweepDone(r.sched.Len(), err)
	}
	r.refresh()
	return err
}

// RunAll runs every job now, regardless of schedule.
func (r *Registry) RunAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.sched.RunAll(ctx)
	r.refresh()
	return err
}

// Remove unschedules the job with the given ID.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.sched.Jobs() {
		if j.ID() == id {
			return r.removeLocked(j)
		}
	}
	return false
}

// RemoveNamed unschedules every job registered under name.
func (r *Registry) RemoveNamed(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for _, j := range r.sched.Jobs() {
		if j.Name() == name {
			removed = r.removeLocked(j) || removed
		}
	}
	return removed
}

func (r *Registry) removeLocked(j *schedule.Job) bool {
	if !r.sched.Remove(j.ID()) {
		return false
	}
	if r.metrics != nil {
		r.metrics.JobRemoved(j.Name())
		r.metrics.JobsRegistered(r.sched.Len())
	}
	r.refresh()
	r.logger.Info("daemon: job removed", "job", j.Name(), "id", j.ID())
	return true
}

// Snapshot returns the job states as of the last mutation.
func (r *Registry) Snapshot() []gateway.JobStatus {
	p := r.snapshot.Load()
	if p == nil {
		return nil
	}
	return append([]gateway.JobStatus(nil), (*p)...)
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sched.Len()
}

// refresh must be called with mu held.
func (r *Registry) refresh() {
	jobs := r.sched.Jobs()
	snap := make([]gateway.JobStatus, len(jobs))
	for i, j := range jobs {
		snap[i] = gateway.StatusOf(j)
	}
	r.snapshot.Store(&snap)
}
