// Package scheduletest provides test doubles for the schedule package.
package scheduletest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/every/internal/schedule"
)

// Clock is a manually advanced time source for schedule.WithClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// MockFunc is a configurable job function that counts its calls.
type MockFunc struct {
	// Result is returned by every call.
	Result any
	// Err is returned by every call.
	Err error
	// OnCall runs inside every call, before returning.
	OnCall func(ctx context.Context)

	mu    sync.Mutex
	calls int
}

// Func returns the schedule.Func bound to m.
func (m *MockFunc) Func() schedule.Func {
	return func(ctx context.Context) (any, error) {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()
		if m.OnCall != nil {
			m.OnCall(ctx)
		}
		return m.Result, m.Err
	}
}

// CallCount returns the number of calls so far.
func (m *MockFunc) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Recorder is a schedule.Observer that keeps every run record.
type Recorder struct {
	mu   sync.Mutex
	runs []schedule.RunRecord
}

// Compile-time interface check.
var _ schedule.Observer = (*Recorder)(nil)

// JobRan implements schedule.Observer.
func (r *Recorder) JobRan(rec schedule.RunRecord) {
	r.mu.Lock()
	r.runs = append(r.runs, rec)
	r.mu.Unlock()
}

// Runs returns a copy of the recorded runs.
func (r *Recorder) Runs() []schedule.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schedule.RunRecord, len(r.runs))
	copy(out, r.runs)
	return out
}

// Names returns the job names of the recorded runs, in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.runs))
	for i, rec := range r.runs {
		names[i] = rec.Job
	}
	return names
}
