package schedule

import (
	"context"
	"sync/atomic"
)

var defaultScheduler atomic.Pointer[Scheduler]

func init() {
	defaultScheduler.Store(New())
}

// Default returns the process-wide scheduler used by the package-level
// Every and RunPending functions.
func Default() *Scheduler {
	return defaultScheduler.Load()
}

// SetDefault replaces the process-wide scheduler. A nil s is ignored.
func SetDefault(s *Scheduler) {
	if s != nil {
		defaultScheduler.Store(s)
	}
}

// Every calls Every on the default scheduler.
func Every(interval int) Builder {
	return Default().Every(interval)
}

// RunPending calls RunPending on the default scheduler.
func RunPending(ctx context.Context) error {
	return Default().RunPending(ctx)
}
