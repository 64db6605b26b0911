package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/flemzord/every/internal/schedule"
)

const recordTimeout = 5 * time.Second

// PruneJobName names the housekeeping job running PruneFunc. Configured
// jobs may not use it.
const PruneJobName = "history-prune"

// Recorder writes every job run to a Store. Write failures are logged and
// never reach the scheduler.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// Compile-time interface check.
var _ schedule.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder. A nil logger defaults to slog.Default().
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// JobRan implements schedule.Observer.
func (r *Recorder) JobRan(rec schedule.RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.store.Record(ctx, rec); err != nil {
		r.logger.Warn("history: failed to record run", "job", rec.Job, "error", err)
	}
}

// PruneFunc returns a job function deleting runs older than retention,
// measured from now().
func (r *Recorder) PruneFunc(retention time.Duration, now func() time.Time) schedule.Func {
	return schedule.Task(func(ctx context.Context) error {
		n, err := r.store.Prune(ctx, now().Add(-retention))
		if err != nil {
			return err
		}
		if n > 0 {
			r.logger.Info("history: pruned old runs", "count", n)
		}
		return nil
	})
}
