package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/flemzord/every/internal/config"
	"github.com/flemzord/every/internal/reload"
	"github.com/flemzord/every/internal/schedule"
	"github.com/flemzord/every/internal/task"
)

// ErrNotStarted is returned by operations needing a started daemon.
var ErrNotStarted = errors.New("daemon: not started")

// Reload re-reads the configuration file and brings the registered jobs in
// line with it. Jobs whose definition is unchanged keep their schedule.
// Nothing is changed when the new file is invalid.
func (d *Daemon) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("daemon: reload: %w", err)
	}
	if d.opts.ConfigPath == "" {
		return errors.New("daemon: reload: configuration was not loaded from a file")
	}
	if d.registry == nil {
		return ErrNotStarted
	}

	next, err := config.Load(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := config.Validate(next); err != nil {
		return err
	}

	plan := reload.Diff(d.cfg.Jobs, next.Jobs)
	built, err := d.buildJobs(append(append([]config.JobConfig(nil), plan.Add...), plan.Replace...))
	if err != nil {
		return err
	}

	for _, name := range plan.Remove {
		d.registry.RemoveNamed(name)
	}
	for _, jc := range plan.Replace {
		d.registry.RemoveNamed(jc.Name)
	}
	var errs []error
	for _, b := range built {
		if _, err := d.registry.Register(b.name, b.every, b.unit, b.fn); err != nil {
			errs = append(errs, err)
		}
	}

	for _, setting := range reload.RestartRequired(d.cfg, next) {
		d.logger.Warn("daemon: setting changed, restart to apply", "setting", setting)
	}
	d.cfg.Jobs = next.Jobs

	d.logger.Info("daemon: configuration reloaded",
		"added", len(plan.Add),
		"replaced", len(plan.Replace),
		"removed", len(plan.Remove),
	)
	return errors.Join(errs...)
}

type builtJob struct {
	name  string
	every int
	unit  schedule.Unit
	fn    schedule.Func
}

func (d *Daemon) buildJobs(jobs []config.JobConfig) ([]builtJob, error) {
	out := make([]builtJob, 0, len(jobs))
	for _, jc := range jobs {
		unit, err := schedule.ParseUnit(jc.Unit)
		if err != nil {
			return nil, fmt.Errorf("daemon: job %q: %w", jc.Name, err)
		}
		fn, err := task.FromConfig(jc, d.opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		out = append(out, builtJob{name: jc.Name, every: jc.Every, unit: unit, fn: fn})
	}
	return out, nil
}
