package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc is one pass over the scheduler.
type SweepFunc func(ctx context.Context) error

// Driver calls a SweepFunc at a fixed cadence. A sweep that is still
// running when the next tick fires causes that tick to be skipped.
type Driver struct {
	mu     sync.Mutex
	every  time.Duration
	sweep  SweepFunc
	cron   *cron.Cron
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewDriver creates a driver. Sub-second cadences are rounded up to one
// second by the underlying cron engine.
func NewDriver(every time.Duration, sweep SweepFunc, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{every: every, sweep: sweep, logger: logger}
}

// Start begins sweeping in the background.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return fmt.Errorf("daemon: driver already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{d.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc("@every "+d.every.String(), func() {
		if err := d.sweep(ctx); err != nil {
			d.logger.Error("daemon: sweep failed", "error", err)
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("daemon: invalid poll interval %s: %w", d.every, err)
	}

	d.cron = c
	d.cancel = cancel
	c.Start()
	d.logger.Info("daemon: driver started", "poll_interval", d.every)
	return nil
}

// Stop cancels the running sweep and waits for it to return, or for ctx
// to end.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron == nil {
		return nil
	}
	d.cancel()
	select {
	case <-d.cron.Stop().Done():
	case <-ctx.Done():
		return fmt.Errorf("daemon: waiting for sweep: %w", ctx.Err())
	}
	d.cron = nil
	d.logger.Info("daemon: driver stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger. Info output is demoted to debug:
// cron logs every wake-up at info.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
