// Package daemon runs configured jobs: it builds the scheduler from the
// configuration, drives its sweeps, and owns the supporting services
// (history, metrics, tracing, the HTTP gateway).
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/every/internal/config"
	"github.com/flemzord/every/internal/gateway"
	"github.com/flemzord/every/internal/history"
	"github.com/flemzord/every/internal/metrics"
	"github.com/flemzord/every/internal/redact"
	"github.com/flemzord/every/internal/reload"
	"github.com/flemzord/every/internal/schedule"
	"github.com/flemzord/every/internal/telemetry"
)

const (
	// PruneJobName names the housekeeping job trimming run history.
	PruneJobName = history.PruneJobName

	shutdownTimeout = 30 * time.Second
)

// Options customize a Daemon.
type Options struct {
	// Logger defaults to one built from the log configuration, writing to
	// stderr. Configured secrets are masked in either case.
	Logger *slog.Logger

	// Version is reported in traces.
	Version string

	// DataDir is used when the configuration sets none.
	DataDir string

	// ConfigPath is the file the configuration was loaded from. Reloads
	// are disabled when empty.
	ConfigPath string

	// HTTPClient runs HTTP check jobs. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// SchedulerOptions are appended to the options the daemon derives
	// from the configuration.
	SchedulerOptions []schedule.Option
}

// Daemon owns a scheduler and everything around it.
type Daemon struct {
	cfg  *config.Config
	opts Options

	logger   *slog.Logger
	registry *Registry
	driver   *Driver
	gateway  *gateway.Gateway
	store    *history.Store
	tracing  telemetry.ShutdownFunc
}

// New creates a daemon for a validated configuration.
func New(cfg *config.Config, opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = cfg.Log.NewLogger(os.Stderr)
	}
	logger = redact.Logger(logger, redact.New(cfg.Secrets()...))
	own := *cfg
	return &Daemon{cfg: &own, opts: opts, logger: logger}
}

// Registry returns the job registry, or nil before Start.
func (d *Daemon) Registry() *Registry {
	return d.registry
}

// Start builds the scheduler, registers the configured jobs and starts
// sweeping. On error everything already started is stopped again.
func (d *Daemon) Start(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			_ = d.Stop(context.Background())
		}
	}()

	d.tracing, err = telemetry.Setup(ctx, d.cfg.Telemetry, d.opts.Version)
	if err != nil {
		return err
	}

	m := metrics.New()
	schedOpts := []schedule.Option{
		schedule.WithLogger(d.logger),
		schedule.WithObserver(m),
	}
	if d.cfg.ContinueOnError {
		schedOpts = append(schedOpts, schedule.WithContinueOnError())
	}

	var recorder *history.Recorder
	if d.cfg.History.Enabled {
		path := d.cfg.History.Path
		if path == "" {
			path = history.DefaultPath(d.dataDir())
		}
		d.store, err = history.Open(ctx, path, d.cfg.History.BusyTimeout)
		if err != nil {
			return err
		}
		recorder = history.NewRecorder(d.store, d.logger)
		schedOpts = append(schedOpts, schedule.WithObserver(recorder))
		d.logger.Info("daemon: recording run history", "path", path)
	}

	var hub *gateway.Hub
	if d.cfg.Gateway.Enabled {
		hub = gateway.NewHub(d.logger)
		schedOpts = append(schedOpts, schedule.WithObserver(hub))
	}

	sched := schedule.New(append(schedOpts, d.opts.SchedulerOptions...)...)
	d.registry = NewRegistry(sched, m, d.logger)

	if err := d.registerJobs(); err != nil {
		return err
	}
	if recorder != nil && d.cfg.History.Retention > 0 {
		prune := recorder.PruneFunc(d.cfg.History.Retention, time.Now)
		if _, err := d.registry.Register(PruneJobName, 1, schedule.Hours, prune); err != nil {
			return err
		}
	}

	if d.cfg.Gateway.Enabled {
		deps := gateway.Deps{
			Logger:  d.logger,
			Jobs:    d.registry,
			Metrics: m.Handler(),
			Events:  hub,
		}
		if d.store != nil {
			deps.History = d.store
		}
		d.gateway = gateway.New(d.cfg.Gateway, deps)
		if err := d.gateway.Start(ctx); err != nil {
			return err
		}
	}

	d.driver = NewDriver(d.cfg.PollInterval, d.registry.Sweep, d.logger)
	if err := d.driver.Start(); err != nil {
		return err
	}

	d.logger.Info("daemon: started", "jobs", d.registry.Len(), "poll_interval", d.cfg.PollInterval)
	return nil
}

func (d *Daemon) registerJobs() error {
	built, err := d.buildJobs(d.cfg.Jobs)
	if err != nil {
		return err
	}
	for _, b := range built {
		if _, err := d.registry.Register(b.name, b.every, b.unit, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) dataDir() string {
	if d.cfg.DataDir != "" {
		return d.cfg.DataDir
	}
	return d.opts.DataDir
}

// Stop stops sweeping, then shuts down the gateway, history and tracing in
// that order. It is safe to call on a partially started daemon.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error
	if d.driver != nil {
		errs = append(errs, d.driver.Stop(ctx))
		d.driver = nil
	}
	if d.gateway != nil {
		errs = append(errs, d.gateway.Stop(ctx))
		d.gateway = nil
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
		d.store = nil
	}
	if d.tracing != nil {
		errs = append(errs, d.tracing(ctx))
		d.tracing = nil
	}
	return errors.Join(errs...)
}

// Run starts the daemon and blocks until SIGINT, SIGTERM or the end of
// ctx, then stops it. SIGHUP, and changes to the configuration file when
// watch_config is set, reload the job list.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		return err
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var changes <-chan reload.Event
	if d.cfg.WatchConfig && d.opts.ConfigPath != "" {
		w := reload.NewWatcher(d.opts.ConfigPath, reload.DefaultInterval)
		w.Start(ctx)
		defer w.Stop()
		changes = w.Events()
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-hup:
			d.logger.Info("daemon: SIGHUP received, reloading configuration")
			if err := d.Reload(ctx); err != nil {
				d.logger.Error("daemon: reload failed", "error", err)
			}
		case ev := <-changes:
			d.logger.Info("daemon: configuration file changed, reloading", "path", ev.Path)
			if err := d.Reload(ctx); err != nil {
				d.logger.Error("daemon: reload failed", "error", err)
			}
		}
	}

	d.logger.Info("daemon: shutdown signal received")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("daemon: shutdown: %w", err)
	}
	d.logger.Info("daemon: shutdown complete")
	return nil
}
