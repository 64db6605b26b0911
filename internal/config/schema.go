// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for the every daemon.
package config

import (
	"time"

	"github.com/flemzord/every/internal/gateway"
	"github.com/flemzord/every/internal/history"
	"github.com/flemzord/every/internal/telemetry"
)

const (
	// DefaultPollInterval is how often the daemon sweeps for due jobs.
	DefaultPollInterval = time.Second

	// MinPollInterval is the finest cadence the cron driver supports.
	MinPollInterval = time.Second
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir holds persistent daemon data (run history). Empty means the
	// platform default chosen by the CLI.
	DataDir string `yaml:"data_dir,omitempty"`

	// PollInterval is the delay between two sweeps. It bounds scheduling
	// precision: a job never runs before the first sweep after it is due.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// ContinueOnError keeps a sweep going after a job fails instead of
	// leaving the remaining due jobs for the next sweep.
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`

	// WatchConfig reloads the job list when the configuration file
	// changes. SIGHUP always triggers a reload.
	WatchConfig bool `yaml:"watch_config,omitempty"`

	Log       LogConfig        `yaml:"log,omitempty"`
	Gateway   gateway.Config   `yaml:"gateway,omitempty"`
	History   history.Config   `yaml:"history,omitempty"`
	Telemetry telemetry.Config `yaml:"telemetry,omitempty"`

	Jobs []JobConfig `yaml:"jobs"`

	secrets []string
}

// Secrets returns values that must not appear in logs: the gateway
// credentials and the expansion of every ${VAR} whose name suggests a
// secret (TOKEN, PASSWORD, KEY...).
func (c *Config) Secrets() []string {
	out := append([]string(nil), c.secrets...)
	for _, s := range []string{c.Gateway.Auth.BearerToken, c.Gateway.Auth.BasicPass} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JobConfig declares one recurring job.
type JobConfig struct {
	// Name identifies the job in logs, metrics, history and the admin API.
	Name string `yaml:"name"`

	// Every is the interval, counted in Unit.
	Every int `yaml:"every"`

	// Unit is one of seconds, minutes, hours, days, weeks (singular
	// forms are accepted).
	Unit string `yaml:"unit"`

	// Command is a shell-style command line executed without a shell.
	Command string `yaml:"command,omitempty"`

	// HTTP probes a URL instead of running a command.
	HTTP *HTTPCheck `yaml:"http,omitempty"`

	// Timeout bounds a single run. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// HTTPCheck is a request whose response status decides the run outcome.
type HTTPCheck struct {
	URL    string `yaml:"url"`
	Method string `yaml:"method,omitempty"`

	// ExpectStatus is the required response status. Zero accepts any 2xx.
	ExpectStatus int `yaml:"expect_status,omitempty"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	c.Log.defaults()
	c.Gateway.Defaults()
	c.History.Defaults()
	c.Telemetry.Defaults()
	for i := range c.Jobs {
		if h := c.Jobs[i].HTTP; h != nil && h.Method == "" {
			h.Method = "GET"
		}
	}
}
