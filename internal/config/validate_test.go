package config

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/every/internal/history"
)

func validConfig() *Config {
	cfg := &Config{
		Version: "1",
		Jobs: []JobConfig{
			{Name: "backup", Every: 1, Unit: "day", Command: "backup.sh --all"},
			{Name: "ping", Every: 30, Unit: "seconds", HTTP: &HTTPCheck{URL: "http://localhost:8080/health"}},
		},
	}
	cfg.defaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_LargestInterval(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Jobs[0].Every = 15250
	cfg.Jobs[0].Unit = "weeks"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"missing version", func(c *Config) { c.Version = "" }, "version field is required"},
		{"unsupported version", func(c *Config) { c.Version = "2" }, "unsupported version"},
		{"poll too fast", func(c *Config) { c.PollInterval = 100 * time.Millisecond }, "poll_interval"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"no jobs", func(c *Config) { c.Jobs = nil }, "at least one job"},
		{"unnamed job", func(c *Config) { c.Jobs[0].Name = "" }, "name is required"},
		{"duplicate name", func(c *Config) { c.Jobs[1].Name = "backup" }, "duplicate job name"},
		{"zero interval", func(c *Config) { c.Jobs[0].Every = 0 }, "every must be at least 1"},
		{"negative interval", func(c *Config) { c.Jobs[0].Every = -3 }, "every must be at least 1"},
		{"interval overflows", func(c *Config) { c.Jobs[0].Every = 20000; c.Jobs[0].Unit = "weeks" }, "every must be at most 15250 for unit weeks"},
		{"interval overflows seconds", func(c *Config) { c.Jobs[0].Every = math.MaxInt; c.Jobs[0].Unit = "seconds" }, "every must be at most"},
		{"reserved name", func(c *Config) { c.Jobs[0].Name = history.PruneJobName }, "reserved"},
		{"bad unit", func(c *Config) { c.Jobs[0].Unit = "fortnights" }, "invalid unit"},
		{"negative timeout", func(c *Config) { c.Jobs[0].Timeout = -time.Second }, "timeout"},
		{"no action", func(c *Config) { c.Jobs[0].Command = "" }, "one of command or http"},
		{"both actions", func(c *Config) { c.Jobs[1].Command = "true" }, "mutually exclusive"},
		{"unterminated quote", func(c *Config) { c.Jobs[0].Command = `echo "oops` }, "command"},
		{"blank command", func(c *Config) { c.Jobs[0].Command = "   " }, "empty command line"},
		{"bad scheme", func(c *Config) { c.Jobs[1].HTTP.URL = "ftp://host/file" }, "scheme"},
		{"missing host", func(c *Config) { c.Jobs[1].HTTP.URL = "http:///path" }, "host is required"},
		{"bad expect status", func(c *Config) { c.Jobs[1].HTTP.ExpectStatus = 42 }, "expect_status"},
		{"bad gateway bind", func(c *Config) { c.Gateway.Enabled = true; c.Gateway.Bind = "nope" }, "bind"},
		{"bad history retention", func(c *Config) { c.History.Retention = -time.Hour }, "retention"},
		{"bad telemetry endpoint", func(c *Config) { c.Telemetry.Endpoint = "grpc://collector:4317" }, "telemetry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Version = ""
	cfg.Jobs[0].Every = 0
	cfg.Jobs[1].Unit = "ms"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"version", `job "backup"`, `job "ping"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
