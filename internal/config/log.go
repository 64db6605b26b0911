package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LogConfig selects the daemon's log level and output format.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level,omitempty"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format,omitempty"`
}

func (c *LogConfig) defaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

// SlogLevel parses Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to w with the configured level and
// format. Invalid values fall back to info and text; Validate reports them.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
