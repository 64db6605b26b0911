package history

import (
	"errors"
	"path/filepath"
	"time"
)

const (
	defaultBusyTimeout = 5000
	defaultDBFile      = "history.db"
	defaultRetention   = 30 * 24 * time.Hour
)

// Config holds the run history configuration.
type Config struct {
	// Enabled turns run recording on.
	Enabled bool `yaml:"enabled,omitempty"`

	// Path is the database file path. Defaults to {DataDir}/history.db.
	Path string `yaml:"path,omitempty"`

	// Retention is how long run records are kept. Defaults to 30 days.
	Retention time.Duration `yaml:"retention,omitempty"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout,omitempty"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Retention == 0 {
		c.Retention = defaultRetention
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	if c.BusyTimeout < 0 {
		errs = append(errs, errors.New("history: busy_timeout must be non-negative"))
	}
	if c.Retention < 0 {
		errs = append(errs, errors.New("history: retention must be non-negative"))
	}
	return errors.Join(errs...)
}

// DefaultPath returns the database path used when Path is empty.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, defaultDBFile)
}
