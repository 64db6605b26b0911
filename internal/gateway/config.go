package gateway

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Config holds HTTP gateway configuration.
type Config struct {
	Enabled         bool          `yaml:"enabled"`
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the bind address of an enabled gateway.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", c.Bind, err)
	}
	if (c.Auth.BasicUser == "") != (c.Auth.BasicPass == "") {
		return errors.New("gateway: basic auth needs both basic_user and basic_pass")
	}
	return nil
}

// AuthConfig configures authentication for the job API.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}
