package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/flemzord/every/internal/history"
	"github.com/flemzord/every/internal/schedule"
	"github.com/kballard/go-shellquote"
)

// Validate checks the structural validity of a Config and returns every
// problem found, joined.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.PollInterval < MinPollInterval {
		errs = append(errs, fmt.Errorf("config: poll_interval must be at least %s, got %s", MinPollInterval, cfg.PollInterval))
	}

	if _, err := cfg.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", cfg.Log.Format))
	}

	if err := cfg.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if err := cfg.History.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	errs = append(errs, validateJobs(cfg.Jobs)...)

	return errors.Join(errs...)
}

func validateJobs(jobs []JobConfig) []error {
	var errs []error
	if len(jobs) == 0 {
		errs = append(errs, errors.New("config: at least one job must be configured"))
	}

	seen := make(map[string]struct{}, len(jobs))
	for i, j := range jobs {
		prefix := fmt.Sprintf("config: jobs[%d]", i)
		if j.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", prefix))
		} else {
			prefix = fmt.Sprintf("config: job %q", j.Name)
			if j.Name == history.PruneJobName {
				errs = append(errs, fmt.Errorf("%s: name is reserved for the built-in history job", prefix))
			}
			if _, dup := seen[j.Name]; dup {
				errs = append(errs, fmt.Errorf("%s: duplicate job name", prefix))
			}
			seen[j.Name] = struct{}{}
		}

		// The scheduler accepts non-positive intervals (due at every
		// sweep); configured jobs must not rely on that.
		if j.Every < 1 {
			errs = append(errs, fmt.Errorf("%s: every must be at least 1, got %d", prefix, j.Every))
		}
		if unit, err := schedule.ParseUnit(j.Unit); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		} else if limit := unit.MaxInterval(); j.Every > limit {
			errs = append(errs, fmt.Errorf("%s: every must be at most %d for unit %s, got %d", prefix, limit, unit, j.Every))
		}
		if j.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s: timeout must be non-negative", prefix))
		}

		switch {
		case j.Command != "" && j.HTTP != nil:
			errs = append(errs, fmt.Errorf("%s: command and http are mutually exclusive", prefix))
		case j.Command != "":
			if err := validateCommand(j.Command); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
			}
		case j.HTTP != nil:
			if err := validateHTTP(j.HTTP); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: one of command or http is required", prefix))
		}
	}
	return errs
}

func validateCommand(cmd string) error {
	args, err := shellquote.Split(cmd)
	if err != nil {
		return fmt.Errorf("command: %w", err)
	}
	if len(args) == 0 {
		return errors.New("command: empty command line")
	}
	return nil
}

func validateHTTP(h *HTTPCheck) error {
	u, err := url.Parse(h.URL)
	if err != nil {
		return fmt.Errorf("http.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("http.url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("http.url: host is required")
	}
	if h.ExpectStatus != 0 && (h.ExpectStatus < 100 || h.ExpectStatus > 599) {
		return fmt.Errorf("http.expect_status: invalid status %d", h.ExpectStatus)
	}
	return nil
}
