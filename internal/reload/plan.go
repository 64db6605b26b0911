package reload

import (
	"reflect"

	"github.com/flemzord/every/internal/config"
)

// Plan lists the job changes turning one configuration into another.
type Plan struct {
	// Add are jobs present only in the new configuration.
	Add []config.JobConfig

	// Replace are jobs whose definition changed. They restart their
	// schedule from the moment the plan is applied.
	Replace []config.JobConfig

	// Remove names jobs present only in the old configuration.
	Remove []string
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Replace) == 0 && len(p.Remove) == 0
}

// Diff compares job sets by name. Order follows the new configuration for
// Add and Replace and the old one for Remove.
func Diff(current, next []config.JobConfig) Plan {
	old := make(map[string]config.JobConfig, len(current))
	for _, j := range current {
		old[j.Name] = j
	}

	var p Plan
	seen := make(map[string]struct{}, len(next))
	for _, j := range next {
		seen[j.Name] = struct{}{}
		prev, ok := old[j.Name]
		switch {
		case !ok:
			p.Add = append(p.Add, j)
		case !reflect.DeepEqual(prev, j):
			p.Replace = append(p.Replace, j)
		}
	}
	for _, j := range current {
		if _, ok := seen[j.Name]; !ok {
			p.Remove = append(p.Remove, j.Name)
		}
	}
	return p
}

// RestartRequired returns the settings that differ between the two
// configurations and only take effect after a restart.
func RestartRequired(current, next *config.Config) []string {
	var changed []string
	check := func(name string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			changed = append(changed, name)
		}
	}
	check("data_dir", current.DataDir, next.DataDir)
	check("poll_interval", current.PollInterval, next.PollInterval)
	check("continue_on_error", current.ContinueOnError, next.ContinueOnError)
	check("watch_config", current.WatchConfig, next.WatchConfig)
	check("log", current.Log, next.Log)
	check("gateway", current.Gateway, next.Gateway)
	check("history", current.History, next.History)
	check("telemetry", current.Telemetry, next.Telemetry)
	return changed
}
