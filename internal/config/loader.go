package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// secretVarPattern matches variable names whose values are kept out of logs.
var secretVarPattern = regexp.MustCompile(`(?i)(secret|token|password|passwd|key|credential)`)

// Load reads a YAML configuration file, expands environment variables,
// parses it and fills defaults. It does not validate; call Validate.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML bytes the same way Load does.
func Parse(raw []byte) (*Config, error) {
	expanded, secrets, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("expanding variables: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	cfg.defaults()
	cfg.secrets = secrets
	return &cfg, nil
}

// Marshal encodes cfg as YAML, as written by "every init".
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// expandEnv replaces ${VAR} and ${VAR:-default} in raw YAML bytes. Every
// variable with neither an environment value nor a default is reported.
// The values substituted for secret-looking variables are returned.
func expandEnv(raw []byte) ([]byte, []string, error) {
	var (
		errs    []error
		secrets []string
	)

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])

		value, ok := os.LookupEnv(name)
		switch {
		case ok:
		case subs[2] != nil:
			value = string(subs[2])
		default:
			errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
			return match
		}

		if value != "" && secretVarPattern.MatchString(name) {
			secrets = append(secrets, value)
		}
		return []byte(value)
	})

	return result, secrets, errors.Join(errs...)
}
