// Package main is the entry point for the every CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flemzord/every/internal/config"
	"github.com/flemzord/every/internal/daemon"
	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "every",
		Short:         "Run commands and HTTP checks at fixed intervals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(versionCmd(), runCmd(), validateCmd(), historyCmd(), initCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "every %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			d := daemon.New(cfg, daemon.Options{Version: version, DataDir: defaultDataDir(), ConfigPath: path})
			return d.Run(cmd.Context())
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("config", args[0]); err != nil {
					return err
				}
			}
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK: %s (%d jobs)\n", path, len(cfg.Jobs))
			for _, j := range cfg.Jobs {
				fmt.Fprintf(out, "  %-20s every %d %s\n", j.Name, j.Every, j.Unit)
			}
			return nil
		},
	}
}

// loadConfig loads and validates the configuration named by --config, or
// the first one found in the standard locations.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		resolved, err := resolveConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/every/every.yaml → ~/.config/every/every.yaml → ./every.yaml
func resolveConfigPath() (string, error) {
	candidates := configCandidates()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

func configCandidates() []string {
	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "every", "every.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "every", "every.yaml"))
	}
	return append(candidates, "every.yaml")
}

// defaultDataDir returns $XDG_DATA_HOME/every, or ~/.local/share/every.
func defaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "every")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "every")
}
