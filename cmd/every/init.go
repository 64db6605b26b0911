package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/flemzord/every/internal/config"
	"github.com/flemzord/every/internal/schedule"
	"github.com/spf13/cobra"
)

// initAnswers are the values collected by the init form.
type initAnswers struct {
	Name     string
	Every    string
	Unit     string
	Command  string
	Gateway  bool
	History  bool
	LogLevel string
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a configuration file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configCandidates()[0]
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			answers := initAnswers{Every: "1", Unit: "hours", History: true, LogLevel: "info"}
			if err := initForm(&answers).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			cfg, err := answers.config()
			if err != nil {
				return err
			}
			if err := writeConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Job name").
				Value(&a.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Run every").
				Description("A positive whole number").
				Value(&a.Every).
				Validate(validateEvery),
			huh.NewSelect[string]().
				Title("Unit").
				Options(huh.NewOptions("seconds", "minutes", "hours", "days", "weeks")...).
				Value(&a.Unit),
			huh.NewInput().
				Title("Command").
				Description("Executed without a shell; quote arguments as in sh").
				Value(&a.Command).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a command is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Record run history?").Value(&a.History),
			huh.NewConfirm().Title("Enable the HTTP gateway on 127.0.0.1:8080?").Value(&a.Gateway),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&a.LogLevel),
		),
	)
}

func validateEvery(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("must be a whole number of at least 1")
	}
	return nil
}

// config turns the answers into a validated configuration.
func (a initAnswers) config() (*config.Config, error) {
	if err := validateEvery(a.Every); err != nil {
		return nil, fmt.Errorf("every: %w", err)
	}
	every, _ := strconv.Atoi(strings.TrimSpace(a.Every))
	unit, err := schedule.ParseUnit(a.Unit)
	if err != nil {
		return nil, err
	}

	raw := fmt.Sprintf("version: \"1\"\nlog:\n  level: %s\n", a.LogLevel)
	cfg, err := config.Parse([]byte(raw))
	if err != nil {
		return nil, err
	}
	cfg.History.Enabled = a.History
	cfg.Gateway.Enabled = a.Gateway
	if a.Gateway {
		cfg.Gateway.Auth.BearerToken = "${EVERY_GATEWAY_TOKEN:-}"
	}
	cfg.Jobs = []config.JobConfig{{
		Name:    strings.TrimSpace(a.Name),
		Every:   every,
		Unit:    unit.String(),
		Command: strings.TrimSpace(a.Command),
	}}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeConfig(path string, cfg *config.Config) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	header := []byte("# Generated by every init.\n")
	return os.WriteFile(path, append(header, data...), 0o600)
}
