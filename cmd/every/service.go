package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/flemzord/every/internal/config"
	"github.com/flemzord/every/internal/daemon"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var serviceActions = append([]string{"run"}, service.ControlAction[:]...)

func serviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       fmt.Sprintf("service <%s>", joinActions()),
		Short:     "Install or control every as an OS service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: serviceActions,
		RunE: func(cmd *cobra.Command, args []string) error {
			action := args[0]
			if !slices.Contains(serviceActions, action) {
				return fmt.Errorf("unknown service action %q (valid: %s)", action, joinActions())
			}

			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			prg := &program{cfg: cfg, path: abs}
			svc, err := service.New(prg, serviceConfig(abs))
			if err != nil {
				return fmt.Errorf("service: %w", err)
			}

			if action == "run" {
				return svc.Run()
			}
			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
			return nil
		},
	}
}

func serviceConfig(configPath string) *service.Config {
	return &service.Config{
		Name:        "every",
		DisplayName: "every job scheduler",
		Description: "Runs commands and HTTP checks at fixed intervals.",
		Arguments:   []string{"service", "run", "--config", configPath},
	}
}

func joinActions() string {
	return strings.Join(serviceActions, "|")
}

// program adapts the daemon to the service manager's Start/Stop contract.
type program struct {
	cfg  *config.Config
	path string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

// Start must not block.
func (p *program) Start(service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	d := daemon.New(p.cfg, daemon.Options{Version: version, DataDir: defaultDataDir(), ConfigPath: p.path})
	go func() { p.done <- d.Run(ctx) }()
	return nil
}

func (p *program) Stop(service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return <-p.done
}
