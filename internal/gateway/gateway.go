// Package gateway provides the HTTP server for monitoring and administering
// a running scheduler. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/every/internal/history"
)

// Registry is the job registry the gateway reads and administers. Its
// methods must be safe to call from HTTP handlers while the scheduler runs.
type Registry interface {
	Snapshot() []JobStatus
	Remove(id string) bool
	RunAll(ctx context.Context) error
}

// HistoryReader reads recorded runs.
type HistoryReader interface {
	Recent(ctx context.Context, job string, limit int) ([]history.Run, error)
}

// Deps are the collaborators served by the gateway. Jobs is required;
// a nil History, Metrics or Events leaves the matching routes unmounted.
type Deps struct {
	Logger  *slog.Logger
	Jobs    Registry
	History HistoryReader
	Metrics http.Handler
	Events  *Hub
}

// Gateway is the HTTP gateway. It exposes health, metrics, the job API and
// the live run event stream.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	jobs      Registry
	history   HistoryReader
	metrics   http.Handler
	events    *Hub
	server    *http.Server
	addr      net.Addr
	startedAt time.Time
}

// New creates a gateway. cfg is expected to have had Defaults applied.
func New(cfg Config, deps Deps) *Gateway {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:    cfg,
		logger:    logger,
		jobs:      deps.Jobs,
		history:   deps.History,
		metrics:   deps.Metrics,
		events:    deps.Events,
		startedAt: time.Now(),
	}
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.config.Auth.IsConfigured() {
		g.logger.Warn("gateway: no auth configured, job API and event stream disabled")
	}

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}
	g.addr = ln.Addr()
	g.startedAt = time.Now()

	go func() {
		g.logger.Info("gateway: listening", "addr", g.addr.String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway: serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listening address, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	return g.addr
}

// Stop closes the event stream and shuts the server down gracefully within
// the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	if g.events != nil {
		g.events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway: shutting down")
	return g.server.Shutdown(shutdownCtx)
}
