// Package daemon assembles the service from configuration and runs it until a
// signal arrives.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/harun/mcpgate/internal/config"
	"github.com/harun/mcpgate/internal/logger"
	"github.com/harun/mcpgate/internal/metrics"
	"github.com/harun/mcpgate/internal/tracing"
	"github.com/harun/mcpgate/pkg/adapters"
	"github.com/harun/mcpgate/pkg/agent"
	"github.com/harun/mcpgate/pkg/server"
	"github.com/harun/mcpgate/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// Daemon represents the mcpgate service
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	metrics      *metrics.Metrics
	toolExecutor *toolexecutor.ToolExecutor
	orchestrator *agent.Orchestrator
	server       *server.Server
	lifecycle    *LifecycleManager

	tracingEnabled bool
	listener       net.Listener
	serveErr       chan error

	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// Status represents daemon status
type Status struct {
	Running   bool
	StartTime time.Time
	Uptime    time.Duration
	Addr      string
}

// New creates a daemon and wires every component from cfg
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := &Daemon{
		config:   cfg,
		logger:   log,
		serveErr: make(chan error, 1),
	}

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
		} else {
			d.tracingEnabled = true
		}
	}

	if err := d.initialize(); err != nil {
		d.shutdownTracing()
		return nil, err
	}

	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

func (d *Daemon) initialize() error {
	cfg := d.config
	zl := d.logger.GetZerolog()

	d.metrics = metrics.NewMetrics()

	d.toolExecutor = toolexecutor.New()
	d.toolExecutor.SetObserver(d.metrics)

	if err := adapters.Register(d.toolExecutor, adapters.Options{
		JSONPlaceholderBaseURL: cfg.Adapters.JSONPlaceholderBaseURL,
		BookingURL:             cfg.Adapters.BookingURL,
		Timeout:                cfg.Adapters.TimeoutDuration(),
	}); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	orch, err := NewOrchestrator(cfg, zl, d.metrics)
	if err != nil {
		return err
	}
	d.orchestrator = orch

	d.server, err = server.NewServer(server.Options{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		ShutdownTimeout:    cfg.Server.ShutdownTimeoutDuration(),
		ToolTimeout:        cfg.Tools.TimeoutDuration(),
		ToolRoutes:         cfg.ToolPaths(),
	}, d.orchestrator, d.toolExecutor, d.metrics, zl)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	d.logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("local_base", cfg.Server.LocalBase).
		Strs("tools", d.toolExecutor.ListTools()).
		Msg("Components initialized")

	return nil
}

// ToolsBaseURL is the address the dispatcher posts tool calls under.
func ToolsBaseURL(cfg *config.Config) string {
	return strings.TrimRight(cfg.Server.LocalBase, "/") + server.ToolPrefix
}

// NewOrchestrator builds the dispatch pipeline described by cfg. A nil
// recorder disables pipeline metrics.
func NewOrchestrator(cfg *config.Config, log zerolog.Logger, rec agent.Recorder) (*agent.Orchestrator, error) {
	model, err := agent.NewModelClient(agent.ModelOptions{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.TimeoutDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	orch, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		SystemPrompt: cfg.SystemPrompt(),
		Model:        model,
		Registry:     agent.NewRegistry(cfg.ToolPaths()),
		Dispatcher:   agent.NewHTTPDispatcher(ToolsBaseURL(cfg), cfg.Tools.TimeoutDuration()),
		Logger:       log,
		Recorder:     rec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return orch, nil
}

// Start writes the PID file, binds the listener and serves in the background
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.mu.Unlock()

	l, err := net.Listen("tcp", d.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.config.Server.Addr(), err)
	}

	if err := d.lifecycle.Start(); err != nil {
		l.Close()
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	d.mu.Lock()
	d.running = true
	d.startTime = time.Now()
	d.listener = l
	d.mu.Unlock()

	go func() {
		d.serveErr <- d.server.Serve(l)
	}()

	d.logger.Info().Str("addr", l.Addr().String()).Msg("Daemon started")

	return nil
}

// Stop drains the server, removes the PID file and flushes traces
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info().Msg("Stopping daemon")

	var errs []error
	if err := d.server.Stop(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if err := <-d.serveErr; err != nil {
		errs = append(errs, err)
	}
	if err := d.lifecycle.Stop(); err != nil {
		errs = append(errs, err)
	}
	d.shutdownTracing()

	d.logger.Info().Msg("Daemon stopped")

	return errors.Join(errs...)
}

// Wait blocks until SIGINT or SIGTERM, or until the server fails, and then
// stops the daemon
func (d *Daemon) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		d.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	case err := <-d.serveErr:
		// Stop reads serveErr, so hand the result back.
		d.serveErr <- err
		d.logger.Error().Err(err).Msg("Server exited unexpectedly")
	}

	return d.Stop()
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{Running: d.running}
	if d.running {
		status.StartTime = d.startTime
		status.Uptime = time.Since(d.startTime)
		status.Addr = d.listener.Addr().String()
	}
	return status
}

func (d *Daemon) shutdownTracing() {
	if !d.tracingEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to shut down tracing")
	}
	d.tracingEnabled = false
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// GetToolExecutor returns the tool executor
func (d *Daemon) GetToolExecutor() *toolexecutor.ToolExecutor {
	return d.toolExecutor
}

// GetOrchestrator returns the agent pipeline
func (d *Daemon) GetOrchestrator() *agent.Orchestrator {
	return d.orchestrator
}
