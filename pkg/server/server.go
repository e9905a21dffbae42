package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/harun/mcpgate/internal/metrics"
	"github.com/harun/mcpgate/pkg/adapters"
	"github.com/harun/mcpgate/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// ToolPrefix roots the tool endpoints the pipeline dispatches to. Tool paths
// live below it so no model-chosen name can reach /ask or /tool-call.
const ToolPrefix = "/tools"

// Server is the HTTP boundary: /ask, the tool endpoints under ToolPrefix,
// /tool-call, /health and /metrics.
type Server struct {
	options        Options
	server         *http.Server
	handler        http.Handler
	runner         Runner
	executor       *toolexecutor.ToolExecutor
	metrics        *metrics.Metrics
	rateLimiter    *RateLimiter
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a server. A nil metrics value gets a private registry.
func NewServer(options Options, runner Runner, executor *toolexecutor.ToolExecutor, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if executor == nil {
		return nil, fmt.Errorf("tool executor is required")
	}

	if options.Port == 0 {
		options.Port = 8080
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.ShutdownTimeout <= 0 {
		options.ShutdownTimeout = 30 * time.Second
	}
	if options.ToolTimeout <= 0 {
		options.ToolTimeout = toolexecutor.DefaultTimeout
	}
	if options.BookingPath == "" {
		options.BookingPath = "tool-call"
	}
	if m == nil {
		m = metrics.NewMetrics()
	}

	routes, err := toolRoutes(options.ToolRoutes, executor)
	if err != nil {
		return nil, err
	}
	options.ToolRoutes = routes

	options.BookingPath = strings.Trim(options.BookingPath, "/")
	if err := checkBookingPath(options.BookingPath); err != nil {
		return nil, err
	}

	s := &Server{
		options:     options,
		runner:      runner,
		executor:    executor,
		metrics:     m,
		rateLimiter: NewRateLimiter(options.RateLimitPerMinute),
		logger:      logger.With().Str("component", "server").Logger(),
		startTime:   time.Now(),
	}
	s.handler = s.routes()

	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("POST /ask", s.external(http.HandlerFunc(s.handleAsk)))
	mux.Handle("POST /"+s.options.BookingPath, s.external(s.toolHandler(adapters.BookingTool)))

	for tool, path := range s.options.ToolRoutes {
		mux.Handle("POST "+ToolPrefix+"/"+path, s.toolHandler(tool))
	}

	return s.instrument(mux)
}

// toolRoutes normalizes the tool route table. Every path must be non-empty,
// free of mux wildcards and unique, and every tool must be registered.
func toolRoutes(in map[string]string, executor *toolexecutor.ToolExecutor) (map[string]string, error) {
	routes := make(map[string]string, len(in))
	owners := make(map[string]string, len(in))
	for tool, path := range in {
		path = strings.Trim(path, "/")
		if path == "" {
			return nil, fmt.Errorf("empty path for tool %s", tool)
		}
		if strings.ContainsAny(path, "{} ") {
			return nil, fmt.Errorf("invalid path %q for tool %s", path, tool)
		}
		if executor.GetTool(tool) == nil {
			return nil, fmt.Errorf("tool %s has a route but is not registered", tool)
		}
		if other, ok := owners[path]; ok {
			return nil, fmt.Errorf("tools %s and %s share the path %q", other, tool, path)
		}
		owners[path] = tool
		routes[tool] = path
	}
	return routes, nil
}

func checkBookingPath(path string) error {
	switch {
	case path == "" || strings.ContainsAny(path, "{} "):
		return fmt.Errorf("invalid booking path %q", path)
	case path == "ask" || path == "health" || path == "metrics":
		return fmt.Errorf("booking path %q collides with a built-in route", path)
	case path == strings.TrimPrefix(ToolPrefix, "/") || strings.HasPrefix("/"+path, ToolPrefix+"/"):
		return fmt.Errorf("booking path %q is inside the tool prefix", path)
	}
	return nil
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.options.Host, fmt.Sprintf("%d", s.options.Port))
}

// Start listens on the configured address and serves until Stop is called
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(l)
}

// Serve serves on l until Stop is called. It returns nil after a clean stop.
func (s *Server) Serve(l net.Listener) error {
	s.shutdownMu.Lock()
	if s.isShuttingDown {
		s.shutdownMu.Unlock()
		return l.Close()
	}
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.shutdownMu.Unlock()

	s.logger.Info().
		Str("addr", l.Addr().String()).
		Strs("tools", s.executor.ListTools()).
		Msg("Starting HTTP server")

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop rejects new external requests, waits for in-flight ones to finish
// and then shuts the listener down. Tool endpoints stay open while waiting
// so in-flight pipelines can still dispatch to them.
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	srv := s.server
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(ctx, s.options.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.rateLimiter.Stop()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		if closeErr := srv.Close(); closeErr != nil {
			s.logger.Error().Err(closeErr).Msg("Failed to close HTTP server")
		}
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShuttingDown
}
