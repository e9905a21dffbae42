package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	AgentRequestsTotal   *prometheus.CounterVec
	AgentRequestDuration *prometheus.HistogramVec
	ModelCallsTotal      *prometheus.CounterVec
	ModelCallDuration    *prometheus.HistogramVec
	StreamLinesTotal     *prometheus.CounterVec

	// Tool metrics
	ToolDispatchesTotal  *prometheus.CounterVec
	ToolDispatchDuration *prometheus.HistogramVec
	AdapterRequestsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	RateLimitedTotal  prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		AgentRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_agent_requests_total",
				Help: "Total number of agent pipeline runs by outcome (success or error type)",
			},
			[]string{"outcome"},
		),
		AgentRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpgate_agent_request_duration_seconds",
				Help:    "Duration of agent pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		ModelCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_model_calls_total",
				Help: "Total number of model calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpgate_model_call_duration_seconds",
				Help:    "Duration of model calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		StreamLinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_stream_lines_total",
				Help: "Streamed model response lines by parse result",
			},
			[]string{"result"},
		),

		ToolDispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_tool_dispatches_total",
				Help: "Total number of tool dispatches by tool and status",
			},
			[]string{"tool", "status"},
		),
		ToolDispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpgate_tool_dispatch_duration_seconds",
				Help:    "Duration of tool dispatches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		AdapterRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_adapter_requests_total",
				Help: "Total number of tool handler executions by tool and status",
			},
			[]string{"tool", "status"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_http_requests_total",
				Help: "Total number of inbound HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mcpgate_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.AgentRequestsTotal)
	m.registry.MustRegister(m.AgentRequestDuration)
	m.registry.MustRegister(m.ModelCallsTotal)
	m.registry.MustRegister(m.ModelCallDuration)
	m.registry.MustRegister(m.StreamLinesTotal)

	m.registry.MustRegister(m.ToolDispatchesTotal)
	m.registry.MustRegister(m.ToolDispatchDuration)
	m.registry.MustRegister(m.AdapterRequestsTotal)

	m.registry.MustRegister(m.HTTPRequestsTotal)
	m.registry.MustRegister(m.RateLimitedTotal)
}

// ObserveModelCall records one model call.
func (m *Metrics) ObserveModelCall(provider string, d time.Duration, err error) {
	m.ModelCallsTotal.WithLabelValues(provider, status(err)).Inc()
	m.ModelCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordStreamLines adds the valid and invalid line counts of one assembly.
func (m *Metrics) RecordStreamLines(valid, invalid int) {
	m.StreamLinesTotal.WithLabelValues("valid").Add(float64(valid))
	m.StreamLinesTotal.WithLabelValues("invalid").Add(float64(invalid))
}

// ObserveDispatch records one tool dispatch from the orchestrator.
func (m *Metrics) ObserveDispatch(tool string, d time.Duration, err error) {
	m.ToolDispatchesTotal.WithLabelValues(tool, status(err)).Inc()
	m.ToolDispatchDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveRequest records the outcome of one pipeline run.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	m.AgentRequestsTotal.WithLabelValues(outcome).Inc()
	m.AgentRequestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveToolExecution records one local tool handler execution.
func (m *Metrics) ObserveToolExecution(tool string, err error) {
	m.AdapterRequestsTotal.WithLabelValues(tool, status(err)).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
