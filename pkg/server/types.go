package server

import (
	"context"
	"encoding/json"
	"time"
)

// Runner executes one natural-language query. *agent.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, query string) (json.RawMessage, error)
}

// Options configures the server
type Options struct {
	Host               string            // default "0.0.0.0"
	Port               int               // default 8080
	RateLimitPerMinute int               // per client IP on /ask and /tool-call, 0 disables
	ShutdownTimeout    time.Duration     // default 30s
	ToolTimeout        time.Duration     // handler timeout on tool endpoints, default 30s
	ToolRoutes         map[string]string // tool name -> endpoint path
	BookingPath        string            // default "tool-call"
}

// AskRequest is the body of POST /ask
type AskRequest struct {
	Query string `json:"query"`
}

// SuccessResponse wraps a pipeline result
type SuccessResponse struct {
	Result json.RawMessage `json:"result"`
	Status string          `json:"status"`
}

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	ErrorType string `json:"error_type"`
	Status    string `json:"status"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string   `json:"status"`
	Uptime    float64  `json:"uptime"`
	Timestamp int64    `json:"timestamp"`
	Tools     []string `json:"tools"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Error types reported in addition to the pipeline kinds.
const (
	errorTypeRequest       = "request"
	errorTypeValidation    = "validation"
	errorTypeNotFound      = "not_found"
	errorTypeUpstream      = "upstream"
	errorTypeTimeout       = "timeout"
	errorTypeUnavailable   = "unavailable"
	errorTypeRateLimited   = "rate_limited"
	errorTypeInternal      = "internal"
	errorTypeNotConfigured = "not_configured"
)
