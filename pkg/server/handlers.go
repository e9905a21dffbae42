package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harun/mcpgate/internal/tracing"
	"github.com/harun/mcpgate/pkg/adapters"
	"github.com/harun/mcpgate/pkg/agent"
	"github.com/harun/mcpgate/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startTime).Seconds(),
		Timestamp: time.Now().UnixMilli(),
		Tools:     s.executor.ListTools(),
	})
}

// handleAsk runs the pipeline for {"query": "..."}.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	body, err := readBody(w, r)
	if err != nil {
		writeRequestError(w, err.Error())
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		writeRequestError(w, "request body must be a JSON object")
		return
	}
	var query string
	if raw, ok := fields["query"]; !ok || json.Unmarshal(raw, &query) != nil {
		writeRequestError(w, `"query" must be a string`)
		return
	}
	if query == "" {
		writeRequestError(w, `"query" must not be empty`)
		return
	}

	logger.Info().Int("query_length", len(query)).Msg("Ask request received")

	result, err := s.runner.Run(r.Context(), query)
	if err != nil {
		status, resp := agentErrorResponse(err)
		if status == http.StatusInternalServerError {
			logger.Error().Err(err).Msg("Ask request failed with internal error")
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Result: result, Status: statusSuccess})
}

// toolHandler serves one registered tool. The body is the tool's argument
// object; the answer is the tool's JSON result, unwrapped.
func (s *Server) toolHandler(tool string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(r)

		body, err := readBody(w, r)
		if err != nil {
			writeRequestError(w, err.Error())
			return
		}

		var params map[string]any
		if len(bytes.TrimSpace(body)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			var v any
			if err := dec.Decode(&v); err != nil {
				writeRequestError(w, fmt.Sprintf("invalid JSON body: %v", err))
				return
			}
			obj, ok := v.(map[string]any)
			if !ok {
				writeRequestError(w, "tool arguments must be a JSON object")
				return
			}
			params = obj
		}

		execCtx := &toolexecutor.ExecutionContext{
			RequestID:   tracing.GetRequestID(r.Context()),
			BearerToken: adapters.BearerToken(r.Header.Get("Authorization")),
			Timeout:     s.options.ToolTimeout,
		}

		result, err := s.executor.Execute(r.Context(), tool, params, execCtx)
		if err != nil {
			status, resp := toolErrorResponse(err)
			logger.Info().
				Str("tool", tool).
				Int("status", status).
				Str("error_type", resp.ErrorType).
				Err(err).
				Msg("Tool request failed")
			writeJSON(w, status, resp)
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

// agentErrorResponse maps a pipeline error to its HTTP status and body.
// Internal details never leave the process.
func agentErrorResponse(err error) (int, ErrorResponse) {
	kind := agent.KindOf(err)
	resp := ErrorResponse{ErrorType: string(kind), Status: statusError}

	var ae *agent.Error
	if errors.As(err, &ae) && kind != agent.KindInternal {
		resp.Error = ae.Message
		resp.Details = ae.Details
		if ae.Tool != "" {
			resp.Details = fmt.Sprintf("tool %s (%s): %s", ae.Tool, ae.Path, ae.Details)
		}
	} else {
		resp.Error = "internal server error"
	}

	switch kind {
	case agent.KindConnection:
		return http.StatusServiceUnavailable, resp
	case agent.KindResponse, agent.KindDispatch:
		return http.StatusBadGateway, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

// toolErrorResponse maps executor and adapter errors to HTTP. Missing
// resources answer 422 so that 404 always means "no such tool endpoint".
func toolErrorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error(), Status: statusError}

	var ve *toolexecutor.ValidationError
	switch {
	case errors.As(err, &ve):
		resp.ErrorType = errorTypeValidation
		return http.StatusBadRequest, resp
	case errors.Is(err, toolexecutor.ErrToolNotFound):
		resp.ErrorType = errorTypeNotFound
		return http.StatusNotFound, resp
	case errors.Is(err, adapters.ErrNotFound):
		resp.ErrorType = errorTypeNotFound
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, adapters.ErrTimeout), errors.Is(err, toolexecutor.ErrTimeout):
		resp.ErrorType = errorTypeTimeout
		return http.StatusGatewayTimeout, resp
	case errors.Is(err, adapters.ErrNotConfigured):
		resp.ErrorType = errorTypeNotConfigured
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, adapters.ErrUpstream):
		resp.ErrorType = errorTypeUpstream
		return http.StatusBadGateway, resp
	default:
		resp.ErrorType = errorTypeInternal
		resp.Error = "internal server error"
		return http.StatusInternalServerError, resp
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

func writeRequestError(w http.ResponseWriter, details string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     "invalid request",
		Details:   details,
		ErrorType: errorTypeRequest,
		Status:    statusError,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}
