package server

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/harun/mcpgate/internal/tracing"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// instrument tags each request with a request ID and trace context, attaches
// a request logger to the context, recovers panics and counts responses.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ctx := tracing.ExtractHeaders(r.Context(), r.Header)
		logger := tracing.LoggerFromContext(ctx, s.logger)
		ctx = logger.WithContext(ctx)
		r = r.WithContext(ctx)

		w.Header().Set(tracing.RequestIDHeader, tracing.GetRequestID(ctx))
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				logger.Error().
					Interface("panic", p).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Msg("Panic in HTTP handler")
				if rec.status == 0 {
					writeJSON(rec, http.StatusInternalServerError, ErrorResponse{
						Error:     "internal server error",
						ErrorType: errorTypeInternal,
						Status:    statusError,
					})
				}
			}

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			s.metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(startTime)).
				Msg("HTTP request")
		}()

		next.ServeHTTP(rec, r)
	})
}

// external guards endpoints reached by outside clients: it refuses work
// during shutdown, tracks in-flight requests and applies the rate limit.
func (s *Server) external(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:     "server is shutting down",
				ErrorType: errorTypeUnavailable,
				Status:    statusError,
			})
			return
		}
		s.inFlightReqs.Add(1)
		s.shutdownMu.RUnlock()
		defer s.inFlightReqs.Done()

		ip := clientIP(r)
		if !s.rateLimiter.CheckLimit(ip) {
			retryAfter := s.rateLimiter.GetRetryAfter(ip)
			s.metrics.RateLimitedTotal.Inc()
			requestLogger(r).Warn().
				Str("ip", ip).
				Str("path", r.URL.Path).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:     "too many requests",
				ErrorType: errorTypeRateLimited,
				Status:    statusError,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
