package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harun/mcpgate/internal/tracing"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// DefaultTimeout bounds one upstream request.
const DefaultTimeout = 5 * time.Second

const maxBodySize = 4 << 20

// upstream performs JSON requests against one remote API behind a circuit
// breaker. A tripped breaker fails calls fast with ErrUpstream.
type upstream struct {
	name       string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type upstreamResponse struct {
	status int
	body   []byte
}

func newUpstream(name string, timeout time.Duration, httpClient *http.Client) *upstream {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &upstream{
		name:       name,
		timeout:    timeout,
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("upstream", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
	}
}

// do sends the request and returns status and body. Only transport failures
// and 5xx answers count against the breaker; other statuses are for the
// caller to interpret.
func (u *upstream) do(ctx context.Context, method, url string, payload any, header http.Header) (*upstreamResponse, error) {
	out, err := u.breaker.Execute(func() (interface{}, error) {
		resp, err := u.roundTrip(ctx, method, url, payload, header)
		if err != nil {
			return nil, err
		}
		if resp.status >= 500 {
			return resp, fmt.Errorf("status %d", resp.status)
		}
		return resp, nil
	})

	if resp, ok := out.(*upstreamResponse); ok && resp != nil {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &Error{Kind: ErrUpstream, Message: fmt.Sprintf("%s circuit open", u.name), Err: err}
	}
	return nil, err
}

func (u *upstream) roundTrip(ctx context.Context, method, url string, payload any, header http.Header) (*upstreamResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return &upstreamResponse{status: resp.StatusCode, body: data}, nil
}

// isTimeout reports whether err came from the per-request deadline rather
// than from the caller cancelling.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
