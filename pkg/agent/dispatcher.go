package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harun/mcpgate/internal/tracing"
)

// Dispatcher invokes a resolved tool endpoint.
type Dispatcher interface {
	Dispatch(ctx context.Context, tool, path string, args map[string]any) (json.RawMessage, error)
}

// HTTPDispatcher posts tool arguments to endpoints under the service's own
// base address.
type HTTPDispatcher struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPDispatcher creates a dispatcher rooted at baseURL. A non-positive
// timeout defaults to 30 seconds.
func NewHTTPDispatcher(baseURL string, timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Dispatch sends args as the request body to {baseURL}/{path} and returns the
// response body unmodified. Every error is a dispatch *Error naming tool and path.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, tool, path string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, dispatchError(ErrToolInvocation, tool, path,
			fmt.Sprintf("failed to encode args: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	url := d.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, dispatchError(ErrToolInvocation, tool, path,
			fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, dispatchError(ErrToolInvocation, tool, path,
			fmt.Sprintf("network/timeout: %v", err))
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body)
	if err != nil {
		return nil, dispatchError(ErrToolInvocation, tool, path,
			fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		e := dispatchError(ErrToolNotFound, tool, path, fmt.Sprintf("no endpoint at %s", url))
		e.StatusCode = resp.StatusCode
		return nil, e
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details := fmt.Sprintf("status %d", resp.StatusCode)
		if ex := excerpt(raw); ex != "" {
			details += ": " + ex
		}
		e := dispatchError(ErrToolInvocation, tool, path, details)
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	if !json.Valid(raw) {
		e := dispatchError(ErrToolInvocation, tool, path, "invalid JSON from tool")
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	return json.RawMessage(raw), nil
}
