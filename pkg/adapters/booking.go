package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/harun/mcpgate/pkg/toolexecutor"
)

// BookingTool is the tool name of the booking pass-through.
const BookingTool = "booking_call"

// Booking forwards a JSON payload to the internal booking API on behalf of
// the caller, using the caller's bearer token.
type Booking struct {
	url      string
	upstream *upstream
}

// NewBooking creates the adapter. With an empty url every call fails with
// ErrNotConfigured.
func NewBooking(url string, timeout time.Duration, httpClient *http.Client) *Booking {
	return &Booking{
		url:      url,
		upstream: newUpstream("booking", timeout, httpClient),
	}
}

// Handle posts params to the booking API and returns its JSON answer. The
// bearer token comes from the execution context.
func (b *Booking) Handle(ctx context.Context, params map[string]any) (any, error) {
	if b.url == "" {
		return nil, &Error{Kind: ErrNotConfigured, Message: "booking API url is not configured"}
	}
	if params == nil {
		params = map[string]any{}
	}

	header := http.Header{}
	if execCtx := toolexecutor.ExecContextFromContext(ctx); execCtx != nil && execCtx.BearerToken != "" {
		header.Set("Authorization", "Bearer "+execCtx.BearerToken)
	}

	resp, err := b.upstream.do(ctx, http.MethodPost, b.url, params, header)
	if err != nil {
		return nil, fetchError(ctx, err, "timeout while calling booking API")
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, &Error{Kind: ErrUpstream, Message: describeStatus(resp.status), StatusCode: resp.status}
	}
	if !json.Valid(resp.body) {
		return nil, &Error{Kind: ErrUpstream, Message: "booking API returned invalid JSON"}
	}
	return json.RawMessage(resp.body), nil
}

// Definition returns the booking tool definition. Its payload is free-form.
func (b *Booking) Definition() toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        BookingTool,
		Description: "Forward a booking request to the internal booking API.",
		Handler:     b.Handle,
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header
// value, or "" when the value is not a bearer credential.
func BearerToken(authorization string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
