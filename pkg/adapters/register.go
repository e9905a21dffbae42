// Package adapters implements the leaf tools served by this process: the
// JSONPlaceholder post and comments lookups and the booking pass-through.
package adapters

import (
	"fmt"
	"net/http"
	"time"

	"github.com/harun/mcpgate/pkg/toolexecutor"
)

// Options configures Register.
type Options struct {
	JSONPlaceholderBaseURL string
	BookingURL             string
	Timeout                time.Duration
	HTTPClient             *http.Client
}

// Register adds post_call, comments_call and booking_call to executor.
func Register(executor *toolexecutor.ToolExecutor, opts Options) error {
	if executor == nil {
		return fmt.Errorf("tool executor is required")
	}

	jp := NewJSONPlaceholder(opts.JSONPlaceholderBaseURL, opts.Timeout, opts.HTTPClient)
	defs := append(jp.Definitions(), NewBooking(opts.BookingURL, opts.Timeout, opts.HTTPClient).Definition())

	for _, def := range defs {
		if err := executor.RegisterTool(def); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
	}
	return nil
}
