package adapters

import (
	"errors"

	"github.com/harun/mcpgate/pkg/toolexecutor"
)

var (
	// ErrNotFound means the upstream has no such resource.
	ErrNotFound = errors.New("resource not found")
	// ErrUpstream means the upstream failed or answered with something unusable.
	ErrUpstream = errors.New("upstream error")
	// ErrTimeout means the upstream did not answer within the adapter timeout.
	ErrTimeout = errors.New("upstream timeout")
	// ErrNotConfigured means the adapter has no upstream address.
	ErrNotConfigured = errors.New("adapter not configured")
)

// ValidationError reports invalid adapter arguments. It is the same type the
// tool executor returns for schema failures.
type ValidationError = toolexecutor.ValidationError

// Error is an adapter failure with a caller-facing message. It matches one of
// the sentinels above with errors.Is.
type Error struct {
	Kind       error
	Message    string
	StatusCode int // upstream status, when there was one
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalid(tool, msg string) error {
	return &ValidationError{Tool: tool, Problems: []string{msg}}
}
