package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure. The boundary layer reports it as error_type.
type Kind string

const (
	// KindConnection means the model endpoint was unreachable, timed out or
	// answered with a non-success status.
	KindConnection Kind = "connection"
	// KindResponse means the model answered but its output was empty or not a
	// valid instruction.
	KindResponse Kind = "response"
	// KindDispatch means the tool endpoint could not be found or failed.
	KindDispatch Kind = "dispatch"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// Sentinel errors. Use errors.Is to check.
var (
	ErrModelUnavailable     = errors.New("model endpoint unavailable")
	ErrEmptyOutput          = errors.New("empty model output")
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrToolNotFound         = errors.New("tool not found")
	ErrToolInvocation       = errors.New("tool invocation failed")
	ErrInternal             = errors.New("internal error")
)

// Error is the single error type surfaced by the pipeline.
type Error struct {
	Kind       Kind
	Message    string
	Details    string
	Tool       string
	Path       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Tool != "" {
		fmt.Fprintf(&b, " (tool %q", e.Tool)
		if e.Path != "" {
			fmt.Fprintf(&b, ", path %q", e.Path)
		}
		b.WriteString(")")
	}
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err. Errors that did not come from the pipeline
// are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func connectionError(message string, err error) *Error {
	e := &Error{Kind: KindConnection, Message: message, Err: ErrModelUnavailable}
	if err != nil {
		e.Details = err.Error()
		e.Err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return e
}

func responseError(sentinel error, details string) *Error {
	return &Error{
		Kind:    KindResponse,
		Message: sentinel.Error(),
		Details: details,
		Err:     sentinel,
	}
}

func dispatchError(sentinel error, tool, path, details string) *Error {
	return &Error{
		Kind:    KindDispatch,
		Message: sentinel.Error(),
		Details: details,
		Tool:    tool,
		Path:    path,
		Err:     sentinel,
	}
}

func internalError(details string) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "unexpected error while processing request",
		Details: details,
		Err:     ErrInternal,
	}
}
