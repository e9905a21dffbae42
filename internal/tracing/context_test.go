package tracing

import (
	"context"
	"testing"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if id1 == "" {
		t.Error("NewTraceID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTraceID returned duplicate IDs")
	}
}

func TestNewRequestID(t *testing.T) {
	id1 := NewRequestID()
	id2 := NewRequestID()

	if id1 == "" {
		t.Error("NewRequestID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewRequestID returned duplicate IDs")
	}
}

func TestWithTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "test-trace-id")

	if got := GetTraceID(ctx); got != "test-trace-id" {
		t.Errorf("Expected trace ID test-trace-id, got %s", got)
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("Expected request ID req-1, got %s", got)
	}
}

func TestGetFromEmptyContext(t *testing.T) {
	ctx := context.Background()

	if GetTraceID(ctx) != "" {
		t.Error("Expected empty trace ID")
	}
	if GetRequestID(ctx) != "" {
		t.Error("Expected empty request ID")
	}
}

func TestNewContextRoundTrip(t *testing.T) {
	tc := &TraceContext{TraceID: "trace", RequestID: "req"}

	got := FromContext(NewContext(context.Background(), tc))

	if got.TraceID != "trace" || got.RequestID != "req" {
		t.Errorf("Unexpected trace context: %+v", got)
	}
}

func TestNewRequestContext(t *testing.T) {
	t.Run("keeps provided ID", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "abc")
		if GetRequestID(ctx) != "abc" {
			t.Errorf("Expected request ID abc, got %s", GetRequestID(ctx))
		}
	})

	t.Run("generates ID when empty", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "")
		if GetRequestID(ctx) == "" {
			t.Error("Expected generated request ID")
		}
	})
}
