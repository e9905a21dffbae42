package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	require.NoError(t, InitOpenTelemetry("mcpgate-test"))

	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartStage(t *testing.T) {
	rec := recordSpans(t)

	t.Run("should name the span after the stage and adopt its trace id", func(t *testing.T) {
		ctx, span := StartStage(context.Background(), "model_call", attribute.String("model.provider", "ollama"))
		span.End()

		require.True(t, span.SpanContext().IsValid())
		assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))

		ended := rec.Ended()
		require.NotEmpty(t, ended)
		got := ended[len(ended)-1]
		assert.Equal(t, "agent.model_call", got.Name())
		assert.Equal(t, Scope, got.InstrumentationScope().Name)
		assert.Contains(t, got.Attributes(), attribute.String("agent.stage", "model_call"))
		assert.Contains(t, got.Attributes(), attribute.String("model.provider", "ollama"))
	})

	t.Run("should keep an existing trace id", func(t *testing.T) {
		ctx, span := StartStage(WithTraceID(context.Background(), "upstream-trace"), "run")
		defer span.End()

		assert.Equal(t, "upstream-trace", GetTraceID(ctx))
	})

	t.Run("should propagate the span to outbound headers", func(t *testing.T) {
		ctx, span := StartStage(context.Background(), "dispatch")
		defer span.End()

		h := http.Header{}
		InjectHeaders(ctx, h)
		assert.Contains(t, h.Get("traceparent"), span.SpanContext().TraceID().String())
	})
}

func TestFailStage(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartStage(context.Background(), "dispatch")
	FailStage(span, errors.New("tool not found"), "dispatch")
	span.End()

	ended := rec.Ended()
	require.NotEmpty(t, ended)
	got := ended[len(ended)-1]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "dispatch", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestShutdownOpenTelemetry(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("mcpgate-test"))
	assert.NoError(t, ShutdownOpenTelemetry(context.Background()))
	assert.NoError(t, ShutdownOpenTelemetry(context.Background()))
}
