package tracing

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Scope is the instrumentation scope of every span mcpgate starts.
const Scope = "github.com/harun/mcpgate"

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// InitOpenTelemetry registers a tracer provider tagged with serviceName and
// turns on W3C trace-context and baggage propagation, so the trace of an /ask
// request continues through the tool call it dispatches. Only the first
// successful call installs a provider.
func InitOpenTelemetry(serviceName string) error {
	mu.Lock()
	defer mu.Unlock()

	if provider != nil {
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return fmt.Errorf("failed to build tracing resource: %w", err)
	}

	provider = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

// ShutdownOpenTelemetry flushes pending spans. It is a no-op when tracing was
// never initialized.
func ShutdownOpenTelemetry(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartStage opens the span for one pipeline stage ("run", "model_call",
// "dispatch") as "agent.<stage>". The span's trace id becomes the request's
// trace id unless the request already carries one.
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(Scope).Start(ctx, "agent."+stage,
		trace.WithAttributes(append(attrs, attribute.String("agent.stage", stage))...),
	)

	if sc := span.SpanContext(); sc.IsValid() && GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, sc.TraceID().String())
	}

	return ctx, span
}

// FailStage marks span as failed with the given status description.
func FailStage(span trace.Span, err error, description string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}
