package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// DispatchTracer provides distributed tracing for the alert pipeline:
// queue processing, recipient resolution and per-channel delivery.
type DispatchTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	// Create OTLP exporter
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Create resource
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("alert-engine"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewDispatchTracer creates a new dispatch tracer
func NewDispatchTracer(serviceName string) *DispatchTracer {
	tracer := otel.Tracer(serviceName)
	return &DispatchTracer{tracer: tracer}
}

// StartProcessSpan starts a span covering one alert's trip through the
// queue processor.
func (dt *DispatchTracer) StartProcessSpan(ctx context.Context, alertID, alertType, priority string) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "alert_process",
		trace.WithAttributes(
			attribute.String("alert.id", alertID),
			attribute.String("alert.type", alertType),
			attribute.String("alert.priority", priority),
			attribute.String("component", "queue-processor"),
		),
	)
	return ctx, span
}

// StartChannelSpan starts a span for a single channel delivery within an
// alert dispatch.
func (dt *DispatchTracer) StartChannelSpan(ctx context.Context, channel string, recipients int) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "channel_send",
		trace.WithAttributes(
			attribute.String("channel.name", channel),
			attribute.Int("channel.recipients", recipients),
			attribute.String("component", "dispatcher"),
		),
	)
	return ctx, span
}

// StartEscalationSpan starts a span for an escalation firing.
func (dt *DispatchTracer) StartEscalationSpan(ctx context.Context, alertID string, level int) (context.Context, trace.Span) {
	ctx, span := dt.tracer.Start(ctx, "alert_escalation",
		trace.WithAttributes(
			attribute.String("alert.id", alertID),
			attribute.Int("escalation.level", level),
			attribute.String("component", "escalation-manager"),
		),
	)
	return ctx, span
}

// RecordDispatchMetrics records dispatch outcome attributes on a span.
func (dt *DispatchTracer) RecordDispatchMetrics(span trace.Span, duration time.Duration, recipients, channels, failures int) {
	span.SetAttributes(
		attribute.Int64("dispatch.duration_ms", duration.Milliseconds()),
		attribute.Int("dispatch.recipients", recipients),
		attribute.Int("dispatch.channels", channels),
		attribute.Int("dispatch.failures", failures),
	)

	if failures > 0 {
		span.SetStatus(codes.Error, "one or more channel deliveries failed")
	}
}

// RecordError records an error on a span
func (dt *DispatchTracer) RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attrs...)
	span.RecordError(err)
}

// Global tracer instance. Lazily constructed so instrumented code can use
// it before (or without) InitGlobalTracer; with no SDK installed the otel
// API hands back a no-op tracer.
var (
	globalMu             sync.Mutex
	globalDispatchTracer *DispatchTracer
)

// InitGlobalTracer initializes the global dispatch tracer
func InitGlobalTracer(serviceName string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalDispatchTracer = NewDispatchTracer(serviceName)
}

// GetGlobalTracer returns the global dispatch tracer
func GetGlobalTracer() *DispatchTracer {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalDispatchTracer == nil {
		globalDispatchTracer = NewDispatchTracer("alert-engine")
	}
	return globalDispatchTracer
}
