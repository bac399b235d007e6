package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

const (
	// ServerServiceName names traces from the HTTP server
	ServerServiceName = "pimtask-server"
	// WorkerServiceName names traces from the history worker
	WorkerServiceName = "pimtask-worker"
)

// InitTracer initializes the OpenTelemetry tracer provider
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	// Create OTLP HTTP exporter
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // Use insecure for development; use WithTLSClientConfig for production
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Create resource with service name
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
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

	// Set global tracer provider
	otel.SetTracerProvider(tp)

	// Set global propagator to propagate trace context
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Setup installs a tracer provider when tracing is enabled and returns the
// function that flushes it. When disabled the global no-op provider stays
// in place and the returned function does nothing.
func Setup(ctx context.Context, enabled bool, serviceName, endpoint string, logger *zap.Logger) func(context.Context) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !enabled || endpoint == "" {
		logger.Info("tracing_disabled")
		return func(context.Context) error { return nil }
	}

	tp, err := InitTracer(ctx, serviceName, endpoint)
	if err != nil {
		logger.Warn("failed_to_initialize_tracer",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return func(context.Context) error { return nil }
	}
	logger.Info("tracing_enabled",
		zap.String("service", serviceName),
		zap.String("endpoint", endpoint),
	)
	return func(ctx context.Context) error {
		return Shutdown(ctx, tp)
	}
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
