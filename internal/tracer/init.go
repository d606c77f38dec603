package tracer

import (
	"context"

	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const ServiceName = "glassfactory-chat"

// InitTracer installs an OTLP/HTTP tracer provider when tracing is enabled.
// The returned shutdown func is always safe to call.
func InitTracer(ctx context.Context, cfg config.TracingConfig, log logger.ILogger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		log.Info("Tracer", "OpenTelemetry tracing is disabled (set OTEL_ENABLED=true to enable)", nil)
		return noop
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn("Tracer", "Failed to create OTLP exporter, tracing disabled", map[string]interface{}{"error": err.Error()})
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Info("Tracer", "OpenTelemetry tracer initialized", map[string]interface{}{"endpoint": cfg.Endpoint})
	return tp.Shutdown
}
