// Package tracing provides distributed tracing capabilities using OpenTelemetry.
// It initializes a global tracer provider that exports spans to an OTLP endpoint and
// supplies trace ids for correlating logs across commands, queries and event handlers.
package tracing

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.23.1"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rise-and-shine/blocks/meta"
)

// InitGlobalTracer initializes a global OpenTelemetry tracer provider and OTLP exporter.
// Service name and version are taken from meta.SetServiceInfo.
// It returns a shutdown function that flushes pending spans.
//
// If cfg.Disable is true, a no-op tracer is used.
func InitGlobalTracer(cfg Config) (func() error, error) {
	setPropagator()

	if cfg.Disable {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func() error { return nil }, nil
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(clientOptions(cfg)...))
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"endpoint": cfg.endpoint()}))
	}

	processor := trace.NewBatchSpanProcessor(exporter, batchOptions(cfg.Batch)...)

	tp := trace.NewTracerProvider(
		trace.WithSampler(
			trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRate)),
		),
		trace.WithSpanProcessor(processor),
		trace.WithResource(
			resource.NewWithAttributes(semconv.SchemaURL, resourceAttributes(cfg)...),
		),
	)
	otel.SetTracerProvider(tp)

	return shutdownFunc(tp, cfg.Batch.ShutdownTimeout), nil
}

func clientOptions(cfg Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.endpoint())}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if cfg.Batch.ReconnectPeriod > 0 {
		opts = append(opts, otlptracegrpc.WithReconnectionPeriod(cfg.Batch.ReconnectPeriod))
	}
	if cfg.Batch.ExportTimeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.Batch.ExportTimeout))
	}
	return opts
}

// batchOptions leaves the sdk defaults in place for zero values.
func batchOptions(b BatchConfig) []trace.BatchSpanProcessorOption {
	var opts []trace.BatchSpanProcessorOption
	if b.MaxQueueSize > 0 {
		opts = append(opts, trace.WithMaxQueueSize(b.MaxQueueSize))
	}
	if b.MaxExportBatchSize > 0 {
		opts = append(opts, trace.WithMaxExportBatchSize(b.MaxExportBatchSize))
	}
	if b.Timeout > 0 {
		opts = append(opts, trace.WithBatchTimeout(b.Timeout))
	}
	return opts
}

func resourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(cfg.Tags)+2) //nolint:mnd // name and version
	for k, v := range cfg.Tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	attrs = append(attrs,
		semconv.ServiceNameKey.String(meta.GetServiceName()),
		semconv.ServiceVersionKey.String(meta.GetServiceVersion()),
	)
	return attrs
}

// setPropagator installs W3C trace context and baggage propagation so that trace ids
// travel through kafka headers and outbox metadata even when export is disabled.
func setPropagator() {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
}

func shutdownFunc(tp *trace.TracerProvider, timeout time.Duration) func() error {
	if timeout <= 0 {
		timeout = 5 * time.Second //nolint:mnd // fallback when unset
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := tp.ForceFlush(ctx); err != nil {
			return errx.Wrap(err)
		}
		return errx.Wrap(tp.Shutdown(ctx))
	}
}
