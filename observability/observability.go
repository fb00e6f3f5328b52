// Package observability sets up metrics, tracing and health reporting.
package observability

import (
	"context"
	"net/http"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Observability struct {
	Metrics  *Metrics
	registry *prometheus.Registry
	shutdown []func(context.Context) error
}

// New installs the global meter provider, backed by a Prometheus registry,
// and, when cfg.OTLPEndpoint is set, a tracer provider exporting over OTLP
// gRPC. Without an endpoint spans stay no-ops.
func New(ctx context.Context, cfg config.Telemetry, version string) (*Observability, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build otel resource")
	}

	o := &Observability{registry: prometheus.NewRegistry()}

	if cfg.OTLPEndpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		traceExporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create otlp exporter")
		}
		tracerProvider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tracerProvider)
		o.shutdown = append(o.shutdown, tracerProvider.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	promExporter, err := otelprom.New(otelprom.WithRegisterer(o.registry))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create prometheus exporter")
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(meterProvider)
	o.shutdown = append(o.shutdown, meterProvider.Shutdown)

	o.Metrics, err = NewMetrics(meterProvider.Meter(cfg.ServiceName))
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Handler serves the Prometheus exposition format.
func (o *Observability) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending spans and stops the providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, fn := range o.shutdown {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
