package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/NivBraz/greeting-service/internal/build"
)

type TracerOption func(d *customTracer)

// WithOTLPEndpoint exports spans over OTLP/gRPC. Without an endpoint spans
// are sampled and recorded but not exported.
func WithOTLPEndpoint(endpoint string) TracerOption {
	return func(d *customTracer) {
		d.endpoint = endpoint
	}
}

func WithServiceName(serviceName string) TracerOption {
	return func(d *customTracer) {
		d.serviceName = serviceName
	}
}

// WithSampler selects "always", "never" or "ratio". "always" is the default.
func WithSampler(sampler string, ratio float64) TracerOption {
	return func(d *customTracer) {
		d.sampler = sampler
		d.samplingRatio = ratio
	}
}

type customTracer struct {
	endpoint    string
	serviceName string

	sampler       string
	samplingRatio float64
}

// Sampler returns the sdk sampler for name, honoring parent decisions.
func Sampler(name string, ratio float64) (sdktrace.Sampler, error) {
	switch name {
	case "", "always":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case "never":
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case "ratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil
	default:
		return nil, fmt.Errorf("unknown sampler: %s", name)
	}
}

// NewTracerProvider builds a tracer provider and installs it, together with
// the W3C propagators, as the global one.
func NewTracerProvider(ctx context.Context, opts ...TracerOption) (*sdktrace.TracerProvider, error) {
	tracer := &customTracer{
		serviceName: "greeting-service",
		sampler:     "always",
	}

	for _, opt := range opts {
		opt(tracer)
	}

	sampler, err := Sampler(tracer.sampler, tracer.samplingRatio)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(tracer.serviceName),
			semconv.ServiceVersionKey.String(build.Version),
		))
	if err != nil {
		return nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	}

	if tracer.endpoint != "" {
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(tracer.endpoint),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create the otlp exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp)))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tp)

	return tp, nil
}

func TraceError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
