package config

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/version"
)

// StdoutEndpoint selects the console exporters instead of OTLP.
const StdoutEndpoint = "stdout"

type Telemetry struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

type telemetryConfig struct {
	endpoint string
	writer   io.Writer
	interval time.Duration
}

type TelemetryOption func(c *telemetryConfig)

// WithEndpoint overrides TelemetryEndpoint.
func WithEndpoint(endpoint string) TelemetryOption {
	return func(c *telemetryConfig) {
		c.endpoint = endpoint
	}
}

// WithWriter sets the destination of the stdout exporters.
func WithWriter(w io.Writer) TelemetryOption {
	return func(c *telemetryConfig) {
		c.writer = w
	}
}

// SetupTelemetry installs global meter and tracer providers.
func SetupTelemetry(ctx context.Context, opts ...TelemetryOption) (*Telemetry, error) {
	cfg := &telemetryConfig{
		endpoint: TelemetryEndpoint,
		writer:   os.Stdout,
		interval: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", "lapracer"),
			attribute.String("service.version", version.Version),
		))
	if err != nil {
		return nil, err
	}

	metricExporter, traceExporter, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.interval))),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	log.Debug("telemetry initialized", log.String("endpoint", cfg.endpoint))
	return &Telemetry{meterProvider: mp, tracerProvider: tp}, nil
}

//nolint:whitespace // can't make both editor and linter happy
func newExporters(ctx context.Context, cfg *telemetryConfig) (
	sdkmetric.Exporter, sdktrace.SpanExporter, error,
) {
	if cfg.endpoint == StdoutEndpoint {
		me, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.writer))
		if err != nil {
			return nil, nil, err
		}
		te, err := stdouttrace.New(stdouttrace.WithWriter(cfg.writer))
		if err != nil {
			return nil, nil, err
		}
		return me, te, nil
	}
	me, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.endpoint),
		otlpmetricgrpc.WithInsecure())
	if err != nil {
		return nil, nil, err
	}
	te, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.endpoint),
		otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, nil, err
	}
	return me, te, nil
}

// Shutdown flushes pending data and stops the providers.
func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := errors.Join(
		t.meterProvider.Shutdown(ctx),
		t.tracerProvider.Shutdown(ctx),
	)
	if err != nil {
		log.Warn("telemetry shutdown", log.ErrorField(err))
	}
}
