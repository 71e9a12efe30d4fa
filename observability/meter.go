package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/streamkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// SignalMetrics holds OpenTelemetry instruments covering the signal
// traffic of instrumented streams.
type SignalMetrics struct {
	nextTotal           metric.Int64Counter
	terminalTotal       metric.Int64Counter
	droppedTotal        metric.Int64Counter
	activeSubscriptions metric.Int64UpDownCounter
	subscriptionSeconds metric.Float64Histogram
}

// NewSignalMetrics creates the stream instruments on the given meter.
func NewSignalMetrics(meter metric.Meter) (*SignalMetrics, error) {
	nextTotal, err := meter.Int64Counter("stream.next.total",
		metric.WithDescription("Total values delivered to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.next.total counter: %w", err)
	}

	terminalTotal, err := meter.Int64Counter("stream.terminal.total",
		metric.WithDescription("Total terminal signals by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.terminal.total counter: %w", err)
	}

	droppedTotal, err := meter.Int64Counter("stream.dropped.total",
		metric.WithDescription("Total signals dropped without a consumer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.dropped.total counter: %w", err)
	}

	activeSubscriptions, err := meter.Int64UpDownCounter("stream.subscriptions.active",
		metric.WithDescription("Number of currently active subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscriptions.active gauge: %w", err)
	}

	subscriptionSeconds, err := meter.Float64Histogram("stream.subscription.duration",
		metric.WithDescription("Subscription lifetime from handshake to terminal in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscription.duration histogram: %w", err)
	}

	return &SignalMetrics{
		nextTotal:           nextTotal,
		terminalTotal:       terminalTotal,
		droppedTotal:        droppedTotal,
		activeSubscriptions: activeSubscriptions,
		subscriptionSeconds: subscriptionSeconds,
	}, nil
}

// RecordSubscribe increments the active subscription count.
func (m *SignalMetrics) RecordSubscribe(ctx context.Context) {
	m.activeSubscriptions.Add(ctx, 1)
}

// RecordNext records one delivered value.
func (m *SignalMetrics) RecordNext(ctx context.Context, stream string) {
	m.nextTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stream", stream),
	))
}

// RecordTerminal decrements active subscriptions and records the
// terminal outcome ("complete", "error" or "cancel").
func (m *SignalMetrics) RecordTerminal(ctx context.Context, stream, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("stream", stream),
		attribute.String("outcome", outcome),
	)
	m.activeSubscriptions.Add(ctx, -1)
	m.terminalTotal.Add(ctx, 1, attrs)
	m.subscriptionSeconds.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stream", stream),
	))
}

// RecordDropped records a signal routed to diagnostics instead of a
// consumer.
func (m *SignalMetrics) RecordDropped(ctx context.Context, stream, signal string) {
	m.droppedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stream", stream),
		attribute.String("signal", signal),
	))
}
