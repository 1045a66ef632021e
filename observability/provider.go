package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gaborage/licence-admin/config"
	"github.com/gaborage/licence-admin/logger"
)

// DefaultMetricInterval is how often metrics are pushed to the exporter.
const DefaultMetricInterval = 30 * time.Second

// Provider is the interface for observability providers.
// It manages the lifecycle of tracing and metrics providers.
type Provider interface {
	// TracerProvider returns the configured trace provider.
	TracerProvider() trace.TracerProvider

	// MeterProvider returns the configured meter provider.
	MeterProvider() metric.MeterProvider

	// Shutdown flushes pending telemetry and releases the exporters.
	Shutdown(ctx context.Context) error

	// ForceFlush immediately flushes any pending telemetry data.
	ForceFlush(ctx context.Context) error
}

// Option customizes provider construction
type Option func(*options)

type options struct {
	writer         io.Writer
	log            logger.Logger
	metricInterval time.Duration
}

// WithWriter sets where the stdout exporters write. Defaults to os.Stderr so
// telemetry never mixes with command output.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithLogger sets the logger used to report provider setup
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetricInterval sets the metric push interval
func WithMetricInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.metricInterval = d
		}
	}
}

// provider implements Provider with OpenTelemetry SDK.
type provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	mu             sync.Mutex
}

// NewProvider creates a provider for cfg and installs it, together with the
// W3C trace context propagator, as the global OpenTelemetry providers.
// A disabled configuration yields a no-op provider and leaves the globals alone.
func NewProvider(cfg config.ObservabilityConfig, app config.AppConfig, opts ...Option) (Provider, error) {
	o := options{
		writer:         os.Stderr,
		log:            logger.Nop(),
		metricInterval: DefaultMetricInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.log.Debug().Msg("Observability disabled, using no-op provider")
		return newNoopProvider(), nil
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	res, err := createResource(app)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	spanExporter, err := createTraceExporter(cfg, o.writer)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	metricExporter, err := createMetricExporter(cfg, o.writer)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	p := &provider{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(spanExporter),
		),
		meterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(o.metricInterval))),
		),
	}

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	o.log.Info().
		Str("exporter", cfg.Exporter).
		Str("endpoint", cfg.Endpoint).
		Str("protocol", protocol(cfg)).
		Str("service", app.Name).
		Msg("Observability provider initialized")
	return p, nil
}

func validate(cfg config.ObservabilityConfig) error {
	switch cfg.Exporter {
	case config.ExporterStdout:
		return nil
	case config.ExporterOTLP:
		if cfg.Endpoint == "" {
			return ErrMissingEndpoint
		}
		switch protocol(cfg) {
		case config.ProtocolHTTP, config.ProtocolGRPC:
			return nil
		default:
			return fmt.Errorf("protocol '%s': %w", cfg.Protocol, ErrInvalidProtocol)
		}
	default:
		return fmt.Errorf("exporter '%s': %w", cfg.Exporter, ErrUnknownExporter)
	}
}

// createResource describes this process to the telemetry backend.
func createResource(app config.AppConfig) (*resource.Resource, error) {
	customRes, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(app.Name),
			semconv.ServiceVersion(app.Version),
			semconv.DeploymentEnvironmentName(app.Env),
		),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), customRes)
}

func createTraceExporter(cfg config.ObservabilityConfig, w io.Writer) (sdktrace.SpanExporter, error) {
	if cfg.Exporter == config.ExporterStdout {
		return stdouttrace.New(stdouttrace.WithWriter(w))
	}

	if protocol(cfg) == config.ProtocolGRPC {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(context.Background(), opts...)
}

func createMetricExporter(cfg config.ObservabilityConfig, w io.Writer) (sdkmetric.Exporter, error) {
	if cfg.Exporter == config.ExporterStdout {
		return stdoutmetric.New(stdoutmetric.WithWriter(w))
	}

	if protocol(cfg) == config.ProtocolGRPC {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

// protocol defaults to http when unset.
func protocol(cfg config.ObservabilityConfig) string {
	if cfg.Protocol == "" {
		return config.ProtocolHTTP
	}
	return cfg.Protocol
}

// TracerProvider returns the configured trace provider.
func (p *provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the configured meter provider.
func (p *provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Shutdown gracefully shuts down the provider.
//
//nolint:dupl // Shutdown and ForceFlush have similar structure but different semantics
func (p *provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown trace provider: %w", err))
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// ForceFlush immediately flushes any pending telemetry data.
//
//nolint:dupl // Shutdown and ForceFlush have similar structure but different semantics
func (p *provider) ForceFlush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.tracerProvider.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush trace provider: %w", err))
	}
	if err := p.meterProvider.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush meter provider: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("flush errors: %w", errors.Join(errs...))
	}
	return nil
}
