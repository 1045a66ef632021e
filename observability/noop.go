package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var _ Provider = (*disabledProvider)(nil)

// disabledProvider stands in when observability.enabled is false. The client
// still creates spans and records attempts; they are dropped here and the
// otel globals are left alone.
type disabledProvider struct {
	tracers trace.TracerProvider
	meters  metric.MeterProvider
}

func newNoopProvider() *disabledProvider {
	return &disabledProvider{
		tracers: tracenoop.NewTracerProvider(),
		meters:  metricnoop.NewMeterProvider(),
	}
}

func (d *disabledProvider) TracerProvider() trace.TracerProvider { return d.tracers }

func (d *disabledProvider) MeterProvider() metric.MeterProvider { return d.meters }

func (d *disabledProvider) Shutdown(context.Context) error { return nil }

func (d *disabledProvider) ForceFlush(context.Context) error { return nil }
