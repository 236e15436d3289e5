// Package telemetry wires the orchestrator's periodic health snapshot
// (spec component C9) into OpenTelemetry metrics: scale sizes, messages
// processed, and checkpoint age as gauges and counters, read by a
// stdout exporter by default since spec.md's Non-goals exclude a
// dashboard or remote collector for this engine.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// Snapshot is the health data point the orchestrator supplies once per
// collection, via the callback registered in NewHealth.
type Snapshot struct {
	ScaleCounts        map[string]int64
	MessagesProcessed  int64
	CheckpointAgeSecs  float64
	Connection         float64
	Resonance          float64
	Growth             float64
	Trust              float64
}

// InitMeterProvider installs a periodic-reader meter provider that
// exports to stdout every interval, and returns its shutdown func. This
// is the ambient-observability default; nothing in spec.md requires a
// remote collector.
func InitMeterProvider(ctx context.Context, serviceName string, interval time.Duration) (func(context.Context) error, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("init stdout metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("init resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// Health registers the observable gauges and counters the orchestrator's
// health snapshot task reports, backed by a caller-supplied snapshot
// function invoked once per collection.
type Health struct {
	checkpointCounter metric.Int64Counter
}

// NewHealth builds the instruments and registers the multi-instrument
// callback that reads snapshot() on every collection.
func NewHealth(meterName string, snapshot func() Snapshot) (*Health, error) {
	meter := otel.Meter(meterName)

	scaleGauge, err := meter.Int64ObservableGauge("continuum.scale.entries",
		metric.WithDescription("number of entries currently held in a memory scale"))
	if err != nil {
		return nil, fmt.Errorf("register scale gauge: %w", err)
	}
	messagesGauge, err := meter.Int64ObservableGauge("continuum.messages.processed",
		metric.WithDescription("total messages ingested, including the count restored from the latest checkpoint"))
	if err != nil {
		return nil, fmt.Errorf("register messages gauge: %w", err)
	}
	checkpointAgeGauge, err := meter.Float64ObservableGauge("continuum.checkpoint.age_seconds",
		metric.WithDescription("seconds since the last successful checkpoint"))
	if err != nil {
		return nil, fmt.Errorf("register checkpoint age gauge: %w", err)
	}
	relationshipGauge, err := meter.Float64ObservableGauge("continuum.relationship.component",
		metric.WithDescription("current relationship state component value"))
	if err != nil {
		return nil, fmt.Errorf("register relationship gauge: %w", err)
	}
	checkpointCounter, err := meter.Int64Counter("continuum.checkpoints.created",
		metric.WithDescription("checkpoints created since process start"))
	if err != nil {
		return nil, fmt.Errorf("register checkpoint counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := snapshot()
		for scale, count := range snap.ScaleCounts {
			o.ObserveInt64(scaleGauge, count, metric.WithAttributes(scaleAttr(scale)))
		}
		o.ObserveInt64(messagesGauge, snap.MessagesProcessed)
		o.ObserveFloat64(checkpointAgeGauge, snap.CheckpointAgeSecs)
		o.ObserveFloat64(relationshipGauge, snap.Connection, metric.WithAttributes(componentAttr("connection")))
		o.ObserveFloat64(relationshipGauge, snap.Resonance, metric.WithAttributes(componentAttr("resonance")))
		o.ObserveFloat64(relationshipGauge, snap.Growth, metric.WithAttributes(componentAttr("growth")))
		o.ObserveFloat64(relationshipGauge, snap.Trust, metric.WithAttributes(componentAttr("trust")))
		return nil
	}, scaleGauge, messagesGauge, checkpointAgeGauge, relationshipGauge)
	if err != nil {
		return nil, fmt.Errorf("register health callback: %w", err)
	}

	return &Health{checkpointCounter: checkpointCounter}, nil
}

// RecordCheckpoint increments the checkpoints-created counter. Called by
// the orchestrator after a successful checkpoint.Manager.Create.
func (h *Health) RecordCheckpoint(ctx context.Context) {
	h.checkpointCounter.Add(ctx, 1)
}

func scaleAttr(scale string) attribute.KeyValue {
	return attribute.String("scale", scale)
}

func componentAttr(component string) attribute.KeyValue {
	return attribute.String("component", component)
}
