package otel

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	traceNoop "go.opentelemetry.io/otel/trace/noop"
)

const scopeName = "github.com/calyxdb/routineload"

// Telemetry holds all OpenTelemetry instruments for the routine-load
// pipeline. It is injected into the reader group rather than read from
// process-wide state; without providers every instrument is a noop.
type Telemetry struct {
	Tracer trace.Tracer

	// Intake metrics
	RecordsConsumed metric.Int64Counter
	BytesConsumed   metric.Int64Counter

	// Batch lifecycle metrics
	Batches       metric.Int64Counter
	DrainDuration metric.Float64Histogram

	// Shared queue wait totals, recorded once per load task
	QueuePutWait metric.Float64Histogram
	QueueGetWait metric.Float64Histogram

	// Reader state
	ReadersActive metric.Int64UpDownCounter
}

// NewTelemetry creates a Telemetry instance from the given providers.
// Both providers are optional and defaulted to noops if nil.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	if tp == nil {
		tp = traceNoop.NewTracerProvider()
	}
	if mp == nil {
		mp = noop.NewMeterProvider()
	}

	tracer := tp.Tracer(scopeName)
	meter := mp.Meter(scopeName)

	recordsConsumed, err := meter.Int64Counter(
		"load.records.consumed",
		metric.WithDescription("Records appended to the intake sink"),
	)
	if err != nil {
		return nil, err
	}

	bytesConsumed, err := meter.Int64Counter(
		"load.bytes.consumed",
		metric.WithDescription("Payload bytes appended to the intake sink"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	batches, err := meter.Int64Counter(
		"load.batches",
		metric.WithDescription("Load batches by outcome"),
	)
	if err != nil {
		return nil, err
	}

	drainDuration, err := meter.Float64Histogram(
		"load.drain.duration",
		metric.WithDescription("Wall time of one group drain invocation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	queuePutWait, err := meter.Float64Histogram(
		"load.queue.put_wait",
		metric.WithDescription("Cumulative producer-side blocking per load task"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	queueGetWait, err := meter.Float64Histogram(
		"load.queue.get_wait",
		metric.WithDescription("Cumulative consumer-side blocking per load task"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	readersActive, err := meter.Int64UpDownCounter(
		"load.readers.active",
		metric.WithDescription("Partition readers currently running"),
	)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Tracer:          tracer,
		RecordsConsumed: recordsConsumed,
		BytesConsumed:   bytesConsumed,
		Batches:         batches,
		DrainDuration:   drainDuration,
		QueuePutWait:    queuePutWait,
		QueueGetWait:    queueGetWait,
		ReadersActive:   readersActive,
	}, nil
}

// NewNoopTelemetry returns a Telemetry with all instruments noops.
func NewNoopTelemetry() *Telemetry {
	t, _ := NewTelemetry(nil, nil)
	return t
}
