package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OTel meter provider. Its instruments are read by the
// same Prometheus registry that serves /metrics.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	queueDepth    otelmetric.Int64UpDownCounter
	tracing       *Tracing
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"notifications.jobs.processed",
		otelmetric.WithDescription("Number of delivery jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"notifications.jobs.duration",
		otelmetric.WithDescription("Delivery job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	queueDepth, _ := meter.Int64UpDownCounter(
		"notifications.queue.depth",
		otelmetric.WithDescription("Jobs waiting in the delivery queue"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		queueDepth:    queueDepth,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordQueueDelta tracks enqueue (+1) and dequeue/drop (-n) events.
func (o *Observability) RecordQueueDelta(ctx context.Context, delta int64) {
	if o == nil || o.queueDepth == nil {
		return
	}
	o.queueDepth.Add(ctx, delta)
}

// AttachTracing makes Shutdown flush the tracer provider too.
func (o *Observability) AttachTracing(t *Tracing) {
	o.tracing = t
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracing != nil {
		if err := o.tracing.Shutdown(ctx); err != nil {
			log.Printf("Failed to shut down tracer provider: %v", err)
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			log.Printf("Failed to shut down meter provider: %v", err)
		}
	}
}
