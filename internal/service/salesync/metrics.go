package salesync

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type syncMetrics struct {
	runs     metric.Int64Counter
	rows     metric.Int64Counter
	duration metric.Float64Histogram
}

func newSyncMetrics() *syncMetrics {
	meter := otel.Meter("github.com/Additional-Code/sistemact/service/salesync")
	m := &syncMetrics{}
	// instrument creation only fails on invalid names; nil instruments are skipped in record
	m.runs, _ = meter.Int64Counter("salesync.runs",
		metric.WithDescription("Completed order synchronization runs"))
	m.rows, _ = meter.Int64Counter("salesync.rows.inserted",
		metric.WithDescription("Order lines written by synchronization runs"))
	m.duration, _ = meter.Float64Histogram("salesync.duration",
		metric.WithDescription("Duration of order synchronization runs"),
		metric.WithUnit("s"))
	return m
}

func (m *syncMetrics) record(ctx context.Context, platform string, inserted int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	attrs := metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("outcome", outcome),
	)
	if m.runs != nil {
		m.runs.Add(ctx, 1, attrs)
	}
	if m.rows != nil && inserted > 0 {
		m.rows.Add(ctx, int64(inserted), metric.WithAttributes(attribute.String("platform", platform)))
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
