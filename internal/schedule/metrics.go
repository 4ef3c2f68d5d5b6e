package schedule

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/thebtf/worklog/internal/schedule"

var (
	instrumentsOnce sync.Once
	runCounter      metric.Int64Counter
	runDuration     metric.Float64Histogram
	runItems        metric.Int64Histogram
)

// initInstruments uses the global meter provider, a no-op unless the binary installs one.
func initInstruments() {
	meter := otel.Meter(meterName)

	var err error
	if runCounter, err = meter.Int64Counter("worklog.schedule.runs",
		metric.WithDescription("Scheduled report runs by period and outcome")); err != nil {
		otel.Handle(err)
	}
	if runDuration, err = meter.Float64Histogram("worklog.schedule.duration",
		metric.WithDescription("Scheduled report run duration"),
		metric.WithUnit("s")); err != nil {
		otel.Handle(err)
	}
	if runItems, err = meter.Int64Histogram("worklog.schedule.items",
		metric.WithDescription("Work items collected per scheduled run")); err != nil {
		otel.Handle(err)
	}
}

func recordRun(ctx context.Context, period string, took time.Duration, items int, err error) {
	instrumentsOnce.Do(initInstruments)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("period", period),
		attribute.String("outcome", outcome),
	)

	if runCounter != nil {
		runCounter.Add(ctx, 1, attrs)
	}
	if runDuration != nil {
		runDuration.Record(ctx, took.Seconds(), attrs)
	}
	if runItems != nil && err == nil {
		runItems.Record(ctx, int64(items), metric.WithAttributes(attribute.String("period", period)))
	}
}
