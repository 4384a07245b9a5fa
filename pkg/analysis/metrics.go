package analysis

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("axiom-profiler.analysis")
	meter  = otel.Meter("axiom-profiler.analysis")
)

var (
	viewLatency  metric.Float64Histogram
	viewTotal    metric.Int64Counter
	visibleNodes metric.Int64Histogram
	reachLatency metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		viewLatency, err = meter.Float64Histogram(
			"analysis_view_duration_seconds",
			metric.WithDescription("Duration of filter chain and disabler application"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		viewTotal, err = meter.Int64Counter(
			"analysis_view_total",
			metric.WithDescription("Total number of applied views"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		visibleNodes, err = meter.Int64Histogram(
			"analysis_visible_nodes",
			metric.WithDescription("Number of visible nodes after a view"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		reachLatency, err = meter.Float64Histogram(
			"analysis_reach_duration_seconds",
			metric.WithDescription("Duration of reachability subgraph construction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordViewMetrics(ctx context.Context, duration time.Duration, visible int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	viewLatency.Record(ctx, duration.Seconds(), attrs)
	viewTotal.Add(ctx, 1, attrs)
	if success {
		visibleNodes.Record(ctx, int64(visible))
	}
}

func recordReachMetrics(ctx context.Context, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	reachLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

func startViewSpan(ctx context.Context, filters, disablers int) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, "Session.View",
		oteltrace.WithAttributes(
			attribute.Int("view.filters", filters),
			attribute.Int("view.disablers", disablers),
		),
	)
}

func startReachSpan(ctx context.Context, root int) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, "Session.Reach",
		oteltrace.WithAttributes(attribute.Int("reach.root", root)),
	)
}
