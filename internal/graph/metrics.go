package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("ripple.graph")
	meter  = otel.Meter("ripple.graph")
)

var (
	buildLatency metric.Float64Histogram
	droppedEdges metric.Int64Counter
	graphEdges   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"graph_build_duration_seconds",
			metric.WithDescription("Duration of dependency graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		droppedEdges, err = meter.Int64Counter(
			"graph_dropped_edges_total",
			metric.WithDescription("Relationships rejected during graph build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		graphEdges, err = meter.Int64Histogram(
			"graph_edges",
			metric.WithDescription("Distinct edges per built graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startBuildSpan(ctx context.Context, nodes, rels int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.Build",
		trace.WithAttributes(
			attribute.Int("graph.input_nodes", nodes),
			attribute.Int("graph.input_relationships", rels),
		),
	)
}

func recordBuildMetrics(ctx context.Context, span trace.Span, duration time.Duration, stats BuildStats, edges int) {
	span.SetAttributes(
		attribute.Int("graph.admitted", stats.Admitted),
		attribute.Int("graph.below_threshold", stats.BelowThreshold),
		attribute.Int("graph.unresolved", stats.Unresolved),
		attribute.Int("graph.dangling", stats.Dangling),
		attribute.Int("graph.edges", edges),
	)
	if err := initMetrics(); err != nil {
		return
	}
	buildLatency.Record(ctx, duration.Seconds())
	graphEdges.Record(ctx, int64(edges))
	droppedEdges.Add(ctx, int64(stats.BelowThreshold), metric.WithAttributes(attribute.String("reason", "below_threshold")))
	droppedEdges.Add(ctx, int64(stats.Unresolved), metric.WithAttributes(attribute.String("reason", "unresolved")))
	droppedEdges.Add(ctx, int64(stats.Dangling), metric.WithAttributes(attribute.String("reason", "dangling")))
}
