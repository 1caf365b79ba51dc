package impact

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for impact predictions.
var (
	tracer = otel.Tracer("ripple.impact")
	meter  = otel.Meter("ripple.impact")
)

var (
	predictionLatency metric.Float64Histogram
	predictionTotal   metric.Int64Counter
	riskScores        metric.Float64Histogram
	affectedNodes     metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		predictionLatency, err = meter.Float64Histogram(
			"impact_prediction_duration_seconds",
			metric.WithDescription("Duration of impact propagation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		predictionTotal, err = meter.Int64Counter(
			"impact_prediction_total",
			metric.WithDescription("Total number of computed impact predictions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		riskScores, err = meter.Float64Histogram(
			"impact_risk_score",
			metric.WithDescription("Distribution of overall risk scores"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		affectedNodes, err = meter.Int64Histogram(
			"impact_affected_nodes",
			metric.WithDescription("Number of dependents affected per prediction"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startPredictionSpan creates a span for one propagation run.
func startPredictionSpan(ctx context.Context, symbolID int64, kind ChangeKind) (context.Context, trace.Span) {
	return tracer.Start(ctx, "impact.Predictor.compute",
		trace.WithAttributes(
			attribute.Int64("impact.symbol_id", symbolID),
			attribute.String("impact.change_kind", string(kind)),
		),
	)
}

// recordPrediction sets span attributes and records metrics for p.
func recordPrediction(ctx context.Context, span trace.Span, duration time.Duration, p *Prediction) {
	span.SetAttributes(
		attribute.Float64("impact.risk_overall", p.Risk.Overall),
		attribute.Int("impact.affected", len(p.Affected)),
		attribute.Int("impact.breaking", p.Risk.BreakingChangeCount),
	)
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("change_kind", string(p.ChangeKind)))
	predictionLatency.Record(ctx, duration.Seconds(), attrs)
	predictionTotal.Add(ctx, 1, attrs)
	riskScores.Record(ctx, p.Risk.Overall, attrs)
	affectedNodes.Record(ctx, int64(len(p.Affected)), attrs)
}
