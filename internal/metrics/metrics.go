// Package metrics provides Prometheus metrics for the forecast pipeline:
// forecast and fallback counters, inference failures, feature coercion
// errors, and latency/confidence distributions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the forecaster. Its methods
// satisfy the consumer-side interfaces declared by the ml, features, and
// forecast packages, and are nil-safe so optional wiring stays simple.
type Metrics struct {
	ForecastsTotal    prometheus.Counter   // Total forecasts assembled
	Predictions       prometheus.Counter   // Total predictor invocations
	FallbackUse       prometheus.Counter   // Predictions served by the price heuristic
	InferenceFailures prometheus.Counter   // Model inferences that fell back to uniform
	FeatureErrors     prometheus.Counter   // Feature coercion errors defaulted to zero
	SnapshotsFetched  prometheus.Counter   // Snapshots pulled from the Gamma API
	HistoryBackfills  prometheus.Counter   // Snapshots whose history came from local storage
	PredictLatency    prometheus.Histogram // End-to-end prediction latency in seconds
	ConfidenceScores  prometheus.Histogram // Distribution of emitted confidence values
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ForecastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecasts_total",
			Help: "Total number of forecast records assembled",
		}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictor invocations",
		}),
		FallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_fallback_total",
			Help: "Predictions served by the price heuristic because no model was loaded",
		}),
		InferenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "inference_failures_total",
			Help: "Model inferences that failed and fell back to the uniform distribution",
		}),
		FeatureErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "feature_errors_total",
			Help: "Feature coercion errors defaulted to zero during extraction",
		}),
		SnapshotsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapshots_fetched_total",
			Help: "Market snapshots fetched from the Gamma API",
		}),
		HistoryBackfills: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_backfills_total",
			Help: "Snapshots whose price history was backfilled from local storage",
		}),
		PredictLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predict_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		ConfidenceScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_confidence",
			Help:    "Distribution of emitted forecast confidence values",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

func (m *Metrics) ForecastsInc() {
	if m != nil {
		m.ForecastsTotal.Inc()
	}
}

func (m *Metrics) PredictionsInc() {
	if m != nil {
		m.Predictions.Inc()
	}
}

func (m *Metrics) FallbackUseInc() {
	if m != nil {
		m.FallbackUse.Inc()
	}
}

func (m *Metrics) InferenceFailuresInc() {
	if m != nil {
		m.InferenceFailures.Inc()
	}
}

func (m *Metrics) FeatureErrorsInc() {
	if m != nil {
		m.FeatureErrors.Inc()
	}
}

func (m *Metrics) SnapshotsFetchedInc() {
	if m != nil {
		m.SnapshotsFetched.Inc()
	}
}

func (m *Metrics) HistoryBackfillsInc() {
	if m != nil {
		m.HistoryBackfills.Inc()
	}
}

func (m *Metrics) PredictLatencyObserve(seconds float64) {
	if m != nil {
		m.PredictLatency.Observe(seconds)
	}
}

func (m *Metrics) ConfidenceObserve(confidence float64) {
	if m != nil {
		m.ConfidenceScores.Observe(confidence)
	}
}
