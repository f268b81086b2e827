// Package forecast assembles outcome probabilities and confidence into the
// output record and owns the top-level pipeline: extraction, prediction,
// confidence estimation, assembly, and the terminal fallback.
package forecast

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"marketcast/internal/features"
	"marketcast/internal/market"
	"marketcast/internal/ml"
)

// MetricsInterface defines the metrics methods the engine reports to.
type MetricsInterface interface {
	ForecastsInc()
	ConfidenceObserve(float64)
	FeatureErrorsInc()
}

// Engine runs the snapshot-to-record pipeline. One engine is built at
// startup and shares its read-only predictor across calls.
type Engine struct {
	predictor *ml.Predictor
	metrics   MetricsInterface
}

// NewEngine creates an engine around a predictor.
func NewEngine(predictor *ml.Predictor) *Engine {
	return NewEngineWithMetrics(predictor, nil)
}

// NewEngineWithMetrics is NewEngine with metrics reporting.
func NewEngineWithMetrics(predictor *ml.Predictor, metrics MetricsInterface) *Engine {
	return &Engine{predictor: predictor, metrics: metrics}
}

// Forecast converts one snapshot into a forecast record. It never panics
// and never returns an error: any failure inside the pipeline degrades to a
// uniform record carrying an error message.
func (e *Engine) Forecast(snap *market.Snapshot) (rec Record) {
	numOutcomes := snap.NumOutcomes()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("num_outcomes", numOutcomes).Msg("forecast pipeline failure")
			rec = FallbackRecord(numOutcomes, fmt.Sprintf("forecast pipeline failure: %v", r), e.modelVersion())
		}
	}()

	var tracker features.MetricsTracker
	if e.metrics != nil {
		tracker = e.metrics
	}
	vec := features.ExtractWithMetrics(snap, tracker)

	pred := e.predictor.Predict(vec.Slice(), snap)

	var confidence float64
	switch pred.Source {
	case ml.SourceModel:
		confidence = Confidence(pred.Probabilities)
	case ml.SourceHeuristic:
		confidence = ConfidenceNoModel
	default:
		confidence = ConfidenceDegraded
	}

	if e.metrics != nil {
		e.metrics.ForecastsInc()
		e.metrics.ConfidenceObserve(confidence)
	}

	log.Debug().
		Str("source", pred.Source.String()).
		Int("num_outcomes", numOutcomes).
		Float64("confidence", confidence).
		Msg("forecast generated")

	return Assemble(pred.Probabilities, confidence, snap, e.modelVersion())
}

func (e *Engine) modelVersion() string {
	// ModelVersion is nil-safe on the predictor.
	return e.predictor.ModelVersion()
}

// FallbackRecord is the terminal uniform record. It must never fail, so it
// builds entries from nothing but the outcome count.
func FallbackRecord(numOutcomes int, errMsg, modelVersion string) Record {
	rec := Assemble(ml.Uniform(numOutcomes), ConfidenceDegraded, nil, modelVersion)
	rec.Error = errMsg
	return rec
}
