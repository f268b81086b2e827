package ml

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"marketcast/internal/common"
	"marketcast/internal/market"
)

// MetricsInterface defines the metrics methods the predictor reports to.
type MetricsInterface interface {
	PredictionsInc()
	FallbackUseInc()
	InferenceFailuresInc()
	PredictLatencyObserve(float64)
}

// Source identifies which path produced a prediction.
type Source int

const (
	// SourceModel means the trained classifier produced the probabilities.
	SourceModel Source = iota
	// SourceHeuristic means no model was loaded and probabilities were
	// derived from current prices (or uniform).
	SourceHeuristic
	// SourceFallback means the model was present but inference failed and
	// the uniform distribution was substituted.
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceModel:
		return "model"
	case SourceHeuristic:
		return "heuristic"
	case SourceFallback:
		return "fallback"
	}
	return "unknown"
}

// Prediction is the outcome of one prediction attempt. Probabilities always
// has the resolved outcome count, whichever path produced it.
type Prediction struct {
	Probabilities []float64
	Source        Source
	Reason        string
}

// Predictor holds the optional trained classifier. It is built once at
// startup and read-only afterwards, so one instance is safe to share.
type Predictor struct {
	artifact *Artifact
	metrics  MetricsInterface
}

// New creates a predictor from a model artifact path. A missing or
// unusable artifact is logged and degrades to the heuristic path; it is
// never an error.
func New(path string) *Predictor {
	return NewWithMetrics(path, nil)
}

// NewWithMetrics is New with metrics reporting.
func NewWithMetrics(path string, metrics MetricsInterface) *Predictor {
	p := &Predictor{metrics: metrics}

	if path == "" {
		log.Info().Msg("no model path configured, price heuristics only")
		return p
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn().Str("model_path", path).Msg("model artifact not found, price heuristics only")
		return p
	}

	artifact, err := LoadArtifact(path)
	if err != nil {
		log.Warn().Err(err).Str("model_path", path).Msg("model artifact unusable, price heuristics only")
		return p
	}

	p.artifact = artifact
	log.Info().
		Str("model_path", path).
		Str("model_version", artifact.ModelVersion()).
		Int("trees", len(artifact.Forest.Trees)).
		Msg("model artifact loaded")
	return p
}

// Available reports whether a trained classifier is loaded.
func (p *Predictor) Available() bool {
	return p != nil && p.artifact != nil
}

// ModelVersion is the version stamped on assembled forecasts.
func (p *Predictor) ModelVersion() string {
	if !p.Available() {
		return common.DefaultModelVersion
	}
	return p.artifact.ModelVersion()
}

// Predict turns a feature vector into outcome probabilities for the
// snapshot's resolved outcome count. It is total: every failure mode maps
// to a degraded Prediction, never an error.
func (p *Predictor) Predict(features []float64, snap *market.Snapshot) Prediction {
	start := time.Now()
	numOutcomes := snap.NumOutcomes()

	var m MetricsInterface
	if p != nil {
		m = p.metrics
	}
	if m != nil {
		defer func() {
			m.PredictionsInc()
			m.PredictLatencyObserve(time.Since(start).Seconds())
		}()
	}

	if !p.Available() {
		if m != nil {
			m.FallbackUseInc()
		}
		return heuristic(snap, numOutcomes)
	}

	probs, err := p.infer(features, numOutcomes)
	if err != nil {
		log.Error().Err(err).Int("num_outcomes", numOutcomes).Msg("inference failed, using uniform fallback")
		if m != nil {
			m.InferenceFailuresInc()
		}
		return Prediction{
			Probabilities: Uniform(numOutcomes),
			Source:        SourceFallback,
			Reason:        err.Error(),
		}
	}

	return Prediction{Probabilities: probs, Source: SourceModel}
}

func (p *Predictor) infer(features []float64, numOutcomes int) ([]float64, error) {
	scaled, err := p.artifact.Scaler.Transform(features)
	if err != nil {
		return nil, err
	}
	raw, err := p.artifact.Forest.PredictProba(scaled)
	if err != nil {
		return nil, err
	}
	return fitOutcomes(raw, numOutcomes), nil
}

// fitOutcomes reconciles the classifier's global class space with this
// market's outcome count: surplus classes are truncated, missing ones are
// zero-padded and the padded vector renormalized. Class ordering is assumed
// aligned with outcome ordering; no re-sorting.
func fitOutcomes(raw []float64, numOutcomes int) []float64 {
	out := make([]float64, numOutcomes)
	copy(out, raw)

	if len(raw) < numOutcomes {
		var total float64
		for _, p := range out {
			total += p
		}
		// A zero-mass padded vector stays as zeros; the assembler
		// resolves that degenerate case.
		if total > 0 {
			for i := range out {
				out[i] /= total
			}
		}
	}
	return out
}

// heuristic derives probabilities without a model. LMSR-style market prices
// are themselves probabilities, so when present and positive they are
// renormalized and used directly; otherwise the distribution is uniform.
func heuristic(snap *market.Snapshot, numOutcomes int) Prediction {
	if vals, ok := snap.PriceValues(); ok {
		var total float64
		for _, v := range vals {
			total += v
		}
		if total > 0 {
			probs := make([]float64, len(vals))
			for i, v := range vals {
				probs[i] = v / total
			}
			return Prediction{Probabilities: probs, Source: SourceHeuristic, Reason: "prices used as probabilities"}
		}
	}
	return Prediction{Probabilities: Uniform(numOutcomes), Source: SourceHeuristic, Reason: "uniform distribution"}
}

// Uniform is the equal-probability distribution over n outcomes.
func Uniform(n int) []float64 {
	if n < 1 {
		n = 1
	}
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = 1 / float64(n)
	}
	return probs
}
