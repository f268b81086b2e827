package forecast

import "math"

const (
	// ConfidenceNoModel is reported on the heuristic path: it reflects the
	// absence of a trained model, not a data-driven signal.
	ConfidenceNoModel = 0.5
	// ConfidenceDegraded is reported when inference failed or the terminal
	// fallback triggered, deliberately below ConfidenceNoModel.
	ConfidenceDegraded = 0.3

	// entropyEpsilon keeps log2 defined at zero probabilities.
	entropyEpsilon = 1e-10
)

// Confidence maps a probability vector to [0,1] as one minus its normalized
// Shannon entropy in bits: 1 for a fully peaked distribution, 0 for
// uniform. A vector of one or zero outcomes has maximum entropy zero, so
// the no-signal value is returned instead of dividing by it.
func Confidence(probs []float64) float64 {
	n := len(probs)
	if n <= 1 {
		return ConfidenceNoModel
	}

	var entropy float64
	for _, p := range probs {
		if p > 0 {
			entropy -= p * math.Log2(p+entropyEpsilon)
		}
	}

	c := 1 - entropy/math.Log2(float64(n))
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
