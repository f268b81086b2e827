package forecast

import (
	"math"
	"time"

	"marketcast/internal/market"
)

// normTolerance is the slack allowed before a probability vector is
// renormalized.
const normTolerance = 1e-9

// Entry is one outcome's row in a forecast record. Confidence is the single
// record-level value repeated per entry for downstream consumers that read
// rows in isolation.
type Entry struct {
	Outcome     string  `json:"outcome"`
	OutcomeID   int     `json:"outcomeId"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

// Record is the assembled forecast emitted to the caller. Error is set only
// when the terminal fallback produced the record.
type Record struct {
	Forecast     []Entry `json:"forecast"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"modelVersion"`
	Timestamp    string  `json:"timestamp"`
	Error        string  `json:"error,omitempty"`
}

// Assemble combines probabilities, confidence, and the snapshot's outcome
// names into an output record. The probability vector is normalized here as
// the last line of defense: negatives and non-finite values are zeroed, a
// vector that does not sum to 1 is rescaled, and a zero-mass vector becomes
// uniform.
func Assemble(probs []float64, confidence float64, snap *market.Snapshot, modelVersion string) Record {
	probs = normalize(probs)

	entries := make([]Entry, len(probs))
	for i, p := range probs {
		entries[i] = Entry{
			Outcome:     snap.OutcomeName(i),
			OutcomeID:   i,
			Probability: p,
			Confidence:  confidence,
		}
	}

	return Record{
		Forecast:     entries,
		Confidence:   confidence,
		ModelVersion: modelVersion,
		Timestamp:    time.Now().Format(time.RFC3339),
	}
}

func normalize(probs []float64) []float64 {
	out := make([]float64, len(probs))
	var sum float64
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			p = 0
		}
		out[i] = p
		sum += p
	}

	if len(out) == 0 {
		return out
	}
	if sum <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	if math.Abs(sum-1) > normTolerance {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}
