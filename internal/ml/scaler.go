package ml

import (
	"fmt"
	"math"
)

// Scaler is a fitted standard-scaling transform. Fitting happens offline in
// the training pipeline; at prediction time the scaler only transforms.
// Re-fitting on live features would silently discard the trained scaling.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform applies (x - mean) / scale element-wise. A zero scale entry is
// treated as one, matching how the trainer handles constant features.
func (s *Scaler) Transform(features []float64) ([]float64, error) {
	if s == nil {
		return nil, fmt.Errorf("scaler: not fitted")
	}
	if len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler: mean/scale length mismatch: %d vs %d", len(s.Mean), len(s.Scale))
	}
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: expected %d features, got %d", len(s.Mean), len(features))
	}

	out := make([]float64, len(features))
	for i, x := range features {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("scaler: feature %d is not finite", i)
		}
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}
