// Package features turns a market snapshot into the fixed-length numeric
// vector the classifier was trained on. Extraction is total: every snapshot
// produces exactly FeatureCount values, and a field that fails coercion
// zeroes its own feature group without touching the others.
package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"marketcast/internal/common"
	"marketcast/internal/market"
)

// Count is the invariant feature vector length.
const Count = common.FeatureCount

// Feature vector positions.
const (
	IdxVolume         = iota // raw total volume
	IdxVolumeLog             // log1p(total volume)
	IdxLiquidity             // raw total liquidity
	IdxLiquidityLog          // log1p(total liquidity)
	IdxHoursToRes            // signed hours until resolution
	IdxHoursClamped          // same, clamped to >= 0
	IdxPriceMean             // mean of prices
	IdxPriceStd              // population std of prices
	IdxPriceRange            // max - min of prices
	IdxOutcomeCount          // number of price entries
	IdxDeltaMean             // mean per-step price delta over recent history
	IdxDeltaStd              // population std of those deltas
	IdxHistoryDepth          // usable history snapshots considered
	IdxPriceMass             // raw sum of prices
)

// Vector is one extracted feature vector.
type Vector [Count]float64

// Slice returns the vector as a freshly allocated slice for consumers that
// take variable-length feature input.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

// MetricsTracker receives feature-level error counts.
type MetricsTracker interface {
	FeatureErrorsInc()
}

// Extract computes the feature vector for a snapshot.
func Extract(snap *market.Snapshot) Vector {
	return ExtractWithMetrics(snap, nil)
}

// ExtractWithMetrics is Extract with error counting.
func ExtractWithMetrics(snap *market.Snapshot, m MetricsTracker) Vector {
	var v Vector

	if snap == nil {
		v[IdxOutcomeCount] = common.DefaultOutcomeCount
		return v
	}

	volume := scalarValue(snap.TotalVolume)
	v[IdxVolume] = volume
	v[IdxVolumeLog] = math.Log1p(math.Max(volume, 0))

	liquidity := scalarValue(snap.TotalLiquidity)
	v[IdxLiquidity] = liquidity
	v[IdxLiquidityLog] = math.Log1p(math.Max(liquidity, 0))

	if hours, ok := snap.HoursToResolution(time.Now()); ok {
		v[IdxHoursToRes] = hours
		v[IdxHoursClamped] = math.Max(0, hours)
	}

	extractPrices(snap, &v, m)
	extractHistory(snap, &v)

	sanitize(&v, m)
	return v
}

// extractPrices fills the current-price feature group. A single uncoercible
// entry zeroes the group's statistics but keeps the structural outcome count.
func extractPrices(snap *market.Snapshot, v *Vector, m MetricsTracker) {
	if len(snap.Prices) == 0 {
		v[IdxOutcomeCount] = common.DefaultOutcomeCount
		return
	}
	v[IdxOutcomeCount] = float64(len(snap.Prices))

	vals, ok := snap.PriceValues()
	if !ok {
		if m != nil {
			m.FeatureErrorsInc()
		}
		return
	}

	v[IdxPriceMean] = stat.Mean(vals, nil)
	v[IdxPriceStd] = popStdDev(vals)
	v[IdxPriceRange] = floats.Max(vals) - floats.Min(vals)
	v[IdxPriceMass] = floats.Sum(vals)
}

// extractHistory fills the momentum feature group from the trailing history
// window. Each adjacent pair contributes the mean element-wise price change
// over the overlapping outcome indices; shorter vectors are not zero-padded.
func extractHistory(snap *market.Snapshot, v *Vector) {
	window := snap.History
	if len(window) > common.DefaultHistoryWindow {
		window = window[len(window)-common.DefaultHistoryWindow:]
	}

	usable := 0
	for _, h := range window {
		if len(h.Prices) > 0 {
			usable++
		}
	}
	v[IdxHistoryDepth] = float64(usable)

	var deltas []float64
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1].Prices, window[i].Prices
		if len(prev) == 0 || len(cur) == 0 {
			continue
		}
		n := len(prev)
		if len(cur) < n {
			n = len(cur)
		}
		var sum float64
		var counted int
		for j := 0; j < n; j++ {
			if !prev[j].Valid || !cur[j].Valid {
				continue
			}
			sum += cur[j].Value - prev[j].Value
			counted++
		}
		if counted > 0 {
			deltas = append(deltas, sum/float64(counted))
		}
	}

	if len(deltas) == 0 {
		return
	}
	v[IdxDeltaMean] = stat.Mean(deltas, nil)
	v[IdxDeltaStd] = popStdDev(deltas)
}

// popStdDev is the population standard deviation (no Bessel correction),
// matching how the training pipeline computed the feature. Zero for fewer
// than two elements.
func popStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	mean := stat.Mean(vals, nil)
	var ss float64
	for _, x := range vals {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// sanitize enforces the all-finite invariant on the final vector.
func sanitize(v *Vector, m MetricsTracker) {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
			if m != nil {
				m.FeatureErrorsInc()
			}
		}
	}
}

func scalarValue(s market.Scalar) float64 {
	if !s.Valid {
		return 0
	}
	return s.Value
}
