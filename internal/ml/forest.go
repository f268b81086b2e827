package ml

import "fmt"

// Tree is one decision tree flattened into parallel node arrays, the layout
// the exporter writes straight from the trained estimator. A negative
// feature index marks a leaf; Value holds per-class sample counts.
type Tree struct {
	Feature   []int       `json:"feature"`
	Threshold []float64   `json:"threshold"`
	Left      []int       `json:"children_left"`
	Right     []int       `json:"children_right"`
	Value     [][]float64 `json:"value"`
}

func (t *Tree) validate() error {
	n := len(t.Feature)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays are inconsistent: feature=%d threshold=%d left=%d right=%d value=%d",
			n, len(t.Threshold), len(t.Left), len(t.Right), len(t.Value))
	}
	return nil
}

// leaf walks the tree for one scaled feature vector and returns the leaf's
// class counts. The step bound guards against cyclic node references in a
// corrupt artifact.
func (t *Tree) leaf(features []float64) ([]float64, error) {
	node := 0
	for steps := 0; steps <= len(t.Feature); steps++ {
		if node < 0 || node >= len(t.Feature) {
			return nil, fmt.Errorf("node index %d out of range", node)
		}
		fi := t.Feature[node]
		if fi < 0 {
			return t.Value[node], nil
		}
		if fi >= len(features) {
			return nil, fmt.Errorf("split on feature %d but only %d features given", fi, len(features))
		}
		if features[fi] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return nil, fmt.Errorf("traversal did not reach a leaf")
}

// Forest is a trained random-forest classifier. Probabilities are the
// average of the per-tree leaf class distributions.
type Forest struct {
	Classes int    `json:"classes"`
	Trees   []Tree `json:"trees"`
}

func (f *Forest) validate() error {
	if f.Classes <= 0 {
		return fmt.Errorf("forest declares %d classes", f.Classes)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// PredictProba returns the per-class probability vector for one scaled
// feature vector. The result has Classes entries and sums to 1.
func (f *Forest) PredictProba(features []float64) ([]float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return nil, ErrModelUnavailable
	}

	probs := make([]float64, f.Classes)
	voted := 0
	for i := range f.Trees {
		counts, err := f.Trees[i].leaf(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		var total float64
		for _, c := range counts {
			total += c
		}
		if total <= 0 {
			continue
		}
		for c := 0; c < f.Classes && c < len(counts); c++ {
			probs[c] += counts[c] / total
		}
		voted++
	}
	if voted == 0 {
		return nil, fmt.Errorf("forest produced no usable votes")
	}

	var sum float64
	for i := range probs {
		probs[i] /= float64(voted)
		sum += probs[i]
	}
	if sum <= 0 {
		return nil, fmt.Errorf("forest produced a zero-mass distribution")
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}
