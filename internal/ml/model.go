// Package ml loads the trained forecast model artifact and turns feature
// vectors into outcome probabilities. A missing or unusable artifact is a
// normal condition, handled by falling back to price-derived heuristics.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"marketcast/internal/common"
)

// ErrModelUnavailable reports that no trained classifier is loaded.
var ErrModelUnavailable = errors.New("no trained model available")

// Artifact is the serialized model bundle produced by the offline training
// pipeline: a fitted scaler plus a random-forest classifier, versioned so
// forecasts can be traced back to the model that made them.
type Artifact struct {
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	FeatureCount int       `json:"feature_count"`
	Scaler       *Scaler   `json:"scaler"`
	Forest       *Forest   `json:"forest"`
}

// LoadArtifact reads and validates a model artifact from disk.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	if a.Forest == nil {
		return fmt.Errorf("missing forest")
	}
	if err := a.Forest.validate(); err != nil {
		return err
	}
	if a.Scaler == nil {
		return fmt.Errorf("missing scaler")
	}
	if a.FeatureCount == 0 {
		a.FeatureCount = common.FeatureCount
	}
	if len(a.Scaler.Mean) != a.FeatureCount || len(a.Scaler.Scale) != a.FeatureCount {
		return fmt.Errorf("scaler fitted for %d/%d features, artifact declares %d",
			len(a.Scaler.Mean), len(a.Scaler.Scale), a.FeatureCount)
	}
	return nil
}

// ModelVersion returns the artifact's version string, defaulting when the
// trainer did not stamp one.
func (a *Artifact) ModelVersion() string {
	if a == nil || a.Version == "" {
		return common.DefaultModelVersion
	}
	return a.Version
}
