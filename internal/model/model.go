// Package model wraps the pretrained, probability-calibrated classifier the
// predictor scores matchups with. Training happens offline; this package
// only loads the exported artifact and evaluates it.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model is a black-box binary classifier: feature vector in, calibrated
// probability that the home side wins out.
type Model interface {
	// PredictProb returns P(home wins) in [0,1].
	PredictProb(features map[string]float64) (float64, error)
	// Version identifies the artifact generation.
	Version() string
}

// calibration holds sigmoid (Platt) calibration parameters fitted offline:
// p = 1 / (1 + exp(a*score + b)).
type calibration struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// artifact is the on-disk JSON layout of an exported model.
type artifact struct {
	Version     string             `json:"version"`
	Features    []string           `json:"features"`
	Intercept   float64            `json:"intercept"`
	Weights     map[string]float64 `json:"weights"`
	Means       map[string]float64 `json:"means"`
	Scales      map[string]float64 `json:"scales"`
	Calibration *calibration       `json:"calibration,omitempty"`
}

// LogisticModel is a standardized logistic regression with optional Platt
// calibration, loaded from a JSON artifact exported by the training scripts.
type LogisticModel struct {
	version     string
	features    []string
	intercept   float64
	weights     map[string]float64
	means       map[string]float64
	scales      map[string]float64
	calibration *calibration
}

// Load reads a model artifact from disk.
func Load(path string) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parsing model artifact: %w", err)
	}
	if len(a.Features) == 0 || len(a.Weights) == 0 {
		return nil, fmt.Errorf("model artifact %s has no features", path)
	}
	for _, name := range a.Features {
		if _, ok := a.Weights[name]; !ok {
			return nil, fmt.Errorf("model artifact missing weight for feature %s", name)
		}
	}

	return &LogisticModel{
		version:     a.Version,
		features:    a.Features,
		intercept:   a.Intercept,
		weights:     a.Weights,
		means:       a.Means,
		scales:      a.Scales,
		calibration: a.Calibration,
	}, nil
}

// Version returns the artifact's version tag.
func (m *LogisticModel) Version() string {
	return m.version
}

// PredictProb scores one feature vector. Every trained feature must be
// present and finite; anything else is a coercion failure the caller handles
// by dropping the row.
func (m *LogisticModel) PredictProb(features map[string]float64) (float64, error) {
	score := m.intercept
	for _, name := range m.features {
		x, ok := features[name]
		if !ok {
			return 0, fmt.Errorf("missing feature %s", name)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("non-finite value for feature %s", name)
		}

		if mean, ok := m.means[name]; ok {
			x -= mean
		}
		if scale, ok := m.scales[name]; ok && scale != 0 {
			x /= scale
		}

		score += m.weights[name] * x
	}

	if m.calibration != nil {
		return sigmoid(-(m.calibration.A*score + m.calibration.B)), nil
	}
	return sigmoid(score), nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
