package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeArtifact(t, `{
		"version": "v4_2",
		"features": ["off_rating_diff", "implied_win_diff"],
		"intercept": 0.1,
		"weights": {"off_rating_diff": 0.05, "implied_win_diff": 1.2},
		"means": {"off_rating_diff": 0.0, "implied_win_diff": 0.0},
		"scales": {"off_rating_diff": 8.0, "implied_win_diff": 0.2}
	}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Version() != "v4_2" {
		t.Errorf("Version() = %q, want v4_2", m.Version())
	}
}

func TestLoadRejectsMissingWeight(t *testing.T) {
	path := writeArtifact(t, `{
		"version": "v4_2",
		"features": ["off_rating_diff", "pace_diff"],
		"weights": {"off_rating_diff": 0.05}
	}`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for feature without a weight")
	}
}

func TestPredictProb(t *testing.T) {
	// Single feature, no standardization: score = 2*x, p = sigmoid(2x)
	m := &LogisticModel{
		version:  "test",
		features: []string{"x"},
		weights:  map[string]float64{"x": 2.0},
	}

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"Zero scores half", 0.0, 0.5},
		{"Positive", 1.0, 1.0 / (1.0 + math.Exp(-2.0))},
		{"Negative", -1.0, 1.0 / (1.0 + math.Exp(2.0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.PredictProb(map[string]float64{"x": tt.x})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PredictProb(x=%f) = %f, want %f", tt.x, got, tt.want)
			}
		})
	}
}

func TestPredictProbStandardizes(t *testing.T) {
	m := &LogisticModel{
		version:  "test",
		features: []string{"x"},
		weights:  map[string]float64{"x": 1.0},
		means:    map[string]float64{"x": 10.0},
		scales:   map[string]float64{"x": 5.0},
	}

	// x=10 standardizes to 0, so the score is the zero intercept
	got, err := m.PredictProb(map[string]float64{"x": 10.0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("PredictProb at the mean = %f, want 0.5", got)
	}
}

func TestPredictProbCalibration(t *testing.T) {
	m := &LogisticModel{
		version:     "test",
		features:    []string{"x"},
		weights:     map[string]float64{"x": 1.0},
		calibration: &calibration{A: -1.5, B: 0.2},
	}

	// p = sigmoid(-(a*score + b)) with score = x
	x := 0.8
	z := -(-1.5*x + 0.2)
	want := 1.0 / (1.0 + math.Exp(-z))
	got, err := m.PredictProb(map[string]float64{"x": x})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("calibrated PredictProb = %f, want %f", got, want)
	}
}

func TestPredictProbRejectsBadInput(t *testing.T) {
	m := &LogisticModel{
		version:  "test",
		features: []string{"x"},
		weights:  map[string]float64{"x": 1.0},
	}

	if _, err := m.PredictProb(map[string]float64{}); err == nil {
		t.Error("expected error for missing feature")
	}
	if _, err := m.PredictProb(map[string]float64{"x": math.NaN()}); err == nil {
		t.Error("expected error for NaN feature")
	}
	if _, err := m.PredictProb(map[string]float64{"x": math.Inf(1)}); err == nil {
		t.Error("expected error for infinite feature")
	}
}

func TestPredictProbBounded(t *testing.T) {
	m := &LogisticModel{
		version:  "test",
		features: []string{"x"},
		weights:  map[string]float64{"x": 3.0},
	}

	for _, x := range []float64{-100, -1, 0, 1, 100} {
		p, err := m.PredictProb(map[string]float64{"x": x})
		if err != nil {
			t.Fatal(err)
		}
		if p < 0 || p > 1 {
			t.Errorf("PredictProb(x=%f) = %f out of [0,1]", x, p)
		}
	}
}
