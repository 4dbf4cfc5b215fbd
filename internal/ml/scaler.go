// Package ml implements the machine-learned scoring path: feature extraction,
// standardization, isolation-forest novelty models, and the offline trainer
// that produces model bundles for the registry.
package ml

import (
	"fmt"
	"math"
)

// StandardScaler centers features to zero mean and unit variance, mirroring
// the transform fitted alongside each sub-model at training time. A fitted
// scaler is immutable; detection only calls Transform.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-column mean and standard deviation from training data.
// Columns with zero variance get scale 1 so Transform stays defined.
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("cannot fit scaler on empty data")
	}
	cols := len(x[0])
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		for i := range x {
			sum += x[i][j]
		}
		mean := sum / float64(len(x))

		var sq float64
		for i := range x {
			d := x[i][j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(len(x)))
		if std == 0 {
			std = 1
		}

		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("scaler fitted on %d features, got %d", len(s.Mean), len(row))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits the scaler and returns the standardized training data.
func (s *StandardScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
