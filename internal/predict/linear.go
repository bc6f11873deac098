package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// LinearWeights is the YAML document of a logistic model:
//
//	bias: -1.5
//	weights: [2.0, 0, 0, ...]   # FeatureCount entries
type LinearWeights struct {
	Bias    float64   `yaml:"bias"`
	Weights []float64 `yaml:"weights"`
}

// Linear is a logistic regression over Features.Vector.
type Linear struct {
	w LinearWeights
}

// NewLinear validates weights and builds the model.
func NewLinear(w LinearWeights) (*Linear, error) {
	if len(w.Weights) != FeatureCount {
		return nil, fmt.Errorf("linear model needs %d weights, got %d", FeatureCount, len(w.Weights))
	}

	return &Linear{w: w}, nil
}

// LoadLinear reads weights from a YAML file.
func LoadLinear(path string) (*Linear, error) {
	if path == "" {
		return nil, errors.New("linear model: weights path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linear model: %w", err)
	}

	var w LinearWeights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("linear model: parsing %s: %w", path, err)
	}

	return NewLinear(w)
}

// Name implements Backend.
func (l *Linear) Name() string { return TypeLinear }

// Predict implements Backend.
func (l *Linear) Predict(ctx context.Context, f Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	z := l.w.Bias
	for i, x := range f.Vector() {
		z += l.w.Weights[i] * x
	}

	return 1 / (1 + math.Exp(-z)), nil
}
