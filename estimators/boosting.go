package estimators

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"gonum.org/v1/gonum/mat"
)

// GradientBoosting is a LightGBM regressor with squared-error loss. Training
// runs in deterministic mode so a fixed Seed reproduces the same trees.
type GradientBoosting struct {
	NTrees          int
	LearningRate    float64
	MaxDepth        int
	Lambda          float64
	MinChildSamples int
	Seed            int64

	reg *lightgbm.LGBMRegressor
}

// NewGradientBoosting returns the fixed configuration used for serving:
// 100 trees, learning rate 0.1, depth 6.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{
		NTrees:          100,
		LearningRate:    0.1,
		MaxDepth:        6,
		Lambda:          1,
		MinChildSamples: 1,
		Seed:            seed,
	}
}

func (m *GradientBoosting) Fit(X mat.Matrix, y []float64) error {
	if _, _, err := checkFitInput(X, y); err != nil {
		return err
	}

	reg := lightgbm.NewLGBMRegressor().
		WithNumIterations(m.NTrees).
		WithLearningRate(m.LearningRate).
		WithMaxDepth(m.MaxDepth).
		WithNumLeaves(1 << m.MaxDepth).
		WithRandomState(int(m.Seed)).
		WithDeterministic(true)
	reg.RegLambda = m.Lambda
	reg.MinChildSamples = m.MinChildSamples

	if err := reg.Fit(X, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		return fmt.Errorf("estimators: lightgbm: %w", err)
	}
	m.reg = reg
	return nil
}

// Predict returns NaN before Fit has completed.
func (m *GradientBoosting) Predict(x []float64) float64 {
	if !m.Fitted() {
		return math.NaN()
	}
	out, err := m.reg.Predict(mat.NewDense(1, len(x), append([]float64(nil), x...)))
	if err != nil {
		return math.NaN()
	}
	return out.At(0, 0)
}

// FeatureImportances returns each feature's share of the total split gain.
func (m *GradientBoosting) FeatureImportances() []float64 {
	if !m.Fitted() {
		return nil
	}
	return normalise(m.reg.FeatureImportance("gain"))
}

// Fitted reports whether Fit has completed.
func (m *GradientBoosting) Fitted() bool {
	return m.reg != nil && m.reg.IsFitted()
}
