package services

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"hcm-apartment-pricing/estimators"
	"hcm-apartment-pricing/utils"
)

const (
	// TestFraction is the share of rows held out for scoring.
	TestFraction = 0.2
	// DefaultSeed drives every random choice of the pipeline.
	DefaultSeed int64 = 42
)

// Trainer fits the serving model on a seeded 80/20 split.
type Trainer struct {
	seed   int64
	logger *utils.Logger
}

func NewTrainer(seed int64, logger *utils.Logger) *Trainer {
	return &Trainer{seed: seed, logger: logger}
}

// Train fits gradient boosted trees on the training split of X and returns
// the model with its R² on the held-out rows.
func (t *Trainer) Train(X *mat.Dense, y []float64) (*estimators.GradientBoosting, float64, error) {
	if X == nil || len(y) == 0 {
		return nil, 0, fmt.Errorf("trainer: %w", estimators.ErrEmptyTrainingSet)
	}
	train, test, err := estimators.TrainTestSplit(len(y), TestFraction, t.seed)
	if err != nil {
		return nil, 0, fmt.Errorf("trainer: split %d rows: %w", len(y), err)
	}

	start := time.Now()
	model := estimators.NewGradientBoosting(t.seed)
	if err := model.Fit(estimators.SelectRows(X, train), estimators.SelectValues(y, train)); err != nil {
		return nil, 0, fmt.Errorf("trainer: fit: %w", err)
	}

	predicted := estimators.PredictAll(model, estimators.SelectRows(X, test))
	r2 := estimators.R2(estimators.SelectValues(y, test), predicted)

	t.logger.Info("[trainer] Fitted %d boosted trees on %d rows in %v, R² = %.4f on %d held-out rows",
		model.NTrees, len(train), time.Since(start).Round(time.Millisecond), r2, len(test))
	return model, r2, nil
}
