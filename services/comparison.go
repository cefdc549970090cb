package services

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"hcm-apartment-pricing/estimators"
	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

const (
	RidgeAlpha  = 1.0
	ForestTrees = 100
	// MaxPredictionSamples caps the held-out rows echoed in the report.
	MaxPredictionSamples = 50
)

// Model keys used in the comparison report.
const (
	ModelLinear = "lr"
	ModelRidge  = "ridge"
	ModelForest = "rf"
	ModelXGB    = "xgb"
)

// ModelSpec names a regressor variant and how to build it.
type ModelSpec struct {
	Key  string
	Name string
	New  func(seed int64) estimators.Regressor
}

// ComparisonModels are trained, in this order, on the same split.
var ComparisonModels = []ModelSpec{
	{ModelLinear, "Linear Regression", func(int64) estimators.Regressor { return estimators.NewLinearRegression() }},
	{ModelRidge, "Ridge Regression", func(int64) estimators.Regressor { return estimators.NewRidge(RidgeAlpha) }},
	{ModelForest, "Random Forest", func(seed int64) estimators.Regressor { return estimators.NewRandomForest(ForestTrees, seed) }},
	{ModelXGB, "XGBoost", func(seed int64) estimators.Regressor { return estimators.NewGradientBoosting(seed) }},
}

// Comparator trains every model variant and reports how they stack up.
type Comparator struct {
	seed   int64
	schema *FeatureSchema
	logger *utils.Logger
}

func NewComparator(seed int64, schema *FeatureSchema, logger *utils.Logger) *Comparator {
	if schema == nil {
		schema = DefaultSchema
	}
	return &Comparator{seed: seed, schema: schema, logger: logger}
}

// Compare fits each variant on the split Trainer uses and scores it on the
// held-out rows. districts[i] names the district of row i; it is the
// benchmark for directional accuracy.
func (c *Comparator) Compare(X *mat.Dense, y []float64, districts []string) (*models.ComparisonReport, error) {
	if X == nil || len(y) == 0 {
		return nil, fmt.Errorf("comparison: %w", estimators.ErrEmptyTrainingSet)
	}
	if len(districts) != len(y) {
		return nil, fmt.Errorf("comparison: %d districts for %d rows", len(districts), len(y))
	}
	train, test, err := estimators.TrainTestSplit(len(y), TestFraction, c.seed)
	if err != nil {
		return nil, fmt.Errorf("comparison: split %d rows: %w", len(y), err)
	}

	xTrain, yTrain := estimators.SelectRows(X, train), estimators.SelectValues(y, train)
	xTest, yTest := estimators.SelectRows(X, test), estimators.SelectValues(y, test)
	benchmark := districtBenchmarks(y, districts, test)

	report := &models.ComparisonReport{}
	predictions := make(map[string][]float64, len(ComparisonModels))
	importances := make(map[string][]float64)

	for _, variant := range ComparisonModels {
		m := variant.New(c.seed)
		if err := m.Fit(xTrain, yTrain); err != nil {
			return nil, fmt.Errorf("comparison: fit %s: %w", variant.Key, err)
		}
		pred := estimators.PredictAll(m, xTest)
		predictions[variant.Key] = pred
		if imp, ok := m.(estimators.Importancer); ok {
			importances[variant.Key] = imp.FeatureImportances()
		}

		metrics := models.ModelMetrics{
			Name: variant.Name,
			R2:   estimators.R2(yTest, pred),
			RMSE: estimators.RMSE(yTest, pred),
			MAE:  estimators.MAE(yTest, pred),
		}
		report.Metrics = append(report.Metrics, metrics)
		report.DirectionAccuracy = append(report.DirectionAccuracy, models.DirectionAccuracy{
			Name:     variant.Name,
			Accuracy: DirectionalAccuracy(yTest, pred, benchmark),
		})
		c.logger.Info("[comparison] %-17s R² %.4f | RMSE %.0f | MAE %.0f",
			variant.Name, metrics.R2, metrics.RMSE, metrics.MAE)
	}

	report.Predictions = c.samplePredictions(yTest, predictions)
	report.FeatureImportance = c.treeImportances(importances[ModelForest], importances[ModelXGB])
	return report, nil
}

// districtBenchmarks returns, for each test row, the mean price of its
// district over all rows.
func districtBenchmarks(y []float64, districts []string, test []int) []float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, d := range districts {
		sums[d] += y[i]
		counts[d]++
	}
	out := make([]float64, len(test))
	for k, i := range test {
		d := districts[i]
		out[k] = sums[d] / float64(counts[d])
	}
	return out
}

// DirectionalAccuracy is the fraction of rows where predicted and actual fall
// on the same side of benchmark. "Above" is strict.
func DirectionalAccuracy(actual, predicted, benchmark []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	agree := 0
	for i := range actual {
		if (predicted[i] > benchmark[i]) == (actual[i] > benchmark[i]) {
			agree++
		}
	}
	return float64(agree) / float64(len(actual))
}

// samplePredictions picks up to MaxPredictionSamples held-out rows with a
// seeded source, kept in test order.
func (c *Comparator) samplePredictions(actual []float64, predictions map[string][]float64) []models.PredictionSample {
	n := len(actual)
	picked := rand.New(rand.NewSource(c.seed)).Perm(n)
	if len(picked) > MaxPredictionSamples {
		picked = picked[:MaxPredictionSamples]
	}
	sort.Ints(picked)

	samples := make([]models.PredictionSample, 0, len(picked))
	for _, i := range picked {
		samples = append(samples, models.PredictionSample{
			Actual: actual[i],
			LR:     predictions[ModelLinear][i],
			Ridge:  predictions[ModelRidge][i],
			RF:     predictions[ModelForest][i],
			XGB:    predictions[ModelXGB][i],
		})
	}
	return samples
}

// treeImportances pairs the two tree models' importances per feature, sorted
// by the larger of the two, descending.
func (c *Comparator) treeImportances(rf, xgb []float64) []models.TreeImportance {
	names := c.schema.Names()
	out := make([]models.TreeImportance, len(names))
	for i, name := range names {
		out[i] = models.TreeImportance{Feature: name, RF: valueAt(rf, i), XGB: valueAt(xgb, i)}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return math.Max(out[a].RF, out[a].XGB) > math.Max(out[b].RF, out[b].XGB)
	})
	return out
}

func valueAt(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}
