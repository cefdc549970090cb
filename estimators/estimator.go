// Package estimators implements the regressors used to price listings:
// ordinary least squares, ridge, a bootstrap random forest and gradient
// boosted trees. All of them are deterministic for a given seed.
package estimators

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyTrainingSet is returned when Fit is given no rows.
var ErrEmptyTrainingSet = errors.New("estimators: empty training set")

// Regressor maps a feature vector to a numeric prediction.
type Regressor interface {
	Fit(X mat.Matrix, y []float64) error
	Predict(x []float64) float64
}

// Importancer is implemented by models that can rank their input features.
// Importances are non-negative and sum to 1 when at least one split was made.
type Importancer interface {
	FeatureImportances() []float64
}

// PredictAll runs r over every row of X.
func PredictAll(r Regressor, X mat.Matrix) []float64 {
	rows, cols := X.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out[i] = r.Predict(row)
	}
	return out
}

// SelectRows copies the given rows of X into a new dense matrix.
func SelectRows(X mat.Matrix, idx []int) *mat.Dense {
	_, cols := X.Dims()
	data := make([]float64, 0, len(idx)*cols)
	row := make([]float64, cols)
	for _, i := range idx {
		mat.Row(row, i, X)
		data = append(data, row...)
	}
	return mat.NewDense(len(idx), cols, data)
}

// SelectValues returns y[i] for every i in idx.
func SelectValues(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}

func checkFitInput(X mat.Matrix, y []float64) (rows, cols int, err error) {
	if X == nil {
		return 0, 0, ErrEmptyTrainingSet
	}
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, ErrEmptyTrainingSet
	}
	if len(y) != rows {
		return 0, 0, fmt.Errorf("estimators: %d rows but %d targets", rows, len(y))
	}
	return rows, cols, nil
}

func denseRows(X mat.Matrix) [][]float64 {
	rows, _ := X.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = mat.Row(nil, i, X)
	}
	return out
}

func normalise(v []float64) []float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	out := make([]float64, len(v))
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}
