package estimators

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// rankTolerance drops singular values below this fraction of the largest one.
// Columns that are constant on the training rows (e.g. an absent one-hot
// category) fall under it and get a zero coefficient.
const rankTolerance = 1e-10

// LinearRegression is ordinary least squares with an intercept. Rank-deficient
// designs are solved by the minimum-norm SVD solution.
type LinearRegression struct {
	Coefficients []float64
	Intercept    float64
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (m *LinearRegression) Fit(X mat.Matrix, y []float64) error {
	rows, cols, err := checkFitInput(X, y)
	if err != nil {
		return err
	}
	xc, yc, xMean, yMean := center(X, y)

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("estimators: linear regression SVD did not converge")
	}
	rank := svd.Rank(rankTolerance)

	w := mat.NewVecDense(cols, nil)
	if rank > 0 {
		svd.SolveVecTo(w, mat.NewVecDense(rows, yc), rank)
	}
	m.Coefficients, m.Intercept = interceptFrom(w, xMean, yMean)
	return nil
}

func (m *LinearRegression) Predict(x []float64) float64 {
	return linearPredict(m.Coefficients, m.Intercept, x)
}

// Ridge is least squares with an L2 penalty Alpha on the coefficients. The
// intercept is not penalised.
type Ridge struct {
	Alpha        float64
	Coefficients []float64
	Intercept    float64
}

func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

func (m *Ridge) Fit(X mat.Matrix, y []float64) error {
	rows, cols, err := checkFitInput(X, y)
	if err != nil {
		return err
	}
	if m.Alpha <= 0 {
		return errors.New("estimators: ridge alpha must be positive")
	}
	xc, yc, xMean, yMean := center(X, y)

	// w = V·diag(s/(s²+α))·Uᵀy, without forming XᵀX.
	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("estimators: ridge SVD did not converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	uty := mat.NewVecDense(len(s), nil)
	uty.MulVec(u.T(), mat.NewVecDense(rows, yc))
	for i, sv := range s {
		uty.SetVec(i, uty.AtVec(i)*sv/(sv*sv+m.Alpha))
	}

	w := mat.NewVecDense(cols, nil)
	w.MulVec(&v, uty)
	m.Coefficients, m.Intercept = interceptFrom(w, xMean, yMean)
	return nil
}

func (m *Ridge) Predict(x []float64) float64 {
	return linearPredict(m.Coefficients, m.Intercept, x)
}

// center subtracts column means from X and the mean from y.
func center(X mat.Matrix, y []float64) (*mat.Dense, []float64, []float64, float64) {
	rows, cols := X.Dims()
	xMean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var s float64
		for i := 0; i < rows; i++ {
			s += X.At(i, j)
		}
		xMean[j] = s / float64(rows)
	}

	xc := mat.NewDense(rows, cols, nil)
	xc.Apply(func(i, j int, _ float64) float64 {
		return X.At(i, j) - xMean[j]
	}, xc)

	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(rows)
	yc := make([]float64, rows)
	for i, v := range y {
		yc[i] = v - yMean
	}
	return xc, yc, xMean, yMean
}

func interceptFrom(w *mat.VecDense, xMean []float64, yMean float64) ([]float64, float64) {
	coef := make([]float64, w.Len())
	intercept := yMean
	for j := range coef {
		coef[j] = w.AtVec(j)
		intercept -= coef[j] * xMean[j]
	}
	return coef, intercept
}

func linearPredict(coef []float64, intercept float64, x []float64) float64 {
	out := intercept
	for j, c := range coef {
		out += c * x[j]
	}
	return out
}
