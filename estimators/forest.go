package estimators

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RandomForest averages fully grown regression trees, each fitted on a
// bootstrap sample of the training rows.
type RandomForest struct {
	NTrees         int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64

	trees       []*regressionTree
	importances []float64
}

func NewRandomForest(nTrees int, seed int64) *RandomForest {
	return &RandomForest{NTrees: nTrees, MinSamplesLeaf: 1, Seed: seed}
}

func (m *RandomForest) Fit(X mat.Matrix, y []float64) error {
	n, cols, err := checkFitInput(X, y)
	if err != nil {
		return err
	}
	nTrees := m.NTrees
	if nTrees < 1 {
		nTrees = 1
	}

	rows := denseRows(X)
	rng := rand.New(rand.NewSource(m.Seed))
	params := treeParams{MaxDepth: m.MaxDepth, MinSamplesSplit: 2, MinSamplesLeaf: m.MinSamplesLeaf}

	m.trees = make([]*regressionTree, 0, nTrees)
	total := make([]float64, cols)
	idx := make([]int, n)
	for t := 0; t < nTrees; t++ {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		tree := growTree(rows, y, idx, cols, params)
		m.trees = append(m.trees, tree)
		for f, g := range normalise(tree.gain) {
			total[f] += g
		}
	}
	m.importances = normalise(total)
	return nil
}

func (m *RandomForest) Predict(x []float64) float64 {
	if len(m.trees) == 0 {
		return 0
	}
	var s float64
	for _, t := range m.trees {
		s += t.predict(x)
	}
	return s / float64(len(m.trees))
}

// FeatureImportances returns the mean impurity decrease per feature, normalised.
func (m *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), m.importances...)
}
