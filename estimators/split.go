package estimators

import (
	"errors"
	"math"
	"math/rand"
)

// ErrTooFewSamples is returned when a split would leave either side empty.
var ErrTooFewSamples = errors.New("estimators: too few samples to split")

// TrainTestSplit shuffles 0..n-1 with a seeded source and returns the train
// and test row indices. The test side holds ceil(testFraction*n) rows.
// The same (n, testFraction, seed) always yields the same partition.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n < 2 || nTest < 1 || nTest >= n {
		return nil, nil, ErrTooFewSamples
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}
