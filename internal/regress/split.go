package regress

import (
	"math"
	"math/rand/v2"
)

const DefaultSeed = 42

// MinSplitRows is the smallest row count whose split leaves Fit enough
// training rows.
const MinSplitRows = 3

// TrainTestSplit shuffles row indices with a fixed seed and returns the
// train and test partitions. The test partition holds ceil(n*testFraction)
// rows, but both partitions keep at least one row when n >= 2. From
// MinSplitRows on, the train partition keeps at least two rows; with n == 2
// the single train row is too few for Fit.
func TrainTestSplit(n int, testFraction float64, seed uint64) ([]int, []int) {
	if n <= 0 {
		return nil, nil
	}
	perm := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Perm(n)
	nTest := int(math.Ceil(float64(n) * testFraction))
	switch {
	case n >= MinSplitRows:
		nTest = max(1, min(nTest, n-2))
	case n == 2:
		nTest = 1
	default:
		nTest = 0
	}
	return perm[nTest:], perm[:nTest]
}

// Take gathers rows of x and y by index.
func Take(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
