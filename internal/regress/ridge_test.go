package regress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func linearDataset(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i%17) * 1.5
		b := float64((i*7)%23) - 4
		c := float64(i)
		x[i] = []float64{a, b, c}
		y[i] = 3 + 2*a - b + 0.5*c
	}
	return x, y
}

func TestFitRecoversLinearRelation(t *testing.T) {
	x, y := linearDataset(120)
	m, err := Fit(x, y, Options{Lambda: 1e-9, Features: []string{"a", "b", "c"}, Target: "y"})
	require.NoError(t, err)

	got, err := m.Predict([]float64{4, 2, 10})
	require.NoError(t, err)
	require.InDelta(t, 3+8-2+5, got, 1e-6)

	r2, err := m.Score(x, y)
	require.NoError(t, err)
	require.InDelta(t, 1.0, r2, 1e-9)
}

func TestFitConstantColumn(t *testing.T) {
	x := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	y := []float64{2, 4, 6, 8}
	m, err := Fit(x, y, Options{Lambda: 1e-9})
	require.NoError(t, err)
	got, err := m.Predict([]float64{5, 5})
	require.NoError(t, err)
	require.InDelta(t, 10, got, 1e-6)
	require.Equal(t, []string{"x0", "x1"}, m.Features)
}

func TestFitRejectsBadInput(t *testing.T) {
	_, err := Fit([][]float64{{1}}, []float64{1}, Options{})
	require.ErrorIs(t, err, ErrTooFewSamples)

	_, err = Fit([][]float64{{1}, {2}}, []float64{1}, Options{})
	require.Error(t, err)

	_, err = Fit([][]float64{{1, 2}, {2}}, []float64{1, 2}, Options{})
	require.Error(t, err)

	_, err = Fit([][]float64{{1}, {2}}, []float64{1, 2}, Options{Features: []string{"a", "b"}})
	require.Error(t, err)
}

func TestPredictChecksWidth(t *testing.T) {
	x, y := linearDataset(10)
	m, err := Fit(x, y, Options{})
	require.NoError(t, err)
	_, err = m.Predict([]float64{1, 2})
	require.Error(t, err)
}

func TestArtifactRoundTripPreservesPredictions(t *testing.T) {
	x, y := linearDataset(50)
	m, err := Fit(x, y, Options{Features: []string{"a", "b", "c"}, Target: "y"})
	require.NoError(t, err)

	data, err := Marshal(m)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	for _, row := range x[:5] {
		want, _ := m.Predict(row)
		got, err := decoded.Predict(row)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.NoError(t, decoded.RequireFeatures([]string{"a", "b", "c"}))
	require.Error(t, decoded.RequireFeatures([]string{"a", "c", "b"}))
	require.Error(t, decoded.RequireFeatures([]string{"a"}))
}

func TestUnmarshalRejectsCorruptArtifact(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version":1,"kind":"ridge","features":["a"],"means":[0],"scales":[1],"weights":[]}`))
	require.Error(t, err)
	_, err = Unmarshal([]byte(`{"version":9}`))
	require.Error(t, err)
	_, err = Unmarshal([]byte(`not json`))
	require.Error(t, err)
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, DefaultSeed)
	require.Len(t, train, 8)
	require.Len(t, test, 2)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		require.False(t, seen[i])
		seen[i] = true
	}
	require.Len(t, seen, 10)

	train2, test2 := TrainTestSplit(10, 0.2, DefaultSeed)
	require.Equal(t, train, train2)
	require.Equal(t, test, test2)

	train, test = TrainTestSplit(2, 0.2, DefaultSeed)
	require.Len(t, train, 1)
	require.Len(t, test, 1)

	train, test = TrainTestSplit(3, 0.9, DefaultSeed)
	require.Len(t, train, 2)
	require.Len(t, test, 1)

	x := [][]float64{{1}, {2}, {3}}
	y := []float64{2, 4, 6}
	xs, ys := Take(x, y, train)
	_, err := Fit(xs, ys, Options{})
	require.NoError(t, err)

	train, test = TrainTestSplit(1, 0.2, DefaultSeed)
	require.Len(t, train, 1)
	require.Empty(t, test)
}
