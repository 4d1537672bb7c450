// Package regress fits and evaluates the regressors behind the risk and
// premium models. Models are standardised ridge regressions solved through
// the normal equations and serialise to a small JSON artifact.
package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	KindRidge       = "ridge"
	artifactVersion = 1

	DefaultLambda = 1e-3
)

var ErrTooFewSamples = errors.New("too few samples")

type Options struct {
	// Lambda is the L2 penalty applied to standardised weights.
	Lambda float64
	// Features names the input columns; recorded in the artifact so a
	// consumer can verify its encoding order.
	Features []string
	Target   string
}

type Model struct {
	Version   int       `json:"version"`
	Kind      string    `json:"kind"`
	Features  []string  `json:"features"`
	Target    string    `json:"target"`
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Lambda    float64   `json:"lambda"`
}

// Fit solves (ZᵀZ + λI)w = Zᵀ(y - ȳ) where Z is x standardised per column.
func Fit(x [][]float64, y []float64, opts Options) (*Model, error) {
	n := len(x)
	if n != len(y) {
		return nil, fmt.Errorf("fit: %d rows but %d targets", n, len(y))
	}
	if n < 2 {
		return nil, fmt.Errorf("fit: %w: %d", ErrTooFewSamples, n)
	}
	p := len(x[0])
	if p == 0 {
		return nil, fmt.Errorf("fit: empty feature rows")
	}
	if len(opts.Features) > 0 && len(opts.Features) != p {
		return nil, fmt.Errorf("fit: %d feature names for %d columns", len(opts.Features), p)
	}
	lambda := opts.Lambda
	if lambda <= 0 {
		lambda = DefaultLambda
	}

	means := make([]float64, p)
	scales := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			if len(x[i]) != p {
				return nil, fmt.Errorf("fit: row %d has %d columns, want %d", i, len(x[i]), p)
			}
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		means[j] = mean
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		scales[j] = std
	}

	z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			z.Set(i, j, (x[i][j]-means[j])/scales[j])
		}
	}
	yMean := stat.Mean(y, nil)
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	gram := mat.NewSymDense(p, nil)
	gram.SymOuterK(1, z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return nil, fmt.Errorf("fit: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return nil, fmt.Errorf("fit: solve: %w", err)
	}

	weights := make([]float64, p)
	for j := range weights {
		weights[j] = w.AtVec(j)
	}
	features := opts.Features
	if len(features) == 0 {
		features = make([]string, p)
		for j := range features {
			features[j] = fmt.Sprintf("x%d", j)
		}
	}
	return &Model{
		Version:   artifactVersion,
		Kind:      KindRidge,
		Features:  append([]string(nil), features...),
		Target:    opts.Target,
		Means:     means,
		Scales:    scales,
		Weights:   weights,
		Intercept: yMean,
		Lambda:    lambda,
	}, nil
}

func (m *Model) NumFeatures() int {
	return len(m.Weights)
}

func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("predict: got %d features, model expects %d", len(x), len(m.Weights))
	}
	out := m.Intercept
	for j, v := range x {
		out += m.Weights[j] * (v - m.Means[j]) / m.Scales[j]
	}
	return out, nil
}

func (m *Model) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Score returns the coefficient of determination R² on (x, y).
func (m *Model) Score(x [][]float64, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("score: %d rows but %d targets", len(x), len(y))
	}
	if len(y) == 0 {
		return math.NaN(), nil
	}
	pred, err := m.PredictBatch(x)
	if err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(pred, y, nil), nil
}

// Validate checks the internal consistency of a decoded artifact.
func (m *Model) Validate() error {
	if m.Version != artifactVersion {
		return fmt.Errorf("unsupported model version %d", m.Version)
	}
	if m.Kind != KindRidge {
		return fmt.Errorf("unsupported model kind %q", m.Kind)
	}
	p := len(m.Weights)
	if p == 0 || len(m.Means) != p || len(m.Scales) != p || len(m.Features) != p {
		return fmt.Errorf("inconsistent model shape")
	}
	for j, s := range m.Scales {
		if s == 0 {
			return fmt.Errorf("zero scale for feature %q", m.Features[j])
		}
	}
	return nil
}

// RequireFeatures fails unless the artifact was trained on exactly names,
// in order.
func (m *Model) RequireFeatures(names []string) error {
	if len(names) != len(m.Features) {
		return fmt.Errorf("model trained on %d features, caller encodes %d", len(m.Features), len(names))
	}
	for i := range names {
		if names[i] != m.Features[i] {
			return fmt.Errorf("feature %d: model has %q, caller encodes %q", i, m.Features[i], names[i])
		}
	}
	return nil
}
