// Package retrieval answers free-text questions by nearest-neighbour lookup
// over a corpus of embedded example queries, returning the paired response
// template personalised with the caller's data.
package retrieval

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	appErr "github.com/xxxsen/insuregenie/internal/pkg/errors"
)

// Match is one search hit. Distance is the squared Euclidean distance.
type Match struct {
	Rank     int               `json:"rank"`
	Row      int               `json:"row"`
	Distance float32           `json:"distance"`
	Response string            `json:"response"`
	Context  map[string]string `json:"context,omitempty"`
}

// Index is a flat, exhaustively searched set of query embeddings, each
// paired with a response template and a context template. Row order is
// shared by all three.
type Index struct {
	model     string
	dim       int
	vectors   []float32
	norms     []float32
	responses []string
	contexts  []map[string]string
}

func NewIndex(model string, dim int) *Index {
	return &Index{model: model, dim: dim}
}

func (ix *Index) Model() string { return ix.model }
func (ix *Index) Dim() int      { return ix.dim }
func (ix *Index) Len() int      { return len(ix.responses) }

func (ix *Index) Add(vec []float32, response string, context map[string]string) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, index has %d", appErr.ErrDimensionMismatch, len(vec), ix.dim)
	}
	if context == nil {
		context = map[string]string{}
	}
	ix.vectors = append(ix.vectors, vec...)
	ix.norms = append(ix.norms, squaredNorm(vec))
	ix.responses = append(ix.responses, response)
	ix.contexts = append(ix.contexts, context)
	return nil
}

// Search returns the k nearest rows ordered by distance, ties broken by row.
// k larger than the index is reduced to its size.
func (ix *Index) Search(query []float32, k int) ([]Match, error) {
	n := ix.Len()
	if n == 0 {
		return nil, appErr.ErrEmptyIndex
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", appErr.ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", appErr.ErrInvalid)
	}
	k = min(k, n)

	// ||q-x||² = ||q||² + ||x||² - 2·q·x, with every q·x from one GEMV.
	dots := make([]float32, n)
	blas32.Gemv(
		blas.NoTrans,
		1.0,
		blas32.General{Rows: n, Cols: ix.dim, Stride: ix.dim, Data: ix.vectors},
		blas32.Vector{N: ix.dim, Inc: 1, Data: query},
		0.0,
		blas32.Vector{N: n, Inc: 1, Data: dots},
	)

	// The float32 expansion is off by at most tol·(||q||²+||x||²). Any row
	// whose lower bound reaches the k-th smallest upper bound may belong to
	// the top k, and every such row is re-scored exactly.
	tol := float64(2*ix.dim+4) * float32Epsilon
	qNorm := float64(squaredNorm(query))
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := 0; i < n; i++ {
		approx := qNorm + float64(ix.norms[i]) - 2*float64(dots[i])
		bound := tol * (qNorm + float64(ix.norms[i]))
		if math.IsNaN(approx) || math.IsNaN(bound) || math.IsInf(bound, 0) {
			lower[i], upper[i] = math.Inf(-1), math.Inf(1)
			continue
		}
		lower[i], upper[i] = approx-bound, approx+bound
	}
	cutoff := kthSmallest(upper, k)

	matches := make([]Match, 0, k)
	for i := 0; i < n; i++ {
		if lower[i] <= cutoff {
			matches = append(matches, Match{Row: i, Distance: ix.exactDistance(query, i)})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Distance != matches[b].Distance {
			return matches[a].Distance < matches[b].Distance
		}
		return matches[a].Row < matches[b].Row
	})
	matches = matches[:k]
	for i := range matches {
		matches[i].Rank = i
		matches[i].Response = ix.responses[matches[i].Row]
		matches[i].Context = ix.contexts[matches[i].Row]
	}
	return matches, nil
}

// float32Epsilon is the unit roundoff of float32.
const float32Epsilon = 1.0 / (1 << 24)

func (ix *Index) exactDistance(query []float32, row int) float32 {
	vec := ix.vectors[row*ix.dim : (row+1)*ix.dim]
	var sum float64
	for i, v := range vec {
		d := float64(query[i]) - float64(v)
		sum += d * d
	}
	return float32(sum)
}

func kthSmallest(values []float64, k int) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[k-1]
}

func squaredNorm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if math.IsNaN(float64(sum)) {
		return float32(math.Inf(1))
	}
	return sum
}
