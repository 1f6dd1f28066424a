// Package similarity holds the dense pairwise similarity matrix and the
// nearest-neighbor lookup over it.
package similarity

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/reelmatch/reelmatch/internal/features"
)

// Neighbor is a candidate row with its similarity to the query row.
type Neighbor struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Index answers "given a row, which other rows are closest". The dense
// Matrix implements it; an approximate structure can replace it for
// catalogs too large for N*N storage.
type Index interface {
	// Neighbors returns up to k rows other than row, best first. Equal
	// scores are ordered by ascending row index.
	Neighbors(row, k int) []Neighbor
	Len() int
}

// Matrix is a row-major N*N matrix of float32 scores.
type Matrix struct {
	n    int
	data []float32
}

// NewMatrix allocates an n*n zero matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, data: make([]float32, n*n)}
}

// FromData wraps data as an n*n matrix without copying.
func FromData(n int, data []float32) (*Matrix, error) {
	if n < 0 || len(data) != n*n {
		return nil, fmt.Errorf("matrix data has %d entries, want %d*%d", len(data), n, n)
	}
	return &Matrix{n: n, data: data}, nil
}

// FromRows builds a matrix from a square slice of rows.
func FromRows(rows [][]float32) (*Matrix, error) {
	m := NewMatrix(len(rows))
	for i, row := range rows {
		if len(row) != m.n {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), m.n)
		}
		copy(m.data[i*m.n:], row)
	}
	return m, nil
}

// Len returns the number of rows (and columns).
func (m *Matrix) Len() int { return m.n }

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.n }

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	if m.n == 0 {
		return 0
	}
	return len(m.data) / m.n
}

// At returns the score at (i, j).
func (m *Matrix) At(i, j int) float64 { return float64(m.data[i*m.n+j]) }

// Set stores the score at (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.n+j] = float32(v) }

// Row returns row i. The slice aliases the matrix and must not be modified.
func (m *Matrix) Row(i int) []float32 { return m.data[i*m.n : (i+1)*m.n] }

// Data returns the backing row-major slice.
func (m *Matrix) Data() []float32 { return m.data }

// Neighbors ranks every other column of row by descending score.
func (m *Matrix) Neighbors(row, k int) []Neighbor {
	if row < 0 || row >= m.n || k <= 0 {
		return nil
	}
	scores := m.Row(row)
	candidates := make([]Neighbor, 0, m.n-1)
	for j, s := range scores {
		if j == row {
			continue
		}
		score := float64(s)
		if math.IsNaN(score) {
			score = math.Inf(-1)
		}
		candidates = append(candidates, Neighbor{Index: j, Score: score})
	}
	slices.SortFunc(candidates, func(a, b Neighbor) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Index - b.Index
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// Cosine computes all pairwise cosine similarities of unit-length vectors.
// The diagonal is 1.0 by convention, including rows with zero vectors.
// Accumulation order is fixed, so identical inputs give identical output.
func Cosine(ctx context.Context, vectors []features.Vector) (*Matrix, error) {
	n := len(vectors)
	m := NewMatrix(n)

	postings := make(map[int][]posting)
	for doc, v := range vectors {
		for k, col := range v.Indices {
			postings[col] = append(postings[col], posting{doc: doc, weight: v.Values[k]})
		}
	}

	acc := make([]float64, n)
	for i, v := range vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clear(acc)
		for k, col := range v.Indices {
			w := v.Values[k]
			for _, p := range postings[col] {
				if p.doc > i {
					acc[p.doc] += w * p.weight
				}
			}
		}
		m.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			s := acc[j]
			if s > 1 {
				s = 1
			}
			m.Set(i, j, s)
			m.Set(j, i, s)
		}
	}
	return m, nil
}

type posting struct {
	doc    int
	weight float64
}
