// Package features turns movie descriptions into weighted term vectors.
package features

import (
	"context"
	"math"
)

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether the vector has no non-zero weight.
func (v Vector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Norm returns the euclidean length of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize scales v to unit length in place. Zero vectors are left untouched.
func (v Vector) Normalize() {
	n := v.Norm()
	if n == 0 {
		return
	}
	for i := range v.Values {
		v.Values[i] /= n
	}
}

// Dense converts a dense slice into a Vector, dropping exact zeros.
func Dense(values []float32) Vector {
	v := Vector{}
	for i, x := range values {
		if x == 0 {
			continue
		}
		v.Indices = append(v.Indices, i)
		v.Values = append(v.Values, float64(x))
	}
	return v
}

// Vectorizer fits a feature space over a corpus and returns one
// L2-normalized vector per document, aligned with docs.
type Vectorizer interface {
	FitTransform(ctx context.Context, docs []string) ([]Vector, error)
	// Dimensions returns the size of the fitted feature space.
	Dimensions() int
	Name() string
}
