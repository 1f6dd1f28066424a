// Package catalog pairs the movie table with its similarity matrix and
// persists both as build artifacts.
package catalog

import (
	"errors"
	"fmt"

	"github.com/reelmatch/reelmatch/internal/similarity"
)

var (
	// ErrShapeMismatch means the movie table and matrix disagree on size.
	ErrShapeMismatch = errors.New("catalog shape mismatch")
	// ErrChecksumMismatch means a persisted matrix failed integrity checks.
	ErrChecksumMismatch = errors.New("catalog checksum mismatch")
)

// MovieRecord is one row of the catalog. Its position in Catalog.Records is
// its row in the similarity matrix.
type MovieRecord struct {
	Title       string   `json:"title" parquet:"title"`
	ExternalID  int      `json:"movie_id" parquet:"movie_id"` // 0 means no external record
	Year        *int     `json:"year,omitempty" parquet:"year,optional"`
	Rating      *float64 `json:"vote_average,omitempty" parquet:"vote_average,optional"`
	Description string   `json:"description" parquet:"description"`
	PosterPath  string   `json:"poster_path,omitempty" parquet:"poster_path"`
	Cast        []string `json:"cast,omitempty" parquet:"cast,list"`
}

// Catalog is immutable once constructed.
type Catalog struct {
	Records  []MovieRecord
	Matrix   *similarity.Matrix
	Manifest *Manifest
}

// New validates the pairing of records and matrix.
func New(records []MovieRecord, matrix *similarity.Matrix) (*Catalog, error) {
	c := &Catalog{Records: records, Matrix: matrix}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks len(records) == rows == cols.
func (c *Catalog) Validate() error {
	if c.Matrix == nil {
		return fmt.Errorf("%w: missing similarity matrix", ErrShapeMismatch)
	}
	if len(c.Records) != c.Matrix.Rows() || c.Matrix.Rows() != c.Matrix.Cols() {
		return fmt.Errorf("%w: %d records, matrix %dx%d",
			ErrShapeMismatch, len(c.Records), c.Matrix.Rows(), c.Matrix.Cols())
	}
	return nil
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.Records) }

// Index returns the neighbor lookup backing the catalog.
func (c *Catalog) Index() similarity.Index { return c.Matrix }
