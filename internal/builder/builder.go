// Package builder runs the offline index build: raw tables in, a validated
// catalog with its similarity matrix out.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/dataset"
	"github.com/reelmatch/reelmatch/internal/features"
	"github.com/reelmatch/reelmatch/internal/similarity"
)

// Options configures a build
type Options struct {
	MoviesPath  string
	CreditsPath string
	// Vectorizer defaults to TF-IDF with the default vocabulary cap.
	Vectorizer features.Vectorizer
}

// Build loads the raw tables and computes the catalog. The result is not
// written to disk; see catalog.Save.
func Build(ctx context.Context, opts Options) (*catalog.Catalog, error) {
	loader := dataset.NewLoader(opts.MoviesPath, opts.CreditsPath)

	movies, err := loader.LoadMovies()
	if err != nil {
		return nil, fmt.Errorf("failed to load movies: %w", err)
	}
	credits, err := loader.LoadCredits()
	if err != nil {
		return nil, fmt.Errorf("failed to load credits: %w", err)
	}
	slog.Info("Loaded raw tables", "movies", len(movies), "credits", len(credits))

	c, err := FromRaw(ctx, movies, credits, opts.Vectorizer)
	if err != nil {
		return nil, err
	}
	c.Manifest.Sources = catalog.SourceInfo{Movies: opts.MoviesPath, Credits: opts.CreditsPath}
	return c, nil
}

// FromRaw merges in-memory tables and computes the catalog.
func FromRaw(ctx context.Context, movies []dataset.RawMovie, credits []dataset.RawCredit, vectorizer features.Vectorizer) (*catalog.Catalog, error) {
	if vectorizer == nil {
		vectorizer = features.NewTFIDF(features.DefaultMaxFeatures)
	}

	records, stats := dataset.Merge(movies, credits)

	docs := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.Description
	}

	start := time.Now()
	vectors, err := vectorizer.FitTransform(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize descriptions: %w", err)
	}
	slog.Info("Vectorized descriptions",
		"vectorizer", vectorizer.Name(),
		"documents", len(docs),
		"dimensions", vectorizer.Dimensions(),
		"duration", time.Since(start))

	start = time.Now()
	matrix, err := similarity.Cosine(ctx, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to compute similarity: %w", err)
	}
	slog.Info("Computed similarity matrix", "rows", matrix.Rows(), "duration", time.Since(start))

	c, err := catalog.New(records, matrix)
	if err != nil {
		return nil, err
	}

	manifest := catalog.NewManifest()
	manifest.Movies = len(records)
	manifest.InputRows = stats.InputRows
	manifest.DroppedDuplicates = stats.DroppedDuplicates
	manifest.DuplicateTitles = stats.DuplicateTitles
	manifest.EmptyDescriptions = stats.EmptyDescriptions
	manifest.Features = featureInfo(vectorizer)
	manifest.Summary = similarity.Summarize(matrix)
	c.Manifest = manifest

	return c, nil
}

func featureInfo(v features.Vectorizer) catalog.FeatureInfo {
	info := catalog.FeatureInfo{Vectorizer: v.Name(), Dimensions: v.Dimensions()}
	switch fv := v.(type) {
	case *features.TFIDF:
		info.MaxFeatures = fv.MaxFeatures
	case *features.Embedding:
		info.Model = fv.Model()
	}
	return info
}
