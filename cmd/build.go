package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelmatch/reelmatch/internal/builder"
	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/config"
	"github.com/reelmatch/reelmatch/internal/features"
	"github.com/reelmatch/reelmatch/internal/gemini"
	"github.com/reelmatch/reelmatch/internal/ollama"
	"github.com/reelmatch/reelmatch/internal/openai"
	"github.com/reelmatch/reelmatch/internal/providers"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		moviesPath  string
		creditsPath string
		outDir      string
		vectorizer  string
		maxFeatures int
		model       string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the similarity catalog from the raw movie tables",
		Long: `Reads the movies and credits tables (CSV, JSONL or Parquet), joins them on
title, drops duplicate titles, vectorizes every description and writes the
movie table, the N x N similarity matrix and a manifest to the catalog directory.

Rebuilding from identical inputs produces an identical matrix.`,
		Example: `  # Build from the TMDb 5000 dataset in the working directory
  reelmatch build

  # Build from explicit files into a custom directory
  reelmatch build --movies data/movies.csv --credits data/credits.csv --out artifacts

  # Use dense embeddings from a local Ollama server instead of TF-IDF
  reelmatch build --features ollama --model nomic-embed-text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			applyString(cmd, "movies", &cfg.Data.MoviesPath, moviesPath)
			applyString(cmd, "credits", &cfg.Data.CreditsPath, creditsPath)
			applyString(cmd, "out", &cfg.Data.CatalogDir, outDir)
			applyString(cmd, "features", &cfg.Features.Vectorizer, vectorizer)
			applyString(cmd, "model", &cfg.Features.Model, model)
			if cmd.Flags().Changed("max-features") {
				cfg.Features.MaxFeatures = maxFeatures
			}

			vec, err := newVectorizer(cfg.Features)
			if err != nil {
				return err
			}

			start := time.Now()
			c, err := builder.Build(cmd.Context(), builder.Options{
				MoviesPath:  cfg.Data.MoviesPath,
				CreditsPath: cfg.Data.CreditsPath,
				Vectorizer:  vec,
			})
			if err != nil {
				return err
			}
			if err := catalog.Save(cfg.Data.CatalogDir, c); err != nil {
				return err
			}
			slog.Info("Build complete", "dir", cfg.Data.CatalogDir, "duration", time.Since(start))

			printBuildSummary(cmd, c.Manifest)
			return nil
		},
	}

	cmd.Flags().StringVar(&moviesPath, "movies", "", "Movies table (.csv, .jsonl or .parquet)")
	cmd.Flags().StringVar(&creditsPath, "credits", "", "Credits table (.csv, .jsonl or .parquet)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Catalog output directory")
	cmd.Flags().StringVar(&vectorizer, "features", "", "Vectorizer: tfidf, ollama, openai or gemini")
	cmd.Flags().IntVar(&maxFeatures, "max-features", 0, "TF-IDF vocabulary cap")
	cmd.Flags().StringVar(&model, "model", "", "Embedding model for provider vectorizers")

	return cmd
}

func applyString(cmd *cobra.Command, flag string, dst *string, value string) {
	if cmd.Flags().Changed(flag) {
		*dst = value
	}
}

func newVectorizer(cfg config.FeaturesConfig) (features.Vectorizer, error) {
	pc := providers.Config{Model: cfg.Model, BatchSize: cfg.BatchSize}
	switch cfg.Vectorizer {
	case "", "tfidf":
		return features.NewTFIDF(cfg.MaxFeatures), nil
	case "ollama":
		return features.NewEmbedding("ollama", ollama.New(), pc), nil
	case "openai":
		return features.NewEmbedding("openai", openai.New(), pc), nil
	case "gemini":
		return features.NewEmbedding("gemini", gemini.New(), pc), nil
	default:
		return nil, fmt.Errorf("unsupported vectorizer: %s", cfg.Vectorizer)
	}
}

func printBuildSummary(cmd *cobra.Command, m *catalog.Manifest) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Build %s\n", m.BuildID)
	fmt.Fprintf(out, "  Input rows:          %d\n", m.InputRows)
	fmt.Fprintf(out, "  Movies:              %d\n", m.Movies)
	fmt.Fprintf(out, "  Dropped duplicates:  %d\n", m.DroppedDuplicates)
	fmt.Fprintf(out, "  Empty descriptions:  %d\n", m.EmptyDescriptions)
	fmt.Fprintf(out, "  Vectorizer:          %s (%d dimensions)\n", m.Features.Vectorizer, m.Features.Dimensions)
	fmt.Fprintf(out, "  Best neighbor score: mean %.3f, median %.3f\n", m.Summary.MeanBestScore, m.Summary.MedianBestScore)
	fmt.Fprintf(out, "  Isolated movies:     %d\n", m.Summary.IsolatedRows)
}
