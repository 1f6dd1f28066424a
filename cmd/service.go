package cmd

import (
	"log/slog"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/config"
	"github.com/reelmatch/reelmatch/internal/recommend"
	"github.com/reelmatch/reelmatch/internal/storage"
	"github.com/reelmatch/reelmatch/internal/tmdb"
)

// newService wires the TMDb client and poster cache into a recommender and
// loads the catalog, falling back to the built-in sample when the catalog
// directory cannot be loaded.
func newService(cfg *config.Config) (*recommend.Service, error) {
	client := tmdb.NewClient(tmdb.Config{
		BaseURL:           cfg.TMDb.BaseURL,
		ImageBaseURL:      cfg.TMDb.ImageBaseURL,
		APIKey:            cfg.TMDb.APIKey,
		Timeout:           cfg.TMDb.Timeout,
		RequestsPerSecond: cfg.TMDb.RequestsPerSecond,
		Burst:             cfg.TMDb.Burst,
		FailureThreshold:  cfg.TMDb.FailureThreshold,
		OpenTimeout:       cfg.TMDb.OpenTimeout,
	})

	svc := recommend.NewService(client, recommend.Options{
		TopK:            cfg.Recommend.TopK,
		CaseInsensitive: cfg.Recommend.CaseInsensitive,
		SearchLimit:     cfg.Recommend.SearchLimit,
		Concurrency:     cfg.Recommend.Concurrency,
		Posters:         storage.New(cfg.Cache.PosterCapacity, cfg.Cache.PosterTTL),
	})

	c, err := catalog.LoadOrSample(cfg.Data.CatalogDir)
	if err != nil {
		slog.Warn("Serving built-in sample catalog", "dir", cfg.Data.CatalogDir, "movies", c.Len())
	}
	if err := svc.Load(c); err != nil {
		return nil, err
	}
	return svc, nil
}
