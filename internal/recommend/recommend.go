package recommend

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/metrics"
)

// EnrichedMovie is a catalog record with its resolved poster. It is built
// per request and never stored.
type EnrichedMovie struct {
	Title       string   `json:"title"`
	MovieID     int      `json:"movie_id"`
	Year        *int     `json:"year,omitempty"`
	Rating      *float64 `json:"vote_average,omitempty"`
	Description string   `json:"description,omitempty"`
	Poster      string   `json:"poster"`
	Cast        []string `json:"cast,omitempty"`
	Score       float64  `json:"score,omitempty"`
}

// Recommend returns up to TopK movies most similar to the one titled title,
// best first, never including the movie itself. An unknown title gives an
// empty result.
func (s *Service) Recommend(ctx context.Context, title string) ([]EnrichedMovie, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	row, ok := snap.byTitle[title]
	if !ok && s.opts.CaseInsensitive {
		row, ok = snap.byFold[foldTitle(title)]
	}
	if !ok {
		metrics.Recommendations.WithLabelValues("unknown_title").Inc()
		slog.Debug("Title not in catalog", "title", title)
		return []EnrichedMovie{}, nil
	}
	return s.neighbors(ctx, snap, row), nil
}

// RecommendByID is Recommend keyed by external movie id. When several rows
// share the id the first one is used.
func (s *Service) RecommendByID(ctx context.Context, externalID int) ([]EnrichedMovie, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	row, ok := snap.byID[externalID]
	if !ok {
		metrics.Recommendations.WithLabelValues("unknown_id").Inc()
		return []EnrichedMovie{}, nil
	}
	return s.neighbors(ctx, snap, row), nil
}

func (s *Service) neighbors(ctx context.Context, snap *snapshot, row int) []EnrichedMovie {
	metrics.Recommendations.WithLabelValues("hit").Inc()

	hits := snap.catalog.Index().Neighbors(row, s.opts.TopK)

	records := make([]catalog.MovieRecord, len(hits))
	for i, h := range hits {
		records[i] = snap.catalog.Records[h.Index]
	}
	out := s.enrich(ctx, records)
	for i, h := range hits {
		out[i].Score = h.Score
	}
	return out
}

// Search returns catalog movies whose title contains query, ignoring case,
// in catalog order. A blank query matches nothing.
func (s *Service) Search(ctx context.Context, query string) ([]EnrichedMovie, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []EnrichedMovie{}, nil
	}

	var matches []catalog.MovieRecord
	for _, r := range snap.catalog.Records {
		if strings.Contains(strings.ToLower(r.Title), q) {
			matches = append(matches, r)
			if len(matches) == s.opts.SearchLimit {
				break
			}
		}
	}
	return s.enrich(ctx, matches), nil
}

// Browse returns n catalog movies drawn at random without replacement.
// n <= 0 selects DefaultBrowseSize; n is capped at the catalog size.
func (s *Service) Browse(ctx context.Context, n int) ([]EnrichedMovie, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultBrowseSize
	}
	if n > snap.catalog.Len() {
		n = snap.catalog.Len()
	}

	s.randMu.Lock()
	perm := s.rng.Perm(snap.catalog.Len())
	s.randMu.Unlock()

	records := make([]catalog.MovieRecord, n)
	for i := 0; i < n; i++ {
		records[i] = snap.catalog.Records[perm[i]]
	}
	return s.enrich(ctx, records), nil
}

// enrich resolves posters concurrently. Poster failures never fail the
// batch; they fall back to the placeholder.
func (s *Service) enrich(ctx context.Context, records []catalog.MovieRecord) []EnrichedMovie {
	out := make([]EnrichedMovie, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, r := range records {
		out[i] = EnrichedMovie{
			Title:       r.Title,
			MovieID:     r.ExternalID,
			Year:        r.Year,
			Rating:      r.Rating,
			Description: r.Description,
			Cast:        r.Cast,
		}
		g.Go(func() error {
			out[i].Poster = s.resolvePoster(gctx, r)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
