package recommend

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/metrics"
	"github.com/reelmatch/reelmatch/internal/tmdb"
)

// Detail lookup outcomes
const (
	StatusOK          = "ok"
	StatusNotFound    = "not_found"
	StatusUnavailable = "unavailable"
)

// Details is the fail-soft detail view of one movie. Each field holds its
// sentinel when the provider could not supply it.
type Details struct {
	MovieID     int      `json:"movie_id"`
	Title       string   `json:"title"`
	Poster      string   `json:"poster"`
	Description string   `json:"description"`
	Year        string   `json:"year"`
	Rating      string   `json:"vote_average"`
	Cast        []string `json:"cast"`
	Status      string   `json:"status"`
}

func defaultDetails(externalID int) Details {
	return Details{
		MovieID:     externalID,
		Title:       UnknownTitle,
		Poster:      PlaceholderPoster,
		Description: UnknownDescription,
		Year:        NotAvailable,
		Rating:      NotAvailable,
		Cast:        []string{},
	}
}

// GetDetails fetches metadata and cast for a movie. It never fails: a
// missing id, an unknown movie and an unreachable provider all give the
// sentinel values, told apart only by Status.
func (s *Service) GetDetails(ctx context.Context, externalID int) Details {
	d := defaultDetails(externalID)
	if externalID <= 0 {
		d.Status = StatusNotFound
		return d
	}

	m, err := s.provider.Movie(ctx, externalID, true)
	if err != nil {
		d.Status = statusFor(err)
		slog.Warn("Movie details unavailable", "movie_id", externalID, "err", err)
		return d
	}

	d.Status = StatusOK
	if m.Title != "" {
		d.Title = m.Title
	}
	if m.Overview != "" {
		d.Description = m.Overview
	}
	if url := s.provider.PosterURL(m.PosterPath); url != "" {
		d.Poster = url
		if s.posters != nil {
			s.posters.Set(externalID, url)
		}
	}
	if len(m.ReleaseDate) >= 4 {
		d.Year = m.ReleaseDate[:4]
	}
	if m.VoteAverage != nil {
		d.Rating = strconv.FormatFloat(*m.VoteAverage, 'f', -1, 64)
	}
	if m.Credits != nil {
		for _, c := range m.Credits.Cast {
			if len(d.Cast) == 5 {
				break
			}
			d.Cast = append(d.Cast, c.Name)
		}
	}
	return d
}

func statusFor(err error) string {
	if errors.Is(err, tmdb.ErrNotFound) {
		return StatusNotFound
	}
	return StatusUnavailable
}

// FetchPoster returns the poster URL for an external id, or the placeholder.
// Ids <= 0 are answered without touching the cache or the network.
func (s *Service) FetchPoster(ctx context.Context, externalID int) string {
	if externalID <= 0 {
		return PlaceholderPoster
	}
	if snap := s.current.Load(); snap != nil {
		if row, ok := snap.byID[externalID]; ok {
			return s.resolvePoster(ctx, snap.catalog.Records[row])
		}
	}
	return s.resolvePoster(ctx, catalog.MovieRecord{ExternalID: externalID})
}

// resolvePoster prefers the poster path stored with the record, then the
// cache, then a single provider call. Failed calls are not cached.
func (s *Service) resolvePoster(ctx context.Context, r catalog.MovieRecord) string {
	if r.ExternalID <= 0 {
		return PlaceholderPoster
	}
	if r.PosterPath != "" {
		return s.provider.PosterURL(r.PosterPath)
	}
	if s.posters != nil {
		if url, ok := s.posters.Get(r.ExternalID); ok {
			return url
		}
	}

	m, err := s.provider.Movie(ctx, r.ExternalID, false)
	if err != nil {
		metrics.PosterFallbacks.Inc()
		slog.Debug("Poster lookup failed", "movie_id", r.ExternalID, "err", err)
		return PlaceholderPoster
	}

	url := s.provider.PosterURL(m.PosterPath)
	if url == "" {
		metrics.PosterFallbacks.Inc()
		url = PlaceholderPoster
	}
	if s.posters != nil {
		s.posters.Set(r.ExternalID, url)
	}
	return url
}

// MovieView is a detail page: the movie plus what to watch next.
type MovieView struct {
	Movie           Details         `json:"movie"`
	Recommendations []EnrichedMovie `json:"recommendations"`
}

// View assembles the detail page for an external id. Recommendations are
// keyed by id first and by the provider's title when the id is not in the
// catalog.
func (s *Service) View(ctx context.Context, externalID int) (*MovieView, error) {
	recs, err := s.RecommendByID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	details := s.GetDetails(ctx, externalID)
	if len(recs) == 0 && details.Status == StatusOK {
		recs, err = s.Recommend(ctx, details.Title)
		if err != nil {
			return nil, err
		}
	}
	return &MovieView{Movie: details, Recommendations: recs}, nil
}
