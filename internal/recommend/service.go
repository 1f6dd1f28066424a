// Package recommend answers "movies like this one" from a loaded catalog and
// decorates results with posters and metadata from TMDb.
package recommend

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/metrics"
	"github.com/reelmatch/reelmatch/internal/storage"
	"github.com/reelmatch/reelmatch/internal/tmdb"
)

const (
	PlaceholderPoster  = "https://placehold.co/300x450/333/FFFFFF?text=No+Poster"
	UnknownTitle       = "Unknown"
	UnknownDescription = "Description not available."
	NotAvailable       = "N/A"

	DefaultTopK        = 5
	DefaultBrowseSize  = 50
	DefaultSearchLimit = 50
	DefaultConcurrency = 8
)

// ErrNotReady is returned by catalog lookups before Load succeeded.
var ErrNotReady = errors.New("recommender not ready: no catalog loaded")

// State of the service
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "READY"
	}
	return "UNINITIALIZED"
}

// MovieProvider looks up movies in an external database. *tmdb.Client
// satisfies it.
type MovieProvider interface {
	Movie(ctx context.Context, id int, withCredits bool) (*tmdb.Movie, error)
	PosterURL(posterPath string) string
}

// Options tunes the service; zero values select defaults.
type Options struct {
	TopK int
	// CaseInsensitive retries unmatched titles ignoring case and
	// surrounding whitespace.
	CaseInsensitive bool
	SearchLimit     int
	Concurrency     int
	Posters         *storage.PosterStore
	Rand            *rand.Rand
}

// snapshot is the immutable lookup state built by Load.
type snapshot struct {
	catalog *catalog.Catalog
	byTitle map[string]int
	byFold  map[string]int
	byID    map[int]int
}

// Service is safe for concurrent use. Lookups read an immutable snapshot
// that Load swaps atomically.
type Service struct {
	provider MovieProvider
	posters  *storage.PosterStore
	opts     Options

	current atomic.Pointer[snapshot]

	randMu sync.Mutex
	rng    *rand.Rand
}

func NewService(provider MovieProvider, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{
		provider: provider,
		posters:  opts.Posters,
		opts:     opts,
		rng:      rng,
	}
}

// Load validates c and makes it the catalog served by every later lookup.
func (s *Service) Load(c *catalog.Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}

	snap := &snapshot{
		catalog: c,
		byTitle: make(map[string]int, c.Len()),
		byFold:  make(map[string]int, c.Len()),
		byID:    make(map[int]int, c.Len()),
	}
	for i, r := range c.Records {
		if _, ok := snap.byTitle[r.Title]; !ok {
			snap.byTitle[r.Title] = i
		}
		fold := foldTitle(r.Title)
		if _, ok := snap.byFold[fold]; !ok {
			snap.byFold[fold] = i
		}
		if r.ExternalID > 0 {
			if _, ok := snap.byID[r.ExternalID]; !ok {
				snap.byID[r.ExternalID] = i
			}
		}
	}
	s.current.Store(snap)

	metrics.CatalogMovies.Set(float64(c.Len()))
	if c.IsSample() {
		metrics.CatalogDegraded.Set(1)
	} else {
		metrics.CatalogDegraded.Set(0)
	}
	slog.Info("Catalog loaded", "movies", c.Len(), "sample", c.IsSample())
	return nil
}

// State reports whether a catalog has been loaded.
func (s *Service) State() State {
	if s.current.Load() == nil {
		return StateUninitialized
	}
	return StateReady
}

// Catalog returns the loaded catalog, or nil before Load.
func (s *Service) Catalog() *catalog.Catalog {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.catalog
}

func (s *Service) snapshot() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

func foldTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
