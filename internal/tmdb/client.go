// Package tmdb is a small client for The Movie Database API, limited to the
// movie detail lookup the recommender needs for posters and metadata.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/reelmatch/reelmatch/internal/metrics"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultTimeout      = 5 * time.Second

	// statusResourceNotFound is the TMDb status_code for unknown ids.
	statusResourceNotFound = 34
)

var (
	// ErrNotFound means TMDb has no movie with the requested id.
	ErrNotFound = errors.New("tmdb: movie not found")
	// ErrUnavailable covers every other failure: network, timeout,
	// malformed payload, rate limiting and an open circuit.
	ErrUnavailable = errors.New("tmdb: unavailable")
)

// Config configures the client
type Config struct {
	BaseURL      string
	ImageBaseURL string
	APIKey       string
	Timeout      time.Duration

	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64
	Burst             int

	// FailureThreshold consecutive failures open the circuit for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Movie is the subset of the TMDb movie resource used by the recommender
type Movie struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Overview      string   `json:"overview"`
	PosterPath    string   `json:"poster_path"`
	ReleaseDate   string   `json:"release_date"`
	VoteAverage   *float64 `json:"vote_average"`
	Credits       *Credits `json:"credits,omitempty"`
	StatusCode    int      `json:"status_code,omitempty"`
	StatusMessage string   `json:"status_message,omitempty"`
	Success       *bool    `json:"success,omitempty"`
}

// Credits is appended to the movie when requested
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// CastMember is one billed actor
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// Client calls the TMDb API. A single attempt is made per call; failures
// are reported, never retried.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	timeout      time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	cb           *gobreaker.CircuitBreaker[*Movie]
}

// NewClient creates a new TMDb client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.APIKey == "" {
		slog.Warn("TMDb API key not configured, posters and details will use placeholders")
	}

	const cbName = "tmdb"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[*Movie](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// An unknown id is a valid answer, not a sign of an unhealthy API.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("TMDb circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:       cfg.APIKey,
		timeout:      cfg.Timeout,
		httpClient:   &http.Client{},
		limiter:      limiter,
		cb:           cb,
	}
}

// PosterURL turns a TMDb poster path into an absolute image URL. An empty
// path gives an empty URL.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	if !strings.HasPrefix(posterPath, "/") {
		posterPath = "/" + posterPath
	}
	return c.imageBaseURL + posterPath
}

// Movie fetches a movie by id, optionally with its credits. Errors wrap
// either ErrNotFound or ErrUnavailable.
func (c *Client) Movie(ctx context.Context, id int, withCredits bool) (*Movie, error) {
	if c.apiKey == "" {
		metrics.RecordProviderRequest("rejected", 0)
		return nil, fmt.Errorf("%w: api key not configured", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordProviderRequest("rejected", 0)
		return nil, fmt.Errorf("%w: rate limited: %v", ErrUnavailable, err)
	}

	start := time.Now()
	movie, err := c.cb.Execute(func() (*Movie, error) {
		return c.fetchMovie(ctx, id, withCredits)
	})
	duration := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordProviderRequest("success", duration)
		return movie, nil
	case errors.Is(err, ErrNotFound):
		metrics.RecordProviderRequest("not_found", duration)
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordProviderRequest("rejected", 0)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.RecordProviderRequest("failure", duration)
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *Client) fetchMovie(ctx context.Context, id int, withCredits bool) (*Movie, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	if withCredits {
		params.Set("append_to_response", "credits")
	}
	movieURL := fmt.Sprintf("%s/movie/%s?%s", c.baseURL, strconv.Itoa(id), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, movieURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch movie %d: %v", ErrUnavailable, id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(body), 200))
	}

	var movie Movie
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("%w: failed to decode movie %d: %v", ErrUnavailable, id, err)
	}
	if movie.StatusCode == statusResourceNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if movie.Success != nil && !*movie.Success {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, movie.StatusCode, movie.StatusMessage)
	}
	return &movie, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
