// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmatch_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Recommendations
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_recommendations_total",
			Help: "Total number of recommendation lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "unknown_title"
	)

	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmatch_catalog_movies",
			Help: "Number of movies in the loaded catalog",
		},
	)

	CatalogDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmatch_catalog_degraded",
			Help: "1 when the built-in sample catalog is served instead of the built one",
		},
	)

	// TMDb provider
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_provider_requests_total",
			Help: "Total number of movie database requests by outcome",
		},
		[]string{"outcome"}, // "success", "not_found", "failure", "rejected"
	)

	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelmatch_provider_request_duration_seconds",
			Help:    "Duration of movie database requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Poster cache
	PosterCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmatch_poster_cache_hits_total",
			Help: "Total number of poster cache hits",
		},
	)

	PosterCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmatch_poster_cache_misses_total",
			Help: "Total number of poster cache misses",
		},
	)

	PosterFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmatch_poster_fallbacks_total",
			Help: "Total number of posters answered with the placeholder image",
		},
	)
)

// RecordAPIRequest records one served API request
func RecordAPIRequest(route, method, status string, duration time.Duration) {
	APIRequests.WithLabelValues(route, method, status).Inc()
	APIRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordProviderRequest records one movie database call
func RecordProviderRequest(outcome string, duration time.Duration) {
	ProviderRequests.WithLabelValues(outcome).Inc()
	if duration > 0 {
		ProviderRequestDuration.Observe(duration.Seconds())
	}
}
