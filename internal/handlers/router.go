package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelmatch/reelmatch/internal/metrics"
)

// RouterConfig tunes the HTTP surface
type RouterConfig struct {
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter wires the JSON API, health endpoints and /metrics.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", h.HandleHealthcheck)
	r.Get("/readyz", h.HandleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		r.Use(instrument)

		r.Get("/recommend", h.HandleRecommend)
		r.Get("/browse", h.HandleBrowse)
		r.Get("/search", h.HandleSearch)
		r.Get("/movies/{id}", h.HandleMovie)
		r.Get("/movies/{id}/poster", h.HandlePoster)
	})

	return r
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(route, r.Method, strconv.Itoa(status), time.Since(start))
	})
}
