package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type moviesResponse struct {
	Query  string      `json:"query,omitempty"`
	Count  int         `json:"count"`
	Movies interface{} `json:"movies"`
}

type posterResponse struct {
	MovieID int    `json:"movie_id"`
	Poster  string `json:"poster"`
}

// HandleRecommend serves GET /api/recommend?title=
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		h.writeError(w, "Missing title parameter", http.StatusBadRequest)
		return
	}

	movies, err := h.service.Recommend(r.Context(), title)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, moviesResponse{Query: title, Count: len(movies), Movies: movies})
}

// HandleMovie serves GET /api/movies/{id}: details plus recommendations
func (h *Handler) HandleMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, chi.URLParam(r, "id"), "movie id")
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, view)
}

// HandlePoster serves GET /api/movies/{id}/poster
func (h *Handler) HandlePoster(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, chi.URLParam(r, "id"), "movie id")
	if !ok {
		return
	}
	h.writeJSON(w, posterResponse{MovieID: id, Poster: h.service.FetchPoster(r.Context(), id)})
}

// HandleBrowse serves GET /api/browse?n=
func (h *Handler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	n := h.browseSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, ok := h.intParam(w, raw, "n")
		if !ok {
			return
		}
		n = v
	}

	movies, err := h.service.Browse(r.Context(), n)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, moviesResponse{Count: len(movies), Movies: movies})
}

// HandleSearch serves GET /api/search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	movies, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, moviesResponse{Query: query, Count: len(movies), Movies: movies})
}
