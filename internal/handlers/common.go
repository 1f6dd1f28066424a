package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reelmatch/reelmatch/internal/recommend"
)

type Handler struct {
	service    *recommend.Service
	browseSize int
}

func New(service *recommend.Service, browseSize int) *Handler {
	if browseSize <= 0 {
		browseSize = recommend.DefaultBrowseSize
	}
	return &Handler{
		service:    service,
		browseSize: browseSize,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// writeServiceError maps service errors onto HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, recommend.ErrNotReady) {
		h.writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.writeError(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
}

func (h *Handler) intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, "Invalid "+name+": "+raw, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
