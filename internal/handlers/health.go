package handlers

import (
	"log/slog"
	"net/http"

	"github.com/reelmatch/reelmatch/internal/recommend"
)

type readyResponse struct {
	State    string `json:"state"`
	Movies   int    `json:"movies"`
	Degraded bool   `json:"degraded"`
	BuildID  string `json:"build_id,omitempty"`
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// HandleReady reports 503 until a catalog is loaded
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	state := h.service.State()
	resp := readyResponse{State: state.String()}
	if c := h.service.Catalog(); c != nil {
		resp.Movies = c.Len()
		resp.Degraded = c.IsSample()
		if c.Manifest != nil {
			resp.BuildID = c.Manifest.BuildID
		}
	}
	if state != recommend.StateReady {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	h.writeJSON(w, resp)
}
