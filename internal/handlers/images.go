package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tagview/internal/thumbs"

	"github.com/gorilla/mux"
)

// SortRequest selects the ordering of the visible list
type SortRequest struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// ListImages returns the visible list under the current filters and
// sort. ?all=1 returns the whole catalog in catalog order instead.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("all") == "1" {
		writeJSON(w, h.engine.AllImages())
		return
	}
	writeJSON(w, h.engine.VisibleImages())
}

// SetSort changes the visible list's ordering and returns the re-sorted
// rows
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.engine.SetSort(r.Context(), req.Key, req.Desc); err != nil {
		http.Error(w, "Invalid sort key", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.VisibleImages())
}

// GetImage serves the original image file
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := imageID(r)
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	path, ok := h.engine.ImagePath(id)
	if !ok {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	// ServeFile handles Content-Type, ranges, and files deleted since
	// the last scan.
	http.ServeFile(w, r, path)
}

// GetThumbnail serves a cached thumbnail, scheduling generation on the
// first request for an image
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := imageID(r)
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	result, ok := h.engine.ThumbnailFor(id)
	if !ok {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	switch result.State {
	case thumbs.StateReady:
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := w.Write(result.Data); err != nil {
			return
		}
	case thumbs.StateFailed:
		writeJSONError(w, result.Err, http.StatusBadGateway)
	default:
		// Pending: the client polls until a worker finishes.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"status": "pending"})
	}
}

// RetryThumbnail re-queues a failed thumbnail
func (h *Handlers) RetryThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := imageID(r)
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	if _, ok := h.engine.RetryThumbnail(id); !ok {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "pending"})
}

// imageID extracts the {id} route variable.
func imageID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
