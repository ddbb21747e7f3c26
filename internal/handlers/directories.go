package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"tagview/internal/database"
	"tagview/internal/engine"
	"tagview/internal/indexer"
	"tagview/internal/logging"
)

// DirectoryRequest names a watched root by absolute path
type DirectoryRequest struct {
	Path string `json:"path"`
}

// DirectoryRemoveResponse reports how many images left the catalog with
// the root
type DirectoryRemoveResponse struct {
	Status  string `json:"status"`
	Removed int64  `json:"removed"`
}

// GetDirectories lists the watched roots
func (h *Handlers) GetDirectories(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.engine.Directories(r.Context())
	if err != nil {
		http.Error(w, "Failed to get directories", http.StatusInternalServerError)
		return
	}

	if dirs == nil {
		dirs = []database.Directory{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, dirs)
}

// AddDirectory registers a watched root and scans it before returning.
// Re-adding a watched root just rescans it.
func (h *Handlers) AddDirectory(w http.ResponseWriter, r *http.Request) {
	var req DirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Path == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.AddDirectory(r.Context(), req.Path); err != nil {
		switch {
		case errors.Is(err, engine.ErrNotADirectory):
			http.Error(w, "Path is not a directory", http.StatusBadRequest)
		case errors.Is(err, fs.ErrNotExist):
			http.Error(w, "Directory does not exist", http.StatusBadRequest)
		default:
			logging.Error("Failed to add directory %s: %v", req.Path, err)
			http.Error(w, "Failed to add directory", http.StatusInternalServerError)
		}
		return
	}

	writeJSONStatus(w, "ok")
}

// RemoveDirectory unregisters a watched root and drops its images
func (h *Handlers) RemoveDirectory(w http.ResponseWriter, r *http.Request) {
	var req DirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Path == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	removed, err := h.engine.RemoveDirectory(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, database.ErrDirectoryNotFound) {
			http.Error(w, "Directory not watched", http.StatusNotFound)
			return
		}
		logging.Error("Failed to remove directory %s: %v", req.Path, err)
		http.Error(w, "Failed to remove directory", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, DirectoryRemoveResponse{
		Status:  "ok",
		Removed: removed,
	})
}

// TriggerRescan starts a full rescan of every watched root
func (h *Handlers) TriggerRescan(w http.ResponseWriter, _ *http.Request) {
	if err := h.indexer.StartRescan(); err != nil {
		if errors.Is(err, indexer.ErrScanRunning) {
			http.Error(w, "Scan already running", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to start rescan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "started"})
}
