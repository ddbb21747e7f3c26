package handlers

import (
	"net/http"
	"time"

	"tagview/internal/engine"
	"tagview/internal/indexer"
	"tagview/internal/startup"
	"tagview/internal/thumbs"
)

// SortState reports the active sort of the visible list.
type SortState struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// StatusResponse is the one-call summary a client polls: catalog and
// view counts, scan progress, thumbnail cache occupancy, and whether
// requests must carry a session.
type StatusResponse struct {
	Version      string           `json:"version"`
	Uptime       string           `json:"uptime"`
	Counts       engine.Counts    `json:"counts"`
	Sort         SortState        `json:"sort"`
	Scan         indexer.Progress `json:"scan"`
	Thumbs       thumbs.Stats     `json:"thumbs"`
	AuthRequired bool             `json:"authRequired"`
}

// GetStatus returns counts, scan progress, and uptime
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	key, desc := h.engine.Sort()

	response := StatusResponse{
		Version:      startup.Version,
		Uptime:       h.engine.Uptime().Round(time.Second).String(),
		Counts:       h.engine.Counts(),
		Sort:         SortState{Key: string(key), Desc: desc},
		Scan:         h.indexer.GetProgress(),
		Thumbs:       h.engine.ThumbStats(),
		AuthRequired: h.authEnabled && h.db.HasPassword(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
