package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tagview/internal/engine"
	"tagview/internal/tagstore"
)

// TagClickRequest represents a click on a tag row. Button is "left" or
// "right"; empty means left. Untagged targets the pseudo-row instead of
// a named tag.
type TagClickRequest struct {
	Tag      string `json:"tag,omitempty"`
	Untagged bool   `json:"untagged,omitempty"`
	Button   string `json:"button,omitempty"`
}

// TagClickResponse carries the clicked tag's new state plus the
// refreshed rows, so one round trip repaints the whole panel.
type TagClickResponse struct {
	State string          `json:"state"`
	Tags  []engine.TagRow `json:"tags"`
}

// GetTags returns every tag row, the untagged pseudo-row first.
// Query params: sort=name|count, desc=1.
func (h *Handlers) GetTags(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "name"
	}
	if sortBy != "name" && sortBy != "count" {
		http.Error(w, "Invalid sort, must be name or count", http.StatusBadRequest)
		return
	}
	desc := r.URL.Query().Get("desc") == "1"

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.TagRows(sortBy, desc))
}

// ClickTag cycles a tag's filter state
func (h *Handlers) ClickTag(w http.ResponseWriter, r *http.Request) {
	var req TagClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !req.Untagged && req.Tag == "" {
		http.Error(w, "Tag is required", http.StatusBadRequest)
		return
	}

	button, ok := tagstore.ParseButton(req.Button)
	if !ok {
		http.Error(w, "Invalid button, must be left or right", http.StatusBadRequest)
		return
	}

	var state tagstore.FilterState
	if req.Untagged {
		state = h.engine.ClickUntagged(button)
	} else {
		var err error
		state, err = h.engine.ClickTag(req.Tag, button)
		if err != nil {
			if errors.Is(err, engine.ErrUnknownTag) {
				http.Error(w, "Unknown tag", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to apply click", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, TagClickResponse{
		State: state.String(),
		Tags:  h.engine.TagRows("name", false),
	})
}

// ClearFilters resets every tag filter to inactive
func (h *Handlers) ClearFilters(w http.ResponseWriter, _ *http.Request) {
	h.engine.ClearFilters()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.TagRows("name", false))
}
