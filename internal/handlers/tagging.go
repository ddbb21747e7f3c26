package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tagview/internal/engine"
	"tagview/internal/tagging"
)

// ToggleTagRequest toggles one tag across the whole selection
type ToggleTagRequest struct {
	Tag string `json:"tag"`
}

// ToggleTagResponse reports the aggregate state after the toggle:
// "all" when every selected image now bears the tag, "none" when it
// was removed everywhere.
type ToggleTagResponse struct {
	Tag    string `json:"tag"`
	Result string `json:"result"`
}

// TagChangesRequest applies tag additions and removals to the selection
// in one transaction
type TagChangesRequest struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// ToggleSelectionTag adds a tag to every selected image, or removes it
// from all of them when all already bear it
func (h *Handlers) ToggleSelectionTag(w http.ResponseWriter, r *http.Request) {
	var req ToggleTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Tag == "" {
		http.Error(w, "Tag is required", http.StatusBadRequest)
		return
	}

	agg, err := h.engine.ToggleTagForSelection(r.Context(), req.Tag)
	if err != nil {
		if errors.Is(err, engine.ErrEmptySelection) {
			http.Error(w, "Selection is empty", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to toggle tag", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ToggleTagResponse{
		Tag:    req.Tag,
		Result: agg.String(),
	})
}

// ApplySelectionTags applies a batch of tag changes to the selection
func (h *Handlers) ApplySelectionTags(w http.ResponseWriter, r *http.Request) {
	var req TagChangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	changes := tagging.Changes{Add: req.Add, Remove: req.Remove}
	if changes.Empty() {
		http.Error(w, "Add or remove is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.ApplySelectionTagChanges(r.Context(), changes); err != nil {
		if errors.Is(err, engine.ErrEmptySelection) {
			http.Error(w, "Selection is empty", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to apply tag changes", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// SuggestTags returns completion candidates for the tag input.
// Query params: q (prefix match wins over substring), limit (default 10).
func (h *Handlers) SuggestTags(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	suggestions := h.engine.SuggestTags(query, limit)
	if suggestions == nil {
		suggestions = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, suggestions)
}
