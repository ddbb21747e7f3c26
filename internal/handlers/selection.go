package handlers

import (
	"encoding/json"
	"net/http"

	"tagview/internal/selection"
)

// SelectionClickRequest represents a click on a position in the visible
// list. Modifier is "none", "toggle", or "range"; empty means none.
type SelectionClickRequest struct {
	Pos      int    `json:"pos"`
	Modifier string `json:"modifier,omitempty"`
}

// SelectionWheelRequest moves the current image by a wheel delta
type SelectionWheelRequest struct {
	Delta int `json:"delta"`
}

// ClickImage applies a click at a visible position
func (h *Handlers) ClickImage(w http.ResponseWriter, r *http.Request) {
	var req SelectionClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mod, ok := selection.ParseModifier(req.Modifier)
	if !ok {
		http.Error(w, "Invalid modifier, must be none, toggle, or range", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.ClickImage(req.Pos, mod))
}

// WheelImage steps the selection through the visible list
func (h *Handlers) WheelImage(w http.ResponseWriter, r *http.Request) {
	var req SelectionWheelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.WheelImage(req.Delta))
}

// GetSelection returns the current selection snapshot
func (h *Handlers) GetSelection(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.SelectionState())
}

// ClearSelection empties the selection
func (h *Handlers) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.engine.ClearSelection())
}
