package engine

import (
	"tagview/internal/catalog"
	"tagview/internal/metrics"
	"tagview/internal/selection"
	"tagview/internal/tagging"
)

// SelectionSnapshot describes the selection for API responses: the selected
// ids in view order, the current image if any, and the aggregate state of
// every tag borne by at least one selected image.
type SelectionSnapshot struct {
	IDs     []int64           `json:"ids"`
	Count   int               `json:"count"`
	Current *int64            `json:"current,omitempty"`
	Tags    map[string]string `json:"tags"`
}

// ClickImage applies a click at a position in the visible view.
// Out-of-range positions leave the selection untouched.
func (e *Engine) ClickImage(pos int, mod selection.Modifier) SelectionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.Click(e.visibleIDsLocked(), pos, mod)
	metrics.SelectionSize.Set(float64(e.sel.Count()))
	return e.selectionSnapshotLocked()
}

// WheelImage steps the current image through the visible view, wrapping at
// both ends, and collapses the selection to that single image.
func (e *Engine) WheelImage(delta int) SelectionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.Wheel(e.visibleIDsLocked(), delta)
	metrics.SelectionSize.Set(float64(e.sel.Count()))
	return e.selectionSnapshotLocked()
}

// SelectionState reports the selection without changing it.
func (e *Engine) SelectionState() SelectionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectionSnapshotLocked()
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() SelectionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.Clear()
	metrics.SelectionSize.Set(0)
	return e.selectionSnapshotLocked()
}

func (e *Engine) selectionSnapshotLocked() SelectionSnapshot {
	snap := SelectionSnapshot{
		IDs:  e.sel.Selected(e.visibleIDsLocked()),
		Tags: make(map[string]string),
	}
	snap.Count = len(snap.IDs)
	if id, ok := e.sel.Current(); ok {
		snap.Current = &id
	}
	for tag, agg := range tagging.Aggregates(e.selectedImagesLocked()) {
		snap.Tags[tag] = agg.String()
	}
	return snap
}

// selectedImagesLocked resolves the selected ids to catalog images in view
// order.
func (e *Engine) selectedImagesLocked() []*catalog.Image {
	ids := e.sel.Selected(e.visibleIDsLocked())
	images := make([]*catalog.Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := e.cat.Get(id); ok {
			images = append(images, img)
		}
	}
	return images
}
