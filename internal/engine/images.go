package engine

import (
	"context"
	"sort"
	"time"

	"tagview/internal/catalog"
	"tagview/internal/logging"
	"tagview/internal/thumbs"
)

// ImageRow is one image in a listing response.
type ImageRow struct {
	ID         int64     `json:"id"`
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"modTime"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Tags       []string  `json:"tags"`
	Selected   bool      `json:"selected"`
	Current    bool      `json:"current,omitempty"`
	ThumbState string    `json:"thumbState"`
}

// VisibleImages lists the current view: filtered, sorted, with selection
// flags baked in.
func (e *Engine) VisibleImages() []ImageRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rowsLocked(e.visible)
}

// AllImages lists the entire catalog in catalog order, ignoring filters.
func (e *Engine) AllImages() []ImageRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rowsLocked(e.cat.Images())
}

func (e *Engine) rowsLocked(images []*catalog.Image) []ImageRow {
	current, hasCurrent := e.sel.Current()
	rows := make([]ImageRow, len(images))
	for i, img := range images {
		tags := img.TagNames()
		sort.Strings(tags)
		rows[i] = ImageRow{
			ID:      img.ID,
			Path:    img.Path,
			Name:    img.Name,
			Size:    img.Size,
			ModTime: img.ModTime,
			Width:   img.Width,
			Height:  img.Height,
			Tags:    tags,
			// State peeks without scheduling; listings must not flood
			// the decode queue.
			ThumbState: e.cache.State(img.Path).String(),
			Selected:   e.sel.IsSelected(img.ID),
			Current:    hasCurrent && img.ID == current,
		}
	}
	return rows
}

// ImagePath resolves an image id to its absolute path for serving the
// original bytes. The bool is false when the id is unknown.
func (e *Engine) ImagePath(id int64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	img, ok := e.cat.Get(id)
	if !ok {
		return "", false
	}
	return img.Path, true
}

// ThumbnailFor returns the cached thumbnail for an image, scheduling
// generation on first request. The bool is false when the id is unknown.
func (e *Engine) ThumbnailFor(id int64) (thumbs.Result, bool) {
	e.mu.Lock()
	img, ok := e.cat.Get(id)
	if !ok {
		e.mu.Unlock()
		return thumbs.Result{}, false
	}
	path := img.Path
	e.mu.Unlock()

	// Request can block briefly on a full queue; never hold the engine
	// lock across it.
	return e.cache.Request(path), true
}

// RetryThumbnail re-queues a failed thumbnail. Images the cache has already
// dropped are simply requested again.
func (e *Engine) RetryThumbnail(id int64) (thumbs.Result, bool) {
	e.mu.Lock()
	img, ok := e.cat.Get(id)
	if !ok {
		e.mu.Unlock()
		return thumbs.Result{}, false
	}
	path := img.Path
	e.mu.Unlock()

	res := e.cache.Retry(path)
	if res.State == thumbs.StateUnknown {
		res = e.cache.Request(path)
	}
	return res, true
}

// ThumbStats exposes cache occupancy for the status endpoint.
func (e *Engine) ThumbStats() thumbs.Stats {
	return e.cache.Stats()
}

// onThumbnailDone records the source dimensions a worker discovered while
// rendering. Runs on the worker goroutine with no cache lock held.
func (e *Engine) onThumbnailDone(path string, width, height int) {
	e.mu.Lock()
	img, ok := e.cat.GetByPath(path)
	if !ok {
		e.mu.Unlock()
		return
	}
	id := img.ID
	changed := e.cat.SetDimensions(id, width, height)
	e.mu.Unlock()

	if !changed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.db.SetImageDimensions(ctx, id, width, height); err != nil {
		logging.Warn("Failed to persist dimensions for image %d: %v", id, err)
	}
}
