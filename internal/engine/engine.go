package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tagview/internal/catalog"
	"tagview/internal/database"
	"tagview/internal/logging"
	"tagview/internal/metrics"
	"tagview/internal/selection"
	"tagview/internal/tagstore"
	"tagview/internal/thumbs"
	"tagview/internal/view"
)

// Scanner walks a directory root and writes what it finds to the database.
// The indexer satisfies this; the engine only needs to kick off a scan when
// a root is added through the API.
type Scanner interface {
	ScanRoot(ctx context.Context, dir database.Directory) error
}

// Config carries the engine's dependencies and tunables.
type Config struct {
	DB *database.Database

	// ThumbCapacity bounds the completed-thumbnail cache. Zero means
	// thumbs.DefaultCapacity.
	ThumbCapacity int

	// ThumbWorkers sets the thumbnail worker pool size. Zero picks a
	// default from the CPU count.
	ThumbWorkers int

	// ThumbDir, when set, persists generated thumbnails on disk so
	// restarts and evictions do not force fresh decodes.
	ThumbDir string

	// Generate renders a thumbnail for an image path. Supplied by the
	// media package; tests inject their own.
	Generate thumbs.Generator
}

// Engine is the single coordination point for catalog, filter, view,
// selection, and thumbnail state. One mutex guards all of it; the state is
// small and every operation is quick, so finer locking buys nothing.
type Engine struct {
	mu sync.Mutex

	db    *database.Database
	cat   *catalog.Catalog
	store *tagstore.Store
	sel   *selection.Model
	cache *thumbs.Cache

	// visible is the current filtered, sorted view over the catalog.
	visible  []*catalog.Image
	sortKey  view.SortKey
	sortDesc bool

	// knownTags holds every canonical tag name the database knows,
	// including tags with zero assignments. Sorted case-insensitively.
	knownTags []string

	dirCount int

	scanner Scanner

	startedAt time.Time
}

// New builds an engine around an open database. Call Load before serving.
func New(cfg Config) *Engine {
	e := &Engine{
		db:        cfg.DB,
		cat:       catalog.New(),
		store:     tagstore.New(),
		sel:       selection.New(),
		sortKey:   view.SortByPath,
		startedAt: time.Now(),
	}
	e.cache = thumbs.New(thumbs.Config{
		Capacity:   cfg.ThumbCapacity,
		Workers:    cfg.ThumbWorkers,
		Generate:   cfg.Generate,
		OnComplete: e.onThumbnailDone,
		DiskDir:    cfg.ThumbDir,
	})
	return e
}

// SetScanner wires in the indexer after construction. The indexer needs the
// engine for its completion callback, so the two are connected in main.
func (e *Engine) SetScanner(s Scanner) {
	e.mu.Lock()
	e.scanner = s
	e.mu.Unlock()
}

// Stop shuts down the thumbnail workers. The database is closed by the
// caller that opened it.
func (e *Engine) Stop() {
	e.cache.Stop()
}

// Load populates the engine from the database: images with their tag
// assignments, the known tag list, and the persisted sort preference.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if key, err := e.db.GetSetting(ctx, database.SettingSortKey); err == nil && key != "" {
		if parsed, ok := view.ParseSortKey(key); ok {
			e.sortKey = parsed
		}
	}
	if desc, err := e.db.GetSetting(ctx, database.SettingSortDesc); err == nil {
		e.sortDesc = desc == "1"
	}

	if err := e.reloadLocked(ctx); err != nil {
		return err
	}
	logging.Info("Engine loaded: %d images, %d directories, %d tags",
		e.cat.Len(), e.dirCount, len(e.knownTags))
	return nil
}

// Reload re-reads the catalog from the database. The indexer calls this
// after every scan; directory mutations call it through their own paths.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reloadLocked(ctx)
}

func (e *Engine) reloadLocked(ctx context.Context) error {
	rows, err := e.db.GetImages(ctx)
	if err != nil {
		return fmt.Errorf("loading images: %w", err)
	}
	assignments, err := e.db.GetAssignments(ctx)
	if err != nil {
		return fmt.Errorf("loading tag assignments: %w", err)
	}
	dirs, err := e.db.GetDirectories(ctx)
	if err != nil {
		return fmt.Errorf("loading directories: %w", err)
	}

	tagsByImage := make(map[int64]map[string]bool)
	for _, a := range assignments {
		set := tagsByImage[a.ImageID]
		if set == nil {
			set = make(map[string]bool)
			tagsByImage[a.ImageID] = set
		}
		set[a.Tag] = true
	}

	images := make([]catalog.Image, len(rows))
	for i, r := range rows {
		images[i] = catalog.Image{
			ID:          r.ID,
			Path:        r.Path,
			DirectoryID: r.DirectoryID,
			Name:        r.Name,
			Size:        r.Size,
			ModTime:     r.ModTime,
			Width:       r.Width,
			Height:      r.Height,
			Tags:        tagsByImage[r.ID],
		}
	}

	stale := e.cat.Replace(images)
	for _, path := range stale {
		e.cache.Invalidate(path)
	}
	if len(stale) > 0 {
		logging.Debug("Invalidated %d stale thumbnails after reload", len(stale))
	}

	e.dirCount = len(dirs)
	if err := e.refreshTagsLocked(ctx); err != nil {
		return err
	}
	e.recomputeLocked()
	return nil
}

// recomputeLocked rebuilds the visible view from the catalog and remaps the
// selection onto it. Every mutation that can change visibility ends here.
func (e *Engine) recomputeLocked() {
	start := time.Now()
	e.visible = view.Compute(e.cat.Images(), e.store.Snapshot(), e.sortKey, e.sortDesc)
	e.sel.Remap(e.visibleIDsLocked())

	metrics.ViewRecomputesTotal.Inc()
	metrics.ViewRecomputeDuration.Observe(time.Since(start).Seconds())
	metrics.ViewVisibleImages.Set(float64(len(e.visible)))
	metrics.SelectionSize.Set(float64(e.sel.Count()))
	metrics.CatalogImages.Set(float64(e.cat.Len()))
	metrics.CatalogDirectories.Set(float64(e.dirCount))
	metrics.CatalogUntaggedImages.Set(float64(e.cat.UntaggedCount()))
	metrics.TagsTotal.Set(float64(len(e.knownTags)))
	metrics.TagAssignments.Set(float64(e.cat.AssignmentCount()))
}

func (e *Engine) visibleIDsLocked() []int64 {
	ids := make([]int64, len(e.visible))
	for i, img := range e.visible {
		ids[i] = img.ID
	}
	return ids
}

// Counts summarizes the view for status endpoints.
type Counts struct {
	Total    int `json:"total"`
	Visible  int `json:"visible"`
	Selected int `json:"selected"`
	Untagged int `json:"untagged"`
	Tags     int `json:"tags"`
	Filters  int `json:"activeFilters"`
}

// Counts reports catalog and view totals.
func (e *Engine) Counts() Counts {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Counts{
		Total:    e.cat.Len(),
		Visible:  len(e.visible),
		Selected: e.sel.Count(),
		Untagged: e.cat.UntaggedCount(),
		Tags:     len(e.knownTags),
		Filters:  e.store.ActiveCount(),
	}
}

// GetStats satisfies metrics.StatsProvider for the background collector.
func (e *Engine) GetStats() metrics.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return metrics.Stats{
		Images:      e.cat.Len(),
		Directories: e.dirCount,
		Tags:        len(e.knownTags),
		Assignments: e.cat.AssignmentCount(),
		Untagged:    e.cat.UntaggedCount(),
	}
}

// Uptime reports how long the engine has been running.
func (e *Engine) Uptime() time.Duration {
	return time.Since(e.startedAt)
}
