package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tagview/internal/database"
	"tagview/internal/logging"
	"tagview/internal/metrics"
)

const (
	// Number of upserts per batch transaction
	batchSize = 500

	// Delay between batches to let interactive queries through
	batchDelay = 10 * time.Millisecond

	// Default polling interval for change detection
	defaultPollInterval = 30 * time.Second
)

// ErrScanRunning is returned when a full scan is requested while one is
// already in progress.
var ErrScanRunning = errors.New("scan already running")

// errScanStopped aborts a walk when the indexer is shutting down. It
// marks the scan failed so the prune pass does not run on partial
// results.
var errScanStopped = errors.New("scan stopped")

// Indexer keeps the database in step with the files under the watched
// roots.
type Indexer struct {
	db           *database.Database
	scanInterval time.Duration
	pollInterval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	running   bool
	lastScan  time.Time
	startedAt time.Time

	filesSeen atomic.Int64

	walkerConfig WalkerConfig

	// Callback when a full scan completes; the engine reloads here.
	onScanComplete func()

	// Last known per-root state for lightweight change detection
	stateMu    sync.RWMutex
	rootStates map[string]rootState
}

// rootState captures the cheap-to-read signals the change poll compares.
type rootState struct {
	modTime        time.Time
	topLevelCount  int
	subdirModTimes map[string]time.Time
}

// Progress reports the state of the current or last scan.
type Progress struct {
	Running   bool      `json:"running"`
	FilesSeen int64     `json:"filesSeen"`
	StartedAt time.Time `json:"startedAt,omitempty"`
	LastScan  time.Time `json:"lastScan,omitempty"`
}

// New creates an indexer. scanInterval is the periodic full-rescan cadence.
func New(db *database.Database, scanInterval time.Duration) *Indexer {
	return &Indexer{
		db:           db,
		scanInterval: scanInterval,
		pollInterval: defaultPollInterval,
		stopChan:     make(chan struct{}),
		walkerConfig: DefaultWalkerConfig(),
		rootStates:   make(map[string]rootState),
	}
}

// SetPollInterval sets the interval for polling-based change detection.
func (idx *Indexer) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		idx.pollInterval = interval
	}
}

// SetWalkerConfig overrides the parallel walker configuration.
func (idx *Indexer) SetWalkerConfig(config WalkerConfig) {
	idx.walkerConfig = config
}

// SetOnScanComplete registers a callback invoked after every completed
// full scan.
func (idx *Indexer) SetOnScanComplete(callback func()) {
	idx.onScanComplete = callback
}

// Start launches the initial scan, the change-detection poll, and the
// periodic full rescan.
func (idx *Indexer) Start() {
	go func() {
		logging.Info("Starting initial scan in background...")
		if err := idx.Rescan(context.Background()); err != nil && !errors.Is(err, ErrScanRunning) {
			logging.Error("Initial scan error: %v", err)
		}
	}()

	go idx.pollForChanges()

	if idx.scanInterval > 0 {
		go idx.periodicRescan()
	}
}

// Stop halts the background loops and interrupts a walk in progress.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		close(idx.stopChan)
	})
}

// IsRunning reports whether a full scan is in flight.
func (idx *Indexer) IsRunning() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.running
}

// LastScanTime returns when the last full scan completed.
func (idx *Indexer) LastScanTime() time.Time {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.lastScan
}

// GetProgress reports scan progress for the status endpoint.
func (idx *Indexer) GetProgress() Progress {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	p := Progress{
		Running:   idx.running,
		FilesSeen: idx.filesSeen.Load(),
		LastScan:  idx.lastScan,
	}
	if idx.running {
		p.StartedAt = idx.startedAt
	}
	return p
}

// StartRescan launches a full scan in the background. It returns
// ErrScanRunning when one is already in progress.
func (idx *Indexer) StartRescan() error {
	if !idx.tryStart() {
		return ErrScanRunning
	}
	go func() {
		defer idx.finish()
		if err := idx.rescan(context.Background()); err != nil {
			logging.Error("Rescan failed: %v", err)
		}
	}()
	return nil
}

// Rescan runs a full scan synchronously: every watched root is walked,
// found images are upserted, and rows for vanished files are pruned.
func (idx *Indexer) Rescan(ctx context.Context) error {
	if !idx.tryStart() {
		return ErrScanRunning
	}
	defer idx.finish()
	return idx.rescan(ctx)
}

func (idx *Indexer) tryStart() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.running {
		return false
	}
	idx.running = true
	idx.startedAt = time.Now()
	idx.filesSeen.Store(0)
	return true
}

func (idx *Indexer) finish() {
	idx.mu.Lock()
	idx.running = false
	idx.lastScan = time.Now()
	idx.mu.Unlock()
}

// rescan is the full pass body; the caller owns the running flag.
func (idx *Indexer) rescan(ctx context.Context) error {
	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)
	metrics.ScanRunsTotal.Inc()

	start := time.Now()
	logging.Info("Starting catalog scan...")

	dirs, err := idx.db.GetDirectories(ctx)
	if err != nil {
		metrics.ScanErrors.Inc()
		return fmt.Errorf("loading watched roots: %w", err)
	}

	known, err := idx.knownFiles(ctx)
	if err != nil {
		metrics.ScanErrors.Inc()
		return err
	}

	var processed, skipped int64
	walkFailed := false
	for _, dir := range dirs {
		p, s, err := idx.walkRoot(ctx, dir, known)
		if err != nil {
			logging.Error("Scan of %s failed: %v", dir.Path, err)
			metrics.ScanErrors.Inc()
			walkFailed = true
			continue
		}
		processed += p
		skipped += s
	}

	// Prune only when every root was walked; a failed walk would look
	// like a mass deletion.
	if !walkFailed {
		if err := idx.pruneMissing(start); err != nil {
			logging.Error("Pruning missing files failed: %v", err)
			metrics.ScanErrors.Inc()
		}
	} else {
		logging.Warn("Skipping prune: at least one root failed to walk")
	}

	idx.updateRootStates(dirs, true)

	if err := idx.db.SetLastScanTime(ctx, time.Now()); err != nil {
		logging.Warn("Failed to persist last scan time: %v", err)
	}

	duration := time.Since(start)
	metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.ScanLastRunDuration.Set(duration.Seconds())
	metrics.ScanFilesProcessed.Add(float64(processed))
	metrics.ScanFilesSkipped.Add(float64(skipped))

	logging.Info("Scan complete: %d files (%d unchanged) across %d roots in %v",
		processed+skipped, skipped, len(dirs), duration)

	if idx.onScanComplete != nil {
		idx.onScanComplete()
	}
	return nil
}

// ScanRoot walks a single watched root and prunes its vanished files.
// Used by the engine when a directory is added through the API; it does
// not touch other roots and does not fire the scan-complete callback.
func (idx *Indexer) ScanRoot(ctx context.Context, dir database.Directory) error {
	known, err := idx.knownFiles(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	if _, _, err := idx.walkRoot(ctx, dir, known); err != nil {
		metrics.ScanErrors.Inc()
		return err
	}

	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("starting prune transaction: %w", err)
	}
	pruned, err := idx.db.PruneDirectoryImages(tx, dir.ID, start)
	if endErr := idx.db.EndBatch(tx, err); endErr != nil {
		return fmt.Errorf("pruning %s: %w", dir.Path, endErr)
	}
	if pruned > 0 {
		metrics.ScanFilesPruned.Add(float64(pruned))
		logging.Info("Pruned %d vanished files under %s", pruned, dir.Path)
	}

	idx.updateRootStates([]database.Directory{dir}, false)
	return nil
}

// knownFiles loads the current catalog as path -> (size, mtime) so the
// walk can tell changed files from unchanged ones.
func (idx *Indexer) knownFiles(ctx context.Context) (map[string]fileStamp, error) {
	images, err := idx.db.GetImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading known files: %w", err)
	}
	known := make(map[string]fileStamp, len(images))
	for _, img := range images {
		known[img.Path] = fileStamp{size: img.Size, modUnix: img.ModTime.Unix()}
	}
	return known, nil
}

// fileStamp compares at whole-second granularity because that is what
// the database stores for mod_time.
type fileStamp struct {
	size    int64
	modUnix int64
}

// walkRoot walks one root and upserts everything found, in batches.
// Returns (changed-or-new, unchanged) counts.
func (idx *Indexer) walkRoot(ctx context.Context, dir database.Directory, known map[string]fileStamp) (int64, int64, error) {
	walker := NewWalker(dir, idx.walkerConfig)

	go func() {
		select {
		case <-idx.stopChan:
			walker.Stop()
		case <-ctx.Done():
			walker.Stop()
		case <-walker.ctx.Done():
		}
	}()

	files, err := walker.Walk()
	if err != nil {
		return 0, 0, fmt.Errorf("walking %s: %w", dir.Path, err)
	}

	// A truncated walk means the stop signal fired mid-traversal. It has
	// to surface as an error here: pruning against a partial file list
	// would delete rows for files that were never visited.
	select {
	case <-idx.stopChan:
		return 0, 0, errScanStopped
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	default:
	}

	var processed, skipped int64
	for start := 0; start < len(files); start += batchSize {
		select {
		case <-idx.stopChan:
			return processed, skipped, errScanStopped
		case <-ctx.Done():
			return processed, skipped, ctx.Err()
		default:
		}

		end := start + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		if err := idx.upsertBatch(batch); err != nil {
			logging.Error("Error writing batch under %s: %v", dir.Path, err)
			metrics.ScanErrors.Inc()
		}

		for i := range batch {
			if stamp, ok := known[batch[i].Path]; ok &&
				stamp.size == batch[i].Size && stamp.modUnix == batch[i].ModTime.Unix() {
				skipped++
			} else {
				processed++
			}
		}
		idx.filesSeen.Add(int64(len(batch)))

		if end < len(files) {
			time.Sleep(batchDelay)
		}
	}

	return processed, skipped, nil
}

// upsertBatch writes one batch of images in a single transaction. Every
// upsert refreshes last_seen, unchanged files included; pruning depends
// on it.
func (idx *Indexer) upsertBatch(files []database.Image) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	for i := range files {
		if err := idx.db.UpsertImage(tx, &files[i]); err != nil {
			logging.Warn("Error upserting %s: %v", files[i].Path, err)
		}
	}

	if err := idx.db.EndBatch(tx, nil); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// pruneMissing removes rows whose files were not seen by this scan.
func (idx *Indexer) pruneMissing(cutoff time.Time) error {
	tx, err := idx.db.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin prune transaction: %w", err)
	}

	pruned, err := idx.db.PruneImages(tx, cutoff)
	if endErr := idx.db.EndBatch(tx, err); endErr != nil {
		return endErr
	}

	if pruned > 0 {
		metrics.ScanFilesPruned.Add(float64(pruned))
		logging.Info("Removed %d missing files from the catalog", pruned)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Change detection
// ---------------------------------------------------------------------------

// pollForChanges periodically checks each root for cheap change signals.
func (idx *Indexer) pollForChanges() {
	logging.Info("Starting change detection polling (interval: %v)", idx.pollInterval)

	ticker := time.NewTicker(idx.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if idx.IsRunning() {
				continue
			}
			changed, err := idx.detectChanges()
			if err != nil {
				logging.Error("Error detecting changes: %v", err)
				continue
			}
			if changed {
				logging.Info("File changes detected, triggering rescan")
				if err := idx.Rescan(context.Background()); err != nil && !errors.Is(err, ErrScanRunning) {
					logging.Error("Rescan after change detection failed: %v", err)
				}
			}
		case <-idx.stopChan:
			logging.Info("Change detection polling stopped")
			return
		}
	}
}

// detectChanges compares each root against its last recorded state. It
// reads only the root and its immediate children, never the whole tree.
func (idx *Indexer) detectChanges() (bool, error) {
	start := time.Now()
	defer func() {
		metrics.ScanPollDuration.Observe(time.Since(start).Seconds())
		metrics.ScanPollChecksTotal.Inc()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dirs, err := idx.db.GetDirectories(ctx)
	if err != nil {
		return false, fmt.Errorf("loading watched roots: %w", err)
	}

	idx.stateMu.RLock()
	states := idx.rootStates
	idx.stateMu.RUnlock()

	for _, dir := range dirs {
		last, seen := states[dir.Path]
		if !seen {
			logging.Debug("New watched root detected: %s", dir.Path)
			metrics.ScanPollChangesDetected.Inc()
			return true, nil
		}
		if rootChanged(dir.Path, last) {
			metrics.ScanPollChangesDetected.Inc()
			return true, nil
		}
	}

	return false, nil
}

// rootChanged checks one root's mtime, top-level entry count, and
// subdirectory mtimes against the recorded state.
func rootChanged(root string, last rootState) bool {
	info, err := os.Stat(root)
	if err != nil {
		// An unreachable root is the scan's problem, not the poll's.
		logging.Warn("Failed to stat watched root %s: %v", root, err)
		return false
	}
	if info.ModTime().After(last.modTime) {
		logging.Debug("Root %s modified: %v > %v", root, info.ModTime(), last.modTime)
		return true
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		logging.Warn("Failed to read watched root %s: %v", root, err)
		return false
	}

	topLevelCount := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			topLevelCount++
		}
	}
	if topLevelCount != last.topLevelCount {
		logging.Debug("Top-level count under %s changed: %d -> %d",
			root, last.topLevelCount, topLevelCount)
		return true
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(root, entry.Name()))
		if err != nil {
			continue
		}
		lastMod, exists := last.subdirModTimes[entry.Name()]
		if !exists {
			logging.Debug("New subdirectory under %s: %s", root, entry.Name())
			return true
		}
		if info.ModTime().After(lastMod) {
			logging.Debug("Subdirectory %s/%s modified", root, entry.Name())
			return true
		}
	}

	return false
}

// updateRootStates re-records the change-detection baseline. replaceAll
// also forgets roots no longer watched; single-root scans merge instead.
// A root whose state cannot be read gets a zero baseline: quiet while
// unreachable, rescanned as soon as it stats again. The map is swapped,
// never mutated, so poll readers can hold a reference outside the lock.
func (idx *Indexer) updateRootStates(dirs []database.Directory, replaceAll bool) {
	fresh := make(map[string]rootState, len(dirs))
	for _, dir := range dirs {
		state, err := captureRootState(dir.Path)
		if err != nil {
			logging.Warn("Failed to record state for %s: %v", dir.Path, err)
			state = rootState{}
		}
		fresh[dir.Path] = state
	}

	idx.stateMu.Lock()
	if !replaceAll {
		for path, state := range idx.rootStates {
			if _, ok := fresh[path]; !ok {
				fresh[path] = state
			}
		}
	}
	idx.rootStates = fresh
	idx.stateMu.Unlock()
}

func captureRootState(root string) (rootState, error) {
	info, err := os.Stat(root)
	if err != nil {
		return rootState{}, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return rootState{}, err
	}

	state := rootState{
		modTime:        info.ModTime(),
		subdirModTimes: make(map[string]time.Time),
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		state.topLevelCount++
		if entry.IsDir() {
			if sub, err := os.Stat(filepath.Join(root, entry.Name())); err == nil {
				state.subdirModTimes[entry.Name()] = sub.ModTime()
			}
		}
	}
	return state, nil
}

func (idx *Indexer) periodicRescan() {
	ticker := time.NewTicker(idx.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic rescan triggered")
			if err := idx.Rescan(context.Background()); err != nil && !errors.Is(err, ErrScanRunning) {
				logging.Error("Periodic rescan failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}
