package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tagview/internal/database"
	"tagview/internal/logging"
	"tagview/internal/mediatypes"
)

// WalkerConfig configures the parallel root walker.
type WalkerConfig struct {
	// NumWorkers is the number of stat workers.
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
}

// DefaultWalkerConfig returns defaults sized for network mounts: enough
// workers to overlap stat latency without hammering an NFS server.
// SCAN_WORKERS overrides the worker count.
func DefaultWalkerConfig() WalkerConfig {
	numWorkers := 3
	if override := os.Getenv("SCAN_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}

	return WalkerConfig{
		NumWorkers:    numWorkers,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// fileJob is one image file entry awaiting its stat.
type fileJob struct {
	path  string
	entry fs.DirEntry
}

// Walker traverses a single watched root. The tree walk itself is
// sequential; stat calls run on a worker pool, which is where the time
// goes on network filesystems.
type Walker struct {
	config WalkerConfig
	dir    database.Directory

	jobs    chan fileJob
	results chan database.Image

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	filesFound    atomic.Int64
	foldersWalked atomic.Int64
	errorsCount   atomic.Int64
}

// NewWalker creates a walker over one watched root.
func NewWalker(dir database.Directory, config WalkerConfig) *Walker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Walker{
		config:  config,
		dir:     dir,
		jobs:    make(chan fileJob, config.ChannelBuffer),
		results: make(chan database.Image, config.ChannelBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Walk returns every indexable image under the root, ready for batch
// insertion. Result order is not deterministic; the database orders on
// read.
func (w *Walker) Walk() ([]database.Image, error) {
	defer w.cancel()

	start := time.Now()
	logging.Debug("Walking %s with %d workers", w.dir.Path, w.config.NumWorkers)

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.worker()
	}

	var images []database.Image
	var collectorWg sync.WaitGroup

	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for img := range w.results {
			images = append(images, img)
		}
	}()

	err := w.walkAndEnqueue()

	close(w.jobs)
	w.wg.Wait()
	close(w.results)
	collectorWg.Wait()

	logging.Debug("Walk of %s complete: %d files, %d folders in %v (errors: %d)",
		w.dir.Path,
		w.filesFound.Load(),
		w.foldersWalked.Load(),
		time.Since(start),
		w.errorsCount.Load())

	return images, err
}

// walkAndEnqueue walks the tree and feeds image entries to the workers.
func (w *Walker) walkAndEnqueue() error {
	return filepath.WalkDir(w.dir.Path, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-w.ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			if path == w.dir.Path {
				// An unreadable root aborts the walk; an unmounted
				// share must not read as an empty tree.
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			w.errorsCount.Add(1)
			return nil // continue walking
		}

		if w.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != w.dir.Path {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			w.foldersWalked.Add(1)
			return nil
		}

		if !mediatypes.IsImage(strings.ToLower(filepath.Ext(d.Name()))) {
			return nil
		}

		select {
		case w.jobs <- fileJob{path: path, entry: d}:
		case <-w.ctx.Done():
			return fs.SkipAll
		}

		return nil
	})
}

// worker stats queued entries and emits image rows.
func (w *Walker) worker() {
	defer w.wg.Done()

	for job := range w.jobs {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		info, err := job.entry.Info()
		if err != nil {
			// File vanished between the walk and the stat; skip it.
			logging.Debug("Error getting info for %s: %v", job.path, err)
			w.errorsCount.Add(1)
			continue
		}

		w.filesFound.Add(1)

		img := database.Image{
			Path:        job.path,
			DirectoryID: w.dir.ID,
			Name:        info.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
		}

		select {
		case w.results <- img:
		case <-w.ctx.Done():
			return
		}
	}
}

// Stop cancels the walk.
func (w *Walker) Stop() {
	w.cancel()
}

// Stats returns current walk counters.
func (w *Walker) Stats() (files, folders, errors int64) {
	return w.filesFound.Load(), w.foldersWalked.Load(), w.errorsCount.Load()
}
