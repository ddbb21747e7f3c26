package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"tagview/internal/database"
	"tagview/internal/filesystem"
	"tagview/internal/logging"
)

// ErrNotADirectory is returned when a watched-root path points at a file.
var ErrNotADirectory = errors.New("not a directory")

// Directories lists the watched roots in add order.
func (e *Engine) Directories(ctx context.Context) ([]database.Directory, error) {
	return e.db.GetDirectories(ctx)
}

// AddDirectory registers a watched root, scans it, and reloads the catalog.
// Adding a root that is already watched just rescans it.
func (e *Engine) AddDirectory(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("directory path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("directory path must be absolute: %s", path)
	}
	path = filepath.Clean(path)

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}

	dir, err := e.db.AddDirectory(ctx, path)
	if errors.Is(err, database.ErrDirectoryExists) {
		dir, err = e.findDirectory(ctx, path)
	}
	if err != nil {
		return err
	}

	// Scan outside the engine lock; a large root can take a while. A scan
	// failure leaves the root registered for the next indexer pass.
	e.scanRoot(ctx, *dir)
	return e.Reload(ctx)
}

// RemoveDirectory unregisters a watched root and reloads the catalog.
// Returns the number of images dropped.
func (e *Engine) RemoveDirectory(ctx context.Context, path string) (int64, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		path = filepath.Clean(path)
	}
	dropped, err := e.db.RemoveDirectory(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := e.Reload(ctx); err != nil {
		return dropped, err
	}
	return dropped, nil
}

func (e *Engine) scanRoot(ctx context.Context, dir database.Directory) {
	e.mu.Lock()
	s := e.scanner
	e.mu.Unlock()
	if s == nil {
		return
	}
	if err := s.ScanRoot(ctx, dir); err != nil {
		logging.Error("Scan of %s failed: %v", dir.Path, err)
	}
}

func (e *Engine) findDirectory(ctx context.Context, path string) (*database.Directory, error) {
	dirs, err := e.db.GetDirectories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range dirs {
		if dirs[i].Path == path {
			return &dirs[i], nil
		}
	}
	return nil, database.ErrDirectoryNotFound
}
