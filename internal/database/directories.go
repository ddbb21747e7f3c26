package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tagview/internal/logging"
)

// ErrDirectoryExists is returned when adding a root that is already watched.
var ErrDirectoryExists = errors.New("directory already watched")

// ErrDirectoryNotFound is returned when removing a root that isn't watched.
var ErrDirectoryNotFound = errors.New("directory not watched")

// AddDirectory registers a new watched root. Seq is assigned after the
// highest existing value so enumeration order follows add order.
func (d *Database) AddDirectory(ctx context.Context, path string) (*Directory, error) {
	done := observeQuery("add_directory")

	path = strings.TrimSpace(path)
	if path == "" {
		err := errors.New("directory path cannot be empty")
		done(err)
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var existingID int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id FROM directories WHERE path = ?",
		path,
	).Scan(&existingID)
	if err == nil {
		done(ErrDirectoryExists)
		return nil, ErrDirectoryExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		done(err)
		return nil, err
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO directories (path, seq)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM directories))
	`, path)
	if err != nil {
		err = fmt.Errorf("failed to add directory: %w", err)
		done(err)
		return nil, err
	}

	id, _ := result.LastInsertId()

	var seq int
	var addedAt int64
	if err := d.db.QueryRowContext(ctx,
		"SELECT seq, added_at FROM directories WHERE id = ?", id,
	).Scan(&seq, &addedAt); err != nil {
		done(err)
		return nil, err
	}

	logging.Info("Added watched directory: %s (seq %d)", path, seq)
	done(nil)
	return &Directory{
		ID:      id,
		Path:    path,
		Seq:     seq,
		AddedAt: time.Unix(addedAt, 0),
	}, nil
}

// RemoveDirectory unregisters a watched root. Images that also fall
// under another remaining root are re-homed to it (longest prefix
// wins); the rest are removed by the foreign-key cascade. Returns the
// number of images dropped from the catalog.
func (d *Database) RemoveDirectory(ctx context.Context, path string) (int64, error) {
	done := observeQuery("remove_directory")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return 0, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	var removedID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM directories WHERE path = ?",
		path,
	).Scan(&removedID)
	if errors.Is(err, sql.ErrNoRows) {
		done(ErrDirectoryNotFound)
		return 0, ErrDirectoryNotFound
	}
	if err != nil {
		done(err)
		return 0, err
	}

	// Collect remaining roots, longest path first so the most specific
	// root claims images under nested roots.
	rows, err := tx.QueryContext(ctx,
		"SELECT id, path FROM directories WHERE id != ?",
		removedID,
	)
	if err != nil {
		done(err)
		return 0, err
	}

	type root struct {
		id   int64
		path string
	}
	var remaining []root
	for rows.Next() {
		var r root
		if err := rows.Scan(&r.id, &r.path); err == nil {
			remaining = append(remaining, r)
		}
	}
	if err := rows.Close(); err != nil {
		logging.Error("error closing rows: %v", err)
	}

	sort.Slice(remaining, func(i, j int) bool {
		return len(remaining[i].path) > len(remaining[j].path)
	})

	for _, r := range remaining {
		prefix := strings.TrimRight(r.path, "/") + "/"
		_, err = tx.ExecContext(ctx, `
			UPDATE images SET directory_id = ?
			WHERE directory_id = ? AND path LIKE ? || '%'
		`, r.id, removedID, prefix)
		if err != nil {
			done(err)
			return 0, err
		}
	}

	var dropped int64
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM images WHERE directory_id = ?",
		removedID,
	).Scan(&dropped)
	if err != nil {
		done(err)
		return 0, err
	}

	// Cascade removes the remaining images and their tag assignments
	_, err = tx.ExecContext(ctx, "DELETE FROM directories WHERE id = ?", removedID)
	if err != nil {
		done(err)
		return 0, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		done(commitErr)
		return 0, commitErr
	}
	committed = true

	logging.Info("Removed watched directory: %s (%d images dropped)", path, dropped)
	done(nil)
	return dropped, nil
}

// GetDirectories returns all watched roots in add order.
func (d *Database) GetDirectories(ctx context.Context) ([]Directory, error) {
	done := observeQuery("get_directories")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, seq, added_at
		FROM directories
		ORDER BY seq
	`)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var dirs []Directory
	for rows.Next() {
		var dir Directory
		var addedAt int64

		if err := rows.Scan(&dir.ID, &dir.Path, &dir.Seq, &addedAt); err != nil {
			done(err)
			return nil, err
		}

		dir.AddedAt = time.Unix(addedAt, 0)
		dirs = append(dirs, dir)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return dirs, nil
}
