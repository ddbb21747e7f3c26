package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tagview/internal/logging"
)

// UpsertImage inserts or updates an image record within a transaction.
// The row's id is stable across upserts for the same path, so selection
// identity survives rescans. Width/height are reset when the content
// changed (size or mod_time differ) so the dimension probe runs again.
func (d *Database) UpsertImage(tx *sql.Tx, img *Image) error {
	done := observeQuery("upsert_image")

	query := `
	INSERT INTO images (path, directory_id, name, size, mod_time, last_seen)
	VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		directory_id = excluded.directory_id,
		name = excluded.name,
		size = excluded.size,
		mod_time = excluded.mod_time,
		last_seen = strftime('%s', 'now'),
		width = CASE
			WHEN images.size != excluded.size OR images.mod_time != excluded.mod_time
			THEN 0
			ELSE images.width
		END,
		height = CASE
			WHEN images.size != excluded.size OR images.mod_time != excluded.mod_time
			THEN 0
			ELSE images.height
		END
	`

	// Use background context since we're within a transaction.
	// The transaction itself controls the operation's lifecycle.
	_, err := tx.ExecContext(context.Background(), query,
		img.Path,
		img.DirectoryID,
		img.Name,
		img.Size,
		img.ModTime.Unix(),
	)
	done(err)
	return err
}

// PruneImages removes images that weren't seen during a scan.
// Must be called within a transaction.
func (d *Database) PruneImages(tx *sql.Tx, cutoff time.Time) (int64, error) {
	done := observeQuery("prune_images")

	result, err := tx.ExecContext(context.Background(),
		"DELETE FROM images WHERE last_seen < ?",
		cutoff.Unix(),
	)
	if err != nil {
		done(err)
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	done(err)
	return rowsAffected, err
}

// PruneDirectoryImages removes images under a single root that weren't
// seen during its scan, leaving other roots untouched. Must be called
// within a transaction.
func (d *Database) PruneDirectoryImages(tx *sql.Tx, dirID int64, cutoff time.Time) (int64, error) {
	done := observeQuery("prune_directory_images")

	result, err := tx.ExecContext(context.Background(),
		"DELETE FROM images WHERE directory_id = ? AND last_seen < ?",
		dirID, cutoff.Unix(),
	)
	if err != nil {
		done(err)
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	done(err)
	return rowsAffected, err
}

// PruneOutsideRoots removes images whose path no longer falls under any
// watched root. Cascade deletes normally cover this; it exists for the
// nested-roots case and for databases whose roots changed while the
// process was down.
func (d *Database) PruneOutsideRoots(ctx context.Context) (int64, error) {
	done := observeQuery("prune_outside_roots")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT path FROM directories")
	if err != nil {
		done(err)
		return 0, err
	}

	var roots []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err == nil {
			roots = append(roots, p)
		}
	}
	if err := rows.Close(); err != nil {
		logging.Error("error closing rows: %v", err)
	}

	if len(roots) == 0 {
		// No roots means nothing should remain
		result, err := d.db.ExecContext(ctx, "DELETE FROM images")
		if err != nil {
			done(err)
			return 0, err
		}
		n, err := result.RowsAffected()
		done(err)
		return n, err
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM images WHERE ")
	args := make([]interface{}, 0, len(roots))
	for i, root := range roots {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString("path NOT LIKE ? || '%'")
		args = append(args, strings.TrimRight(root, "/")+"/")
	}

	result, err := d.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		done(err)
		return 0, err
	}

	n, err := result.RowsAffected()
	if n > 0 {
		logging.Info("Pruned %d images outside watched roots", n)
	}
	done(err)
	return n, err
}

// GetImages returns all images in canonical catalog order: watched-root
// sequence first, then path within each root.
func (d *Database) GetImages(ctx context.Context) ([]Image, error) {
	done := observeQuery("get_images")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT i.id, i.path, i.directory_id, i.name, i.size, i.mod_time, i.width, i.height
		FROM images i
		INNER JOIN directories d ON i.directory_id = d.id
		ORDER BY d.seq, i.path
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

	var images []Image
	for rows.Next() {
		var img Image
		var modTime int64

		if err := rows.Scan(
			&img.ID, &img.Path, &img.DirectoryID, &img.Name,
			&img.Size, &modTime, &img.Width, &img.Height,
		); err != nil {
			done(err)
			return nil, err
		}

		img.ModTime = time.Unix(modTime, 0)
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return images, nil
}

// GetImage retrieves a single image by id.
func (d *Database) GetImage(ctx context.Context, id int64) (*Image, error) {
	done := observeQuery("get_image")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var img Image
	var modTime int64

	err := d.db.QueryRowContext(ctx, `
		SELECT id, path, directory_id, name, size, mod_time, width, height
		FROM images WHERE id = ?
	`, id).Scan(
		&img.ID, &img.Path, &img.DirectoryID, &img.Name,
		&img.Size, &modTime, &img.Width, &img.Height,
	)
	if err != nil {
		done(err)
		return nil, err
	}

	img.ModTime = time.Unix(modTime, 0)
	done(nil)
	return &img, nil
}

// SetImageDimensions records probed pixel dimensions for an image.
// Called from the thumbnail pipeline, which learns them as a side
// effect of decoding.
func (d *Database) SetImageDimensions(ctx context.Context, id int64, width, height int) error {
	done := observeQuery("set_image_dimensions")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"UPDATE images SET width = ?, height = ? WHERE id = ?",
		width, height, id,
	)
	done(err)
	return err
}
