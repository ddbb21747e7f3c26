package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tagview/internal/logging"
)

// GetOrCreateTag gets an existing tag or creates a new one.
// Lookup is case-insensitive; an existing tag keeps its original casing.
func (d *Database) GetOrCreateTag(ctx context.Context, name string) (*Tag, error) {
	done := observeQuery("get_or_create_tag")

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Try to get existing tag
	var tag Tag
	var createdAt int64

	err := d.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM tags WHERE name = ? COLLATE NOCASE",
		name,
	).Scan(&tag.ID, &tag.Name, &createdAt)

	if err == nil {
		tag.CreatedAt = time.Unix(createdAt, 0)
		done(nil)
		return &tag, nil
	}

	// Create new tag
	result, err := d.db.ExecContext(ctx,
		"INSERT INTO tags (name) VALUES (?)",
		name,
	)
	if err != nil {
		err = fmt.Errorf("failed to create tag: %w", err)
		done(err)
		return nil, err
	}

	tag.ID, _ = result.LastInsertId()
	tag.Name = name
	tag.CreatedAt = time.Now()

	done(nil)
	return &tag, nil
}

// getOrCreateTagTx resolves a tag name to its id inside a transaction,
// creating the tag if needed.
func getOrCreateTagTx(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var tagID int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE",
		name,
	).Scan(&tagID)
	if err == nil {
		return tagID, nil
	}

	result, err := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}
	return result.LastInsertId()
}

// AddImageTag assigns a tag to an image, creating the tag if needed.
// Assigning an already-present tag is a no-op.
func (d *Database) AddImageTag(ctx context.Context, imageID int64, tagName string) error {
	done := observeQuery("add_image_tag")

	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Get or create tag within the same lock
	var tagID int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE",
		tagName,
	).Scan(&tagID)

	if err != nil {
		result, createErr := d.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", tagName)
		if createErr != nil {
			err = fmt.Errorf("failed to create tag: %w", createErr)
			done(err)
			return err
		}
		tagID, _ = result.LastInsertId()
	}

	_, err = d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO image_tags (image_id, tag_id) VALUES (?, ?)",
		imageID, tagID,
	)
	done(err)
	return err
}

// RemoveImageTag removes a tag from an image. Removing an absent tag is
// a no-op.
func (d *Database) RemoveImageTag(ctx context.Context, imageID int64, tagName string) error {
	done := observeQuery("remove_image_tag")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		DELETE FROM image_tags
		WHERE image_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ? COLLATE NOCASE)
	`, imageID, tagName)

	done(err)
	return err
}

// SetImageTags replaces the full tag set on each given image.
func (d *Database) SetImageTags(ctx context.Context, imageIDs []int64, tagNames []string) error {
	done := observeQuery("set_image_tags")

	if len(imageIDs) == 0 {
		done(nil)
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	inClause, inArgs := idPlaceholders(imageIDs)

	// Remove existing assignments
	_, err = tx.ExecContext(ctx,
		"DELETE FROM image_tags WHERE image_id IN ("+inClause+")",
		inArgs...,
	)
	if err != nil {
		done(err)
		return err
	}

	// Add new assignments
	for _, tagName := range tagNames {
		tagName = strings.TrimSpace(tagName)
		if tagName == "" {
			continue
		}

		tagID, err := getOrCreateTagTx(ctx, tx, tagName)
		if err != nil {
			done(err)
			return err
		}

		for _, imageID := range imageIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO image_tags (image_id, tag_id) VALUES (?, ?)",
				imageID, tagID,
			)
			if err != nil {
				done(err)
				return err
			}
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		done(commitErr)
		return commitErr
	}
	committed = true
	done(nil)
	return nil
}

// ApplyTagChanges applies add/remove tag deltas to a set of images in
// one transaction. Either all changes land or none do.
func (d *Database) ApplyTagChanges(ctx context.Context, imageIDs []int64, add, remove []string) error {
	done := observeQuery("apply_tag_changes")

	if len(imageIDs) == 0 || (len(add) == 0 && len(remove) == 0) {
		done(nil)
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	inClause, inArgs := idPlaceholders(imageIDs)

	for _, tagName := range add {
		tagName = strings.TrimSpace(tagName)
		if tagName == "" {
			continue
		}

		tagID, err := getOrCreateTagTx(ctx, tx, tagName)
		if err != nil {
			done(err)
			return err
		}

		for _, imageID := range imageIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO image_tags (image_id, tag_id) VALUES (?, ?)",
				imageID, tagID,
			)
			if err != nil {
				done(err)
				return err
			}
		}
	}

	for _, tagName := range remove {
		tagName = strings.TrimSpace(tagName)
		if tagName == "" {
			continue
		}

		args := append([]interface{}{tagName}, inArgs...)
		_, err = tx.ExecContext(ctx, `
			DELETE FROM image_tags
			WHERE tag_id = (SELECT id FROM tags WHERE name = ? COLLATE NOCASE)
			AND image_id IN (`+inClause+`)
		`, args...)
		if err != nil {
			done(err)
			return err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		done(commitErr)
		return commitErr
	}
	committed = true
	done(nil)
	return nil
}

// GetTagsWithCounts returns every known tag with its assignment count,
// sorted case-insensitively by name. Tags with zero assignments are
// included; they remain clickable filters until deleted.
func (d *Database) GetTagsWithCounts(ctx context.Context) ([]TagCount, error) {
	done := observeQuery("get_tags_with_counts")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.name, COUNT(it.id) as count
		FROM tags t
		LEFT JOIN image_tags it ON t.id = it.tag_id
		GROUP BY t.id, t.name
		ORDER BY t.name COLLATE NOCASE
	`)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []TagCount
	for rows.Next() {
		var tag TagCount
		if err := rows.Scan(&tag.Name, &tag.Count); err != nil {
			done(err)
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return tags, nil
}

// GetAssignments returns every image-to-tag edge. Used to bulk-load the
// in-memory catalog; per-image queries would be quadratic at startup.
func (d *Database) GetAssignments(ctx context.Context) ([]Assignment, error) {
	done := observeQuery("get_assignments")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT it.image_id, t.name
		FROM image_tags it
		INNER JOIN tags t ON it.tag_id = t.id
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

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ImageID, &a.Tag); err != nil {
			done(err)
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return assignments, nil
}

// DeleteTag removes a tag and all its assignments.
func (d *Database) DeleteTag(ctx context.Context, tagName string) error {
	done := observeQuery("delete_tag")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM tags WHERE name = ? COLLATE NOCASE", tagName)
	done(err)
	return err
}

// idPlaceholders builds the "?, ?, ?" clause and arg slice for an
// IN (...) query over image ids.
func idPlaceholders(ids []int64) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}
