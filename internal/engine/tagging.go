package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tagview/internal/logging"
	"tagview/internal/tagging"
)

// ErrEmptySelection guards tag mutations that need at least one selected
// image.
var ErrEmptySelection = errors.New("selection is empty")

// refreshTagsLocked re-reads the canonical tag list from the database.
// GetTagsWithCounts includes zero-assignment tags and sorts the names
// case-insensitively, which is the order the sidebar wants.
func (e *Engine) refreshTagsLocked(ctx context.Context) error {
	rows, err := e.db.GetTagsWithCounts(ctx)
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	e.knownTags = names
	return nil
}

// canonicalTagLocked resolves a tag name to its stored casing.
func (e *Engine) canonicalTagLocked(name string) (string, bool) {
	for _, known := range e.knownTags {
		if strings.EqualFold(known, name) {
			return known, true
		}
	}
	return "", false
}

// ToggleTagForSelection assigns a tag to every selected image, or removes
// it from all of them when every one already bears it. The tag is created
// on first use. Returns the aggregate state after the change.
func (e *Engine) ToggleTagForSelection(ctx context.Context, name string) (tagging.Aggregate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tagging.AggNone, errors.New("tag name cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	images := e.selectedImagesLocked()
	if len(images) == 0 {
		return tagging.AggNone, ErrEmptySelection
	}
	ids := make([]int64, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}

	tag, err := e.db.GetOrCreateTag(ctx, name)
	if err != nil {
		return tagging.AggNone, err
	}
	canonical := tag.Name

	var result tagging.Aggregate
	if tagging.AggregateFor(images, canonical) == tagging.AggAll {
		if err := e.db.ApplyTagChanges(ctx, ids, nil, []string{canonical}); err != nil {
			return tagging.AggNone, err
		}
		for _, id := range ids {
			e.cat.Unassign(id, canonical)
		}
		result = tagging.AggNone
	} else {
		if err := e.db.ApplyTagChanges(ctx, ids, []string{canonical}, nil); err != nil {
			return tagging.AggNone, err
		}
		for _, id := range ids {
			e.cat.Assign(id, canonical)
		}
		result = tagging.AggAll
	}

	if err := e.refreshTagsLocked(ctx); err != nil {
		return result, err
	}
	e.recomputeLocked()
	logging.Debug("Toggled tag %q on %d images: now %s", canonical, len(ids), result)
	return result, nil
}

// ApplySelectionTagChanges applies a batch of additions and removals to
// every selected image in one database transaction. A tag named in both
// lists ends up removed, matching the transaction's apply order.
func (e *Engine) ApplySelectionTagChanges(ctx context.Context, changes tagging.Changes) error {
	if changes.Empty() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	images := e.selectedImagesLocked()
	if len(images) == 0 {
		return ErrEmptySelection
	}
	ids := make([]int64, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}

	// Canonicalize up front so the in-memory catalog mirrors exactly what
	// the database writes.
	adds := make([]string, 0, len(changes.Add))
	for _, name := range changes.Add {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := e.db.GetOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		adds = append(adds, tag.Name)
	}
	removes := make([]string, 0, len(changes.Remove))
	for _, name := range changes.Remove {
		canonical, ok := e.canonicalTagLocked(name)
		if !ok {
			// A tag created by the add list above is not in knownTags yet.
			for _, a := range adds {
				if strings.EqualFold(a, name) {
					canonical, ok = a, true
					break
				}
			}
		}
		if !ok {
			continue
		}
		removes = append(removes, canonical)
	}

	if err := e.db.ApplyTagChanges(ctx, ids, adds, removes); err != nil {
		return err
	}
	for _, tag := range adds {
		for _, id := range ids {
			e.cat.Assign(id, tag)
		}
	}
	for _, tag := range removes {
		for _, id := range ids {
			e.cat.Unassign(id, tag)
		}
	}

	if err := e.refreshTagsLocked(ctx); err != nil {
		return err
	}
	e.recomputeLocked()
	logging.Debug("Applied tag changes to %d images: +%d -%d", len(ids), len(adds), len(removes))
	return nil
}

// SuggestTags lists completion candidates for the tag input, excluding tags
// every selected image already bears.
func (e *Engine) SuggestTags(query string, limit int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tagging.Suggest(e.knownTags, e.selectedImagesLocked(), query, limit)
}
