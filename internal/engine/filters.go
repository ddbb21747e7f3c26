package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tagview/internal/database"
	"tagview/internal/logging"
	"tagview/internal/tagstore"
	"tagview/internal/view"
)

// ErrUnknownTag is returned when a filter or assignment names a tag the
// database has never seen.
var ErrUnknownTag = errors.New("unknown tag")

// ClickTag cycles the filter state of a tag and rebuilds the view. The tag
// is matched case-insensitively against the known tag list.
func (e *Engine) ClickTag(name string, button tagstore.Button) (tagstore.FilterState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	canonical, ok := e.canonicalTagLocked(name)
	if !ok {
		return tagstore.Inactive, fmt.Errorf("%w: %s", ErrUnknownTag, name)
	}
	state := e.store.Click(canonical, button)
	e.recomputeLocked()
	logging.Debug("Filter %s: %s (%d visible)", canonical, state, len(e.visible))
	return state, nil
}

// ClickUntagged cycles the untagged pseudo-filter and rebuilds the view.
func (e *Engine) ClickUntagged(button tagstore.Button) tagstore.FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.store.ClickUntagged(button)
	e.recomputeLocked()
	return state
}

// ClearFilters deactivates every tag filter and the untagged pseudo-filter.
func (e *Engine) ClearFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ClearAll()
	e.recomputeLocked()
}

// TagRow is one sidebar entry: a tag (or the untagged pseudo-entry), its
// catalog-wide and currently-visible image counts, and its filter state.
type TagRow struct {
	Name     string `json:"name"`
	Untagged bool   `json:"untagged,omitempty"`
	Total    int    `json:"total"`
	Visible  int    `json:"visible"`
	State    string `json:"state"`
}

// TagRows lists the untagged pseudo-entry followed by every known tag,
// zero-assignment tags included. sortBy is "name" or "count"; the untagged
// row stays pinned first either way.
func (e *Engine) TagRows(sortBy string, desc bool) []TagRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tagRowsLocked(sortBy, desc)
}

func (e *Engine) tagRowsLocked(sortBy string, desc bool) []TagRow {
	counts := view.TagCounts(e.cat.Images(), e.visible)

	rows := make([]TagRow, 0, len(e.knownTags)+1)
	untagged := counts[view.UntaggedKey]
	rows = append(rows, TagRow{
		Untagged: true,
		Total:    untagged.Total,
		Visible:  untagged.Visible,
		State:    e.store.Untagged().String(),
	})
	for _, name := range e.knownTags {
		c := counts[name]
		rows = append(rows, TagRow{
			Name:    name,
			Total:   c.Total,
			Visible: c.Visible,
			State:   e.store.State(name).String(),
		})
	}

	tags := rows[1:]
	switch sortBy {
	case "count":
		sort.SliceStable(tags, func(i, j int) bool {
			if desc {
				i, j = j, i
			}
			if tags[i].Total != tags[j].Total {
				return tags[i].Total < tags[j].Total
			}
			return lessFold(tags[i].Name, tags[j].Name)
		})
	default:
		if desc {
			sort.SliceStable(tags, func(i, j int) bool {
				return lessFold(tags[j].Name, tags[i].Name)
			})
		}
		// knownTags is already name-sorted ascending.
	}
	return rows
}

// SetSort changes the view ordering and persists it as the new default.
func (e *Engine) SetSort(ctx context.Context, key string, desc bool) error {
	parsed, ok := view.ParseSortKey(key)
	if !ok {
		return fmt.Errorf("unknown sort key %q", key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.db.SetSetting(ctx, database.SettingSortKey, string(parsed)); err != nil {
		return fmt.Errorf("persisting sort key: %w", err)
	}
	descVal := "0"
	if desc {
		descVal = "1"
	}
	if err := e.db.SetSetting(ctx, database.SettingSortDesc, descVal); err != nil {
		return fmt.Errorf("persisting sort direction: %w", err)
	}

	e.sortKey = parsed
	e.sortDesc = desc
	e.recomputeLocked()
	return nil
}

// Sort reports the active sort key and direction.
func (e *Engine) Sort() (view.SortKey, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortKey, e.sortDesc
}

// lessFold orders strings case-insensitively, falling back to byte order so
// "A" and "a" sort deterministically.
func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
