package view

import (
	"sort"
	"strings"

	"tagview/internal/catalog"
	"tagview/internal/tagstore"
)

// UntaggedKey is the reserved counts key for images bearing no tags.
const UntaggedKey = ""

// SortKey selects the ordering of the visible list.
type SortKey string

const (
	// SortByPath is the catalog walk order: watched root registration
	// sequence, then path. This is the default.
	SortByPath SortKey = "path"
	// SortByName orders by base filename, case-insensitive.
	SortByName SortKey = "name"
	// SortBySize orders by file size.
	SortBySize SortKey = "size"
	// SortByMTime orders by file modification time.
	SortByMTime SortKey = "mtime"
)

// ParseSortKey validates a wire sort key. Unrecognized values return
// the default key and false.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(strings.ToLower(s)) {
	case SortByPath:
		return SortByPath, true
	case SortByName:
		return SortByName, true
	case SortBySize:
		return SortBySize, true
	case SortByMTime:
		return SortByMTime, true
	}
	return SortByPath, false
}

// Accepts reports whether an image with the given tag set passes the
// active filters. The untagged pseudo-filter is consulted first: when
// whitelisted it hides every tagged image, when blacklisted it hides
// every untagged image. Images it does not hide fall through to the
// whitelist/blacklist predicate.
func Accepts(tags map[string]bool, snap tagstore.Snapshot) bool {
	if snap.Untagged == tagstore.Whitelisted && len(tags) > 0 {
		return false
	}
	if snap.Untagged == tagstore.Blacklisted && len(tags) == 0 {
		return false
	}
	if len(snap.Whitelist) > 0 && !intersects(tags, snap.Whitelist) {
		return false
	}
	return !intersects(tags, snap.Blacklist)
}

func intersects(tags, set map[string]bool) bool {
	// Iterate the smaller side
	if len(tags) > len(set) {
		tags, set = set, tags
	}
	for t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}

// Compute filters the catalog enumeration through the active filters
// and orders the survivors by the sort key. Filtering is stable: with
// the default key, visible images keep their catalog order.
func Compute(images []*catalog.Image, snap tagstore.Snapshot, key SortKey, desc bool) []*catalog.Image {
	visible := make([]*catalog.Image, 0, len(images))
	for _, img := range images {
		if Accepts(img.Tags, snap) {
			visible = append(visible, img)
		}
	}

	if key == SortByPath {
		// Already in catalog order
		if desc {
			reverse(visible)
		}
		return visible
	}

	less := lessFunc(key)
	sort.SliceStable(visible, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		return less(visible[i], visible[j])
	})
	return visible
}

// lessFunc returns the ascending comparator for a sort key, with path
// as the tiebreak so equal keys stay deterministic.
func lessFunc(key SortKey) func(a, b *catalog.Image) bool {
	switch key {
	case SortByName:
		return func(a, b *catalog.Image) bool {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				return an < bn
			}
			return a.Path < b.Path
		}
	case SortBySize:
		return func(a, b *catalog.Image) bool {
			if a.Size != b.Size {
				return a.Size < b.Size
			}
			return a.Path < b.Path
		}
	case SortByMTime:
		return func(a, b *catalog.Image) bool {
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.Before(b.ModTime)
			}
			return a.Path < b.Path
		}
	default:
		return func(a, b *catalog.Image) bool {
			return a.Path < b.Path
		}
	}
}

func reverse(images []*catalog.Image) {
	for i, j := 0, len(images)-1; i < j; i, j = i+1, j-1 {
		images[i], images[j] = images[j], images[i]
	}
}

// TagCount pairs the total number of images bearing a tag with the
// number currently visible.
type TagCount struct {
	Total   int
	Visible int
}

// TagCounts tallies per-tag totals over the whole catalog and the
// visible list, with the untagged tallies under UntaggedKey.
func TagCounts(all, visible []*catalog.Image) map[string]TagCount {
	counts := make(map[string]TagCount)

	for _, img := range all {
		if len(img.Tags) == 0 {
			c := counts[UntaggedKey]
			c.Total++
			counts[UntaggedKey] = c
			continue
		}
		for tag := range img.Tags {
			c := counts[tag]
			c.Total++
			counts[tag] = c
		}
	}

	for _, img := range visible {
		if len(img.Tags) == 0 {
			c := counts[UntaggedKey]
			c.Visible++
			counts[UntaggedKey] = c
			continue
		}
		for tag := range img.Tags {
			c := counts[tag]
			c.Visible++
			counts[tag] = c
		}
	}

	return counts
}
