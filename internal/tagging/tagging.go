package tagging

import (
	"fmt"
	"sort"
	"strings"

	"tagview/internal/catalog"
)

// Aggregate summarizes one tag's assignment across a selection.
type Aggregate int

const (
	// AggNone: no selected image bears the tag.
	AggNone Aggregate = iota
	// AggPartial: some but not all selected images bear the tag.
	AggPartial
	// AggAll: every selected image bears the tag.
	AggAll
)

// String returns the wire representation of an aggregate.
func (a Aggregate) String() string {
	switch a {
	case AggNone:
		return "none"
	case AggPartial:
		return "partial"
	case AggAll:
		return "all"
	default:
		return fmt.Sprintf("unknown(%d)", a)
	}
}

// AggregateFor returns the aggregate state of one tag over the given
// images. An empty image list yields AggNone.
func AggregateFor(images []*catalog.Image, tag string) Aggregate {
	if len(images) == 0 {
		return AggNone
	}
	k := 0
	for _, img := range images {
		if img.Tags[tag] {
			k++
		}
	}
	switch k {
	case 0:
		return AggNone
	case len(images):
		return AggAll
	default:
		return AggPartial
	}
}

// Aggregates tallies every tag borne by at least one of the images.
func Aggregates(images []*catalog.Image) map[string]Aggregate {
	counts := make(map[string]int)
	for _, img := range images {
		for tag := range img.Tags {
			counts[tag]++
		}
	}

	out := make(map[string]Aggregate, len(counts))
	for tag, k := range counts {
		if k == len(images) {
			out[tag] = AggAll
		} else {
			out[tag] = AggPartial
		}
	}
	return out
}

// Changes is a batch of tag names to add to and remove from every
// selected image.
type Changes struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// Empty reports whether the batch changes nothing.
func (c Changes) Empty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// Suggest ranks candidate tags for the completer. Matching is
// case-insensitive; prefix matches come before substring matches, and
// within each group closer matches come first: shorter tags, then
// alphabetical ignoring case. Tags already borne by every selected
// image are excluded. An empty query suggests from all eligible tags.
// A limit of zero or less means no limit.
func Suggest(known []string, selected []*catalog.Image, query string, limit int) []string {
	q := strings.ToLower(query)

	var prefix, substr []string
	for _, tag := range known {
		if len(selected) > 0 && AggregateFor(selected, tag) == AggAll {
			continue
		}
		lower := strings.ToLower(tag)
		switch {
		case strings.HasPrefix(lower, q):
			prefix = append(prefix, tag)
		case strings.Contains(lower, q):
			substr = append(substr, tag)
		}
	}

	sortByCloseness(prefix)
	sortByCloseness(substr)

	out := append(prefix, substr...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortByCloseness orders candidates shortest first, alphabetically
// ignoring case among equal lengths, with byte order breaking
// exact-fold ties so the result is deterministic.
func sortByCloseness(tags []string) {
	sort.Slice(tags, func(i, j int) bool {
		if len(tags[i]) != len(tags[j]) {
			return len(tags[i]) < len(tags[j])
		}
		a, b := strings.ToLower(tags[i]), strings.ToLower(tags[j])
		if a != b {
			return a < b
		}
		return tags[i] < tags[j]
	})
}
