package selection

import "fmt"

// Modifier alters how a click changes the selection.
type Modifier int

const (
	// ModNone replaces the selection with the clicked image.
	ModNone Modifier = iota
	// ModToggle flips the clicked image's membership.
	ModToggle
	// ModRange selects the span between the anchor and the click.
	ModRange
)

// String returns the wire representation of a modifier.
func (m Modifier) String() string {
	switch m {
	case ModNone:
		return "none"
	case ModToggle:
		return "toggle"
	case ModRange:
		return "range"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// ParseModifier validates a wire modifier name.
func ParseModifier(s string) (Modifier, bool) {
	switch s {
	case "none", "":
		return ModNone, true
	case "toggle":
		return ModToggle, true
	case "range":
		return ModRange, true
	}
	return ModNone, false
}

// Model is the selection state. The zero value is not usable; call New.
type Model struct {
	selected   map[int64]bool
	current    int64
	hasCurrent bool
	anchor     int64
	hasAnchor  bool
}

// New returns an empty selection.
func New() *Model {
	return &Model{selected: make(map[int64]bool)}
}

// Click applies a selection click at a position in the visible list.
// Out-of-range positions are a no-op.
func (m *Model) Click(visible []int64, pos int, mod Modifier) {
	if pos < 0 || pos >= len(visible) {
		return
	}
	id := visible[pos]

	switch mod {
	case ModToggle:
		m.toggle(id)
	case ModRange:
		if !m.hasAnchor {
			m.replaceWith(id)
			return
		}
		anchorPos := indexOf(visible, m.anchor)
		if anchorPos < 0 {
			// Anchor filtered out since it was set: plain click
			m.replaceWith(id)
			return
		}
		lo, hi := anchorPos, pos
		if lo > hi {
			lo, hi = hi, lo
		}
		m.selected = make(map[int64]bool, hi-lo+1)
		for _, rangeID := range visible[lo : hi+1] {
			m.selected[rangeID] = true
		}
		// The anchor stays put so the range can be re-extended
		m.current, m.hasCurrent = id, true
	default:
		m.replaceWith(id)
	}
}

func (m *Model) replaceWith(id int64) {
	m.selected = map[int64]bool{id: true}
	m.current, m.hasCurrent = id, true
	m.anchor, m.hasAnchor = id, true
}

func (m *Model) toggle(id int64) {
	if m.selected[id] {
		delete(m.selected, id)
		if m.hasCurrent && m.current == id {
			m.hasCurrent = false
		}
		if m.hasAnchor && m.anchor == id {
			m.hasAnchor = false
		}
		return
	}
	m.selected[id] = true
	m.current, m.hasCurrent = id, true
	m.anchor, m.hasAnchor = id, true
}

// Wheel collapses the selection to the image delta steps from the
// current one, wrapping cyclically over the visible list. With no
// current image, forward starts at the first image and backward at
// the last. An empty view is a no-op.
func (m *Model) Wheel(visible []int64, delta int) {
	n := len(visible)
	if n == 0 {
		return
	}

	cur := -1
	if m.hasCurrent {
		cur = indexOf(visible, m.current)
	}

	var pos int
	if cur < 0 {
		if delta > 0 {
			pos = 0
		} else {
			pos = n - 1
		}
	} else {
		pos = ((cur+delta)%n + n) % n
	}

	m.replaceWith(visible[pos])
}

// Remap intersects the selection with a new visible list. Current
// survives only if still visible; a lost anchor degrades to the
// current image, or unset.
func (m *Model) Remap(visible []int64) {
	vis := make(map[int64]bool, len(visible))
	for _, id := range visible {
		vis[id] = true
	}

	for id := range m.selected {
		if !vis[id] {
			delete(m.selected, id)
		}
	}
	if m.hasCurrent && !vis[m.current] {
		m.hasCurrent = false
	}
	if m.hasAnchor && !vis[m.anchor] {
		if m.hasCurrent {
			m.anchor = m.current
		} else {
			m.hasAnchor = false
		}
	}
}

// Selected returns the selected ids in visible order.
func (m *Model) Selected(visible []int64) []int64 {
	out := make([]int64, 0, len(m.selected))
	for _, id := range visible {
		if m.selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// IsSelected reports membership by identity.
func (m *Model) IsSelected(id int64) bool {
	return m.selected[id]
}

// Count returns the number of selected images.
func (m *Model) Count() int {
	return len(m.selected)
}

// Current returns the current image, if any.
func (m *Model) Current() (int64, bool) {
	return m.current, m.hasCurrent
}

// Anchor returns the range anchor, if any.
func (m *Model) Anchor() (int64, bool) {
	return m.anchor, m.hasAnchor
}

// Clear empties the selection and unsets current and anchor.
func (m *Model) Clear() {
	m.selected = make(map[int64]bool)
	m.hasCurrent = false
	m.hasAnchor = false
}

func indexOf(visible []int64, id int64) int {
	for i, v := range visible {
		if v == id {
			return i
		}
	}
	return -1
}
