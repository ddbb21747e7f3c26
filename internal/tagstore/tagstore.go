package tagstore

import "fmt"

// FilterState is the filter role a tag currently plays.
type FilterState int

const (
	// Inactive tags do not constrain visibility.
	Inactive FilterState = iota
	// Whitelisted tags admit the images bearing them.
	Whitelisted
	// Blacklisted tags hide the images bearing them.
	Blacklisted
)

// String returns the wire representation of a filter state.
func (s FilterState) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Whitelisted:
		return "whitelisted"
	case Blacklisted:
		return "blacklisted"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Button identifies which mouse button produced a filter click.
type Button int

const (
	// LeftClick whitelists an inactive tag.
	LeftClick Button = iota
	// RightClick blacklists an inactive tag.
	RightClick
)

// String returns the wire representation of a button.
func (b Button) String() string {
	switch b {
	case LeftClick:
		return "left"
	case RightClick:
		return "right"
	default:
		return fmt.Sprintf("unknown(%d)", b)
	}
}

// ParseButton validates a wire button name. The empty string means left,
// so plain clicks need no field at all.
func ParseButton(s string) (Button, bool) {
	switch s {
	case "left", "":
		return LeftClick, true
	case "right":
		return RightClick, true
	}
	return LeftClick, false
}

// Snapshot is a point-in-time copy of the active filters, in the shape
// the visibility predicate consumes.
type Snapshot struct {
	Whitelist map[string]bool
	Blacklist map[string]bool
	Untagged  FilterState
}

// Store maps tag names to filter states. Tags absent from the map are
// Inactive; lookups are exact, preserving the tag's stored casing.
type Store struct {
	states   map[string]FilterState
	untagged FilterState
}

// New returns an empty store with every filter inactive.
func New() *Store {
	return &Store{states: make(map[string]FilterState)}
}

// State returns the current filter state of a tag.
func (s *Store) State(tag string) FilterState {
	return s.states[tag]
}

// Untagged returns the state of the untagged pseudo-filter.
func (s *Store) Untagged() FilterState {
	return s.untagged
}

// transition is the single click rule: any active state goes inactive,
// an inactive state follows the button.
func transition(current FilterState, button Button) FilterState {
	if current != Inactive {
		return Inactive
	}
	if button == RightClick {
		return Blacklisted
	}
	return Whitelisted
}

// Click applies a button click to a tag and returns the new state.
// Unknown tags start from Inactive.
func (s *Store) Click(tag string, button Button) FilterState {
	next := transition(s.states[tag], button)
	s.SetState(tag, next)
	return next
}

// ClickUntagged applies a button click to the untagged pseudo-filter.
func (s *Store) ClickUntagged(button Button) FilterState {
	s.untagged = transition(s.untagged, button)
	return s.untagged
}

// SetState assigns a filter state directly. Inactive entries are
// removed from the map so the store never accumulates dead keys.
func (s *Store) SetState(tag string, state FilterState) {
	if state == Inactive {
		delete(s.states, tag)
		return
	}
	s.states[tag] = state
}

// SetUntagged assigns the untagged pseudo-filter state directly.
func (s *Store) SetUntagged(state FilterState) {
	s.untagged = state
}

// ClearAll resets every tag and the untagged pseudo-filter to Inactive.
func (s *Store) ClearAll() {
	s.states = make(map[string]FilterState)
	s.untagged = Inactive
}

// ActiveCount reports how many filters are not Inactive, counting the
// untagged pseudo-filter.
func (s *Store) ActiveCount() int {
	n := len(s.states)
	if s.untagged != Inactive {
		n++
	}
	return n
}

// Snapshot copies the active filters into predicate form.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Whitelist: make(map[string]bool),
		Blacklist: make(map[string]bool),
		Untagged:  s.untagged,
	}
	for tag, state := range s.states {
		switch state {
		case Whitelisted:
			snap.Whitelist[tag] = true
		case Blacklisted:
			snap.Blacklist[tag] = true
		}
	}
	return snap
}

// Sync drops filter state for tags that no longer exist, e.g. after a
// tag deletion or a catalog reload. The untagged pseudo-filter is kept.
func (s *Store) Sync(known map[string]bool) {
	for tag := range s.states {
		if !known[tag] {
			delete(s.states, tag)
		}
	}
}
