package waterfall

import (
	"maps"
	"slices"
)

// Toggles maps span ids to whether their detail panel is open. Spans without
// an entry are collapsed. Toggles is keyed by span id rather than row
// position, so the state survives recomputing the rows.
//
// Toggles is not safe for concurrent use.
type Toggles struct {
	details map[string]bool
}

// NewToggles returns toggle state with the given spans expanded.
func NewToggles(expanded ...string) *Toggles {
	t := &Toggles{details: make(map[string]bool, len(expanded))}
	for _, id := range expanded {
		t.details[id] = true
	}
	return t
}

// Has reports whether id has an entry, expanded or not.
func (t *Toggles) Has(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.details[id]
	return ok
}

// Expanded reports whether the detail panel of id is open.
func (t *Toggles) Expanded(id string) bool {
	if t == nil {
		return false
	}
	return t.details[id]
}

// Toggle flips the details flag of id and returns the new value. An absent
// entry starts collapsed, so the first toggle expands it.
func (t *Toggles) Toggle(id string) bool {
	if t.details == nil {
		t.details = make(map[string]bool)
	}
	t.details[id] = !t.details[id]
	return t.details[id]
}

// IDs returns the expanded span ids in sorted order.
func (t *Toggles) IDs() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, id := range slices.Sorted(maps.Keys(t.details)) {
		if t.details[id] {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of entries, including collapsed ones.
func (t *Toggles) Len() int {
	if t == nil {
		return 0
	}
	return len(t.details)
}

// Clone returns an independent copy.
func (t *Toggles) Clone() *Toggles {
	if t == nil {
		return NewToggles()
	}
	return &Toggles{details: maps.Clone(t.details)}
}

// OnRowClick handles a click on the row of span id. It does nothing in display
// mode. Otherwise it flips exactly one entry and returns true to signal that
// the rows must be recomputed and redrawn.
func OnRowClick(id string, toggles *Toggles, display bool) bool {
	if display || toggles == nil {
		return false
	}
	toggles.Toggle(id)
	return true
}
