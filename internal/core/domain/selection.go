package domain

import (
	"fmt"
	"sort"
)

// =============================================================================
// Selection
// =============================================================================

// SelectionEntry is one caller-supplied (id, quantity) pair.
type SelectionEntry struct {
	ID       int64 `json:"id"`
	Selected int   `json:"selected"`
}

// Selection maps an item or pack id to the quantity one pack instance
// requires. Only positive quantities are held; a Selection is never mutated
// after construction.
type Selection struct {
	quantities map[int64]int
}

// NewSelection builds a Selection from caller entries. Entries with a zero
// quantity are omitted. Negative quantities and repeated ids are rejected.
//
// Example:
//
//	sel, err := NewSelection([]SelectionEntry{{ID: 1, Selected: 2}, {ID: 2, Selected: 0}})
//	// sel.Len() == 1, sel.Quantity(1) == 2
func NewSelection(entries []SelectionEntry) (Selection, error) {
	quantities := make(map[int64]int, len(entries))
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return Selection{}, fmt.Errorf("id %d: %w", e.ID, ErrSelectionDuplicate)
		}
		seen[e.ID] = true
		if e.Selected < 0 {
			return Selection{}, fmt.Errorf("id %d: %w", e.ID, ErrSelectedNegative)
		}
		if e.Selected == 0 {
			continue
		}
		quantities[e.ID] = e.Selected
	}
	return Selection{quantities: quantities}, nil
}

// Len returns the number of included ids.
func (s Selection) Len() int {
	return len(s.quantities)
}

// Quantity returns the selected quantity for id, or 0 if not included.
func (s Selection) Quantity(id int64) int {
	return s.quantities[id]
}

// Entries returns the included entries ordered by id.
func (s Selection) Entries() []SelectionEntry {
	entries := make([]SelectionEntry, 0, len(s.quantities))
	for id, q := range s.quantities {
		entries = append(entries, SelectionEntry{ID: id, Selected: q})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// ItemMemberships converts the selection into item edges for packID.
func (s Selection) ItemMemberships(packID int64) []ItemMembership {
	entries := s.Entries()
	edges := make([]ItemMembership, 0, len(entries))
	for _, e := range entries {
		edges = append(edges, ItemMembership{PackID: packID, ItemID: e.ID, Selected: e.Selected})
	}
	return edges
}

// PackMemberships converts the selection into pack edges for packID.
func (s Selection) PackMemberships(packID int64) []PackMembership {
	entries := s.Entries()
	edges := make([]PackMembership, 0, len(entries))
	for _, e := range entries {
		edges = append(edges, PackMembership{PackID: packID, IncludedPackID: e.ID, Selected: e.Selected})
	}
	return edges
}

// ValidateSelected checks that an edge quantity is positive.
// Stores call this at the boundary so zero or negative edges are never persisted.
func ValidateSelected(selected int) error {
	if selected <= 0 {
		return ErrSelectedNotPositive
	}
	return nil
}
