package composition

import (
	"fmt"

	"github.com/artpar/packlist/internal/core/domain"
)

// =============================================================================
// Cycle Guard
// =============================================================================

// WouldCreateCycle reports whether including candidateID inside packID would
// make a pack contain itself. That is the case when both ids are equal or when
// candidateID already contains packID anywhere in its sub-tree.
//
// The walk is a depth-first search over sub-pack edges starting at the
// candidate. Quantities are ignored: any edge counts. Each call walks the
// graph it is given; results are never reused across calls.
//
// Example:
//
//	// X includes Y, Y includes Z
//	WouldCreateCycle(g, Z, X) // true: X → Y → Z
//	WouldCreateCycle(g, X, Z) // false
//	WouldCreateCycle(g, X, X) // true
func WouldCreateCycle(g *Graph, packID, candidateID int64) bool {
	if packID == candidateID {
		return true
	}

	visited := make(map[int64]bool)
	stack := []int64{candidateID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == packID {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, e := range g.PackEdges(id) {
			if !visited[e.IncludedPackID] {
				stack = append(stack, e.IncludedPackID)
			}
		}
	}
	return false
}

// CheckInclusion returns an integrity error if candidateID may not be
// included in packID: unknown ids, self inclusion, or a cycle.
func CheckInclusion(g *Graph, packID, candidateID int64) error {
	if _, ok := g.Pack(packID); !ok {
		return fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
	}
	if _, ok := g.Pack(candidateID); !ok {
		return fmt.Errorf("sub-pack %d: %w", candidateID, domain.ErrMissingMember)
	}
	if packID == candidateID {
		return fmt.Errorf("pack %d: %w", packID, domain.ErrSelfInclusion)
	}
	if WouldCreateCycle(g, packID, candidateID) {
		return fmt.Errorf("pack %d already contains pack %d: %w", candidateID, packID, domain.ErrCycle)
	}
	return nil
}

// =============================================================================
// Selection Checks
// =============================================================================

// ValidatePackSelection checks every entry of a sub-pack selection against
// the cycle guard. It returns the first violation, in ascending id order.
func ValidatePackSelection(g *Graph, packID int64, sel domain.Selection) error {
	for _, e := range sel.Entries() {
		if err := CheckInclusion(g, packID, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// ValidateItemSelection checks that every selected item exists.
func ValidateItemSelection(g *Graph, sel domain.Selection) error {
	for _, e := range sel.Entries() {
		if _, ok := g.Item(e.ID); !ok {
			return fmt.Errorf("item %d: %w", e.ID, domain.ErrMissingMember)
		}
	}
	return nil
}
