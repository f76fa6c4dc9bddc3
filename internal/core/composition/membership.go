package composition

import (
	"fmt"

	"github.com/artpar/packlist/internal/core/domain"
)

// =============================================================================
// Membership Entries
// =============================================================================

// ItemEntry is an item together with its selected quantity in a pack.
// Selected is 0 for items the pack does not include.
type ItemEntry struct {
	domain.Item
	Selected int `json:"selected"`
}

// PackEntry is a pack together with its selected quantity in another pack.
type PackEntry struct {
	domain.Pack
	Selected int `json:"selected"`
}

// =============================================================================
// Membership Queries
// =============================================================================

// ItemsIn returns the items directly included in a pack, ordered by id.
func ItemsIn(g *Graph, packID int64) ([]ItemEntry, error) {
	if _, ok := g.Pack(packID); !ok {
		return nil, fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
	}

	edges := g.ItemEdges(packID)
	entries := make([]ItemEntry, 0, len(edges))
	for _, e := range edges {
		item, ok := g.Item(e.ItemID)
		if !ok {
			return nil, fmt.Errorf("item %d of pack %d: %w", e.ItemID, packID, domain.ErrInvariantBroken)
		}
		entries = append(entries, ItemEntry{Item: item, Selected: e.Selected})
	}
	return entries, nil
}

// ItemsNotIn returns every item the pack does not include, with Selected 0.
// Together with ItemsIn it lists every item exactly once.
func ItemsNotIn(g *Graph, packID int64) ([]ItemEntry, error) {
	if _, ok := g.Pack(packID); !ok {
		return nil, fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
	}

	included := make(map[int64]bool)
	for _, e := range g.ItemEdges(packID) {
		included[e.ItemID] = true
	}

	entries := make([]ItemEntry, 0, len(g.ItemIDs()))
	for _, id := range g.ItemIDs() {
		if included[id] {
			continue
		}
		item, _ := g.Item(id)
		entries = append(entries, ItemEntry{Item: item})
	}
	return entries, nil
}

// PacksIn returns the sub-packs directly included in a pack, ordered by id.
func PacksIn(g *Graph, packID int64) ([]PackEntry, error) {
	if _, ok := g.Pack(packID); !ok {
		return nil, fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
	}

	edges := g.PackEdges(packID)
	entries := make([]PackEntry, 0, len(edges))
	for _, e := range edges {
		sub, ok := g.Pack(e.IncludedPackID)
		if !ok {
			return nil, fmt.Errorf("sub-pack %d of pack %d: %w", e.IncludedPackID, packID, domain.ErrInvariantBroken)
		}
		entries = append(entries, PackEntry{Pack: sub, Selected: e.Selected})
	}
	return entries, nil
}

// PacksNotIn returns the packs that may still be offered for inclusion in a
// pack: every pack not already included, minus the pack itself and every
// candidate that would close a cycle.
func PacksNotIn(g *Graph, packID int64) ([]PackEntry, error) {
	if _, ok := g.Pack(packID); !ok {
		return nil, fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
	}

	included := make(map[int64]bool)
	for _, e := range g.PackEdges(packID) {
		included[e.IncludedPackID] = true
	}

	entries := make([]PackEntry, 0, len(g.PackIDs()))
	for _, id := range g.PackIDs() {
		if included[id] || WouldCreateCycle(g, packID, id) {
			continue
		}
		pack, _ := g.Pack(id)
		entries = append(entries, PackEntry{Pack: pack})
	}
	return entries, nil
}
