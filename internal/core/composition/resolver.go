package composition

import (
	"fmt"

	"github.com/artpar/packlist/internal/core/domain"
)

// =============================================================================
// Composition Resolver
// =============================================================================

// Resolve computes the derived attributes of a pack from its component tree.
//
// Starting from weight = volume = price = 0 and an unbounded buildable amount,
// every direct edge is applied:
//  1. Item edge (item, s): totals grow by s × the item's weight, volume and
//     price; the edge allows floor(item.Amount / s) pack instances.
//  2. Sub-pack edge (sub, s): the sub-pack is resolved first; totals grow by
//     s × its resolved totals; the edge allows floor(sub.Buildable / s).
//
// The buildable amount is the minimum over all edges. Name and function are
// the pack's own stored attributes.
//
// A pack met again while it is still being resolved means the graph holds a
// cycle; Resolve then fails with domain.ErrInvariantBroken and returns no
// partial result.
//
// Example:
//
//	// A: weight 2, amount 10. B: weight 3, amount 4. X = 2×A + 1×B
//	attrs, _ := Resolve(g, X)
//	// attrs.Weight == 7, attrs.Buildable == Bounded(4)
func Resolve(g *Graph, packID int64) (domain.Attributes, error) {
	r := &resolver{
		graph:    g,
		done:     make(map[int64]domain.Attributes),
		visiting: make(map[int64]bool),
	}
	return r.resolve(packID, nil)
}

// resolver holds per-call state. Results of sub-packs are reused only within
// the same call.
type resolver struct {
	graph    *Graph
	done     map[int64]domain.Attributes
	visiting map[int64]bool
}

func (r *resolver) resolve(packID int64, path []int64) (domain.Attributes, error) {
	if attrs, ok := r.done[packID]; ok {
		return attrs, nil
	}
	if r.visiting[packID] {
		return domain.Attributes{}, fmt.Errorf("pack %d reached again via %v: %w", packID, append(path, packID), domain.ErrInvariantBroken)
	}

	pack, ok := r.graph.Pack(packID)
	if !ok {
		if len(path) == 0 {
			return domain.Attributes{}, fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
		}
		return domain.Attributes{}, fmt.Errorf("sub-pack %d of pack %d: %w", packID, path[len(path)-1], domain.ErrInvariantBroken)
	}

	r.visiting[packID] = true
	defer delete(r.visiting, packID)

	attrs := domain.Attributes{
		PackID:    pack.ID,
		Name:      pack.Name,
		Function:  pack.Function,
		Buildable: domain.Unbounded(),
	}

	for _, e := range r.graph.ItemEdges(packID) {
		if err := domain.ValidateSelected(e.Selected); err != nil {
			return domain.Attributes{}, fmt.Errorf("pack %d item %d: %w", packID, e.ItemID, err)
		}
		item, ok := r.graph.Item(e.ItemID)
		if !ok {
			return domain.Attributes{}, fmt.Errorf("item %d of pack %d: %w", e.ItemID, packID, domain.ErrInvariantBroken)
		}
		s := float64(e.Selected)
		attrs.Weight += s * item.Weight
		attrs.Volume += s * item.Volume
		attrs.Price += s * item.Price
		attrs.Buildable = attrs.Buildable.Min(domain.Bounded(item.Amount).Per(e.Selected))
	}

	for _, e := range r.graph.PackEdges(packID) {
		if err := domain.ValidateSelected(e.Selected); err != nil {
			return domain.Attributes{}, fmt.Errorf("pack %d sub-pack %d: %w", packID, e.IncludedPackID, err)
		}
		sub, err := r.resolve(e.IncludedPackID, append(path, packID))
		if err != nil {
			return domain.Attributes{}, err
		}
		s := float64(e.Selected)
		attrs.Weight += s * sub.Weight
		attrs.Volume += s * sub.Volume
		attrs.Price += s * sub.Price
		attrs.Buildable = attrs.Buildable.Min(sub.Buildable.Per(e.Selected))
	}

	r.done[packID] = attrs
	return attrs, nil
}
