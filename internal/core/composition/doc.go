// Package composition provides the pure pack composition engine.
//
// This package contains the functional core logic for packs that bundle items
// and other packs. All functions are pure (no I/O, no side effects) and work
// on a Graph: an immutable snapshot of items, packs and membership edges
// addressed by integer id. The imperative shell (internal/shell/inventory)
// loads a fresh Graph from the store for every operation.
//
// # Functions
//
//   - Cycle guard: decide whether including a pack would close a cycle (WouldCreateCycle, CheckInclusion)
//   - Resolver: aggregate weight, volume, price and buildable amount (Resolve)
//   - Membership: partition items and packs into included / not included (ItemsIn, ItemsNotIn, PacksIn, PacksNotIn)
//   - Selection checks: validate a selection before it replaces a pack's edges (ValidateItemSelection, ValidatePackSelection)
//
// # Usage
//
//	g := composition.NewGraph(items, packs, itemEdges, packEdges)
//	attrs, err := composition.Resolve(g, packID)
//	candidates, err := composition.PacksNotIn(g, packID)
package composition
