package composition

import (
	"sort"

	"github.com/artpar/packlist/internal/core/domain"
)

// =============================================================================
// Graph
// =============================================================================

// Graph is a read-only snapshot of the inventory. Entities live in maps keyed
// by id and edges are grouped by parent pack id; nothing holds pointers to
// other entities.
type Graph struct {
	items     map[int64]domain.Item
	packs     map[int64]domain.Pack
	itemEdges map[int64][]domain.ItemMembership
	packEdges map[int64][]domain.PackMembership
	itemIDs   []int64
	packIDs   []int64
}

// NewGraph builds a snapshot from flat store rows. Edges are ordered by child
// id so traversals are deterministic.
func NewGraph(items []domain.Item, packs []domain.Pack, itemEdges []domain.ItemMembership, packEdges []domain.PackMembership) *Graph {
	g := &Graph{
		items:     make(map[int64]domain.Item, len(items)),
		packs:     make(map[int64]domain.Pack, len(packs)),
		itemEdges: make(map[int64][]domain.ItemMembership),
		packEdges: make(map[int64][]domain.PackMembership),
		itemIDs:   make([]int64, 0, len(items)),
		packIDs:   make([]int64, 0, len(packs)),
	}

	for _, item := range items {
		if _, dup := g.items[item.ID]; !dup {
			g.itemIDs = append(g.itemIDs, item.ID)
		}
		g.items[item.ID] = item
	}
	for _, pack := range packs {
		if _, dup := g.packs[pack.ID]; !dup {
			g.packIDs = append(g.packIDs, pack.ID)
		}
		g.packs[pack.ID] = pack
	}
	for _, e := range itemEdges {
		g.itemEdges[e.PackID] = append(g.itemEdges[e.PackID], e)
	}
	for _, e := range packEdges {
		g.packEdges[e.PackID] = append(g.packEdges[e.PackID], e)
	}

	sortIDs(g.itemIDs)
	sortIDs(g.packIDs)
	for _, edges := range g.itemEdges {
		sort.Slice(edges, func(i, j int) bool { return edges[i].ItemID < edges[j].ItemID })
	}
	for _, edges := range g.packEdges {
		sort.Slice(edges, func(i, j int) bool { return edges[i].IncludedPackID < edges[j].IncludedPackID })
	}

	return g
}

// Item returns the item with the given id.
func (g *Graph) Item(id int64) (domain.Item, bool) {
	item, ok := g.items[id]
	return item, ok
}

// Pack returns the pack with the given id.
func (g *Graph) Pack(id int64) (domain.Pack, bool) {
	pack, ok := g.packs[id]
	return pack, ok
}

// ItemEdges returns the direct item edges of a pack.
func (g *Graph) ItemEdges(packID int64) []domain.ItemMembership {
	return g.itemEdges[packID]
}

// PackEdges returns the direct sub-pack edges of a pack.
func (g *Graph) PackEdges(packID int64) []domain.PackMembership {
	return g.packEdges[packID]
}

// ItemIDs returns all item ids in ascending order.
func (g *Graph) ItemIDs() []int64 {
	return g.itemIDs
}

// PackIDs returns all pack ids in ascending order.
func (g *Graph) PackIDs() []int64 {
	return g.packIDs
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
