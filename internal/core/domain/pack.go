package domain

import "strings"

// =============================================================================
// Pack
// =============================================================================

// Pack is a composite of items and other packs. Only name and function are
// stored; weight, volume, price and buildable amount are derived on demand
// from the pack's membership edges.
type Pack struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Function string `json:"function"`
}

// NewPack creates a validated pack. The id is assigned by the store.
func NewPack(name, function string) (*Pack, error) {
	pack := &Pack{
		Name:     strings.TrimSpace(name),
		Function: function,
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return pack, nil
}

// Validate checks the pack's stored attributes.
func (p Pack) Validate() error {
	return ValidateName(p.Name)
}

// =============================================================================
// Membership Edges
// =============================================================================

// ItemMembership records how many units of an item one instance of a pack
// requires. Selected is always > 0; absence of an edge means "not included".
type ItemMembership struct {
	PackID   int64 `json:"pack_id" db:"pack_id"`
	ItemID   int64 `json:"item_id" db:"item_id"`
	Selected int   `json:"selected" db:"selected"`
}

// PackMembership records how many instances of a sub-pack one instance of a
// pack requires. The graph of all pack memberships is acyclic.
type PackMembership struct {
	PackID         int64 `json:"pack_id" db:"pack_id"`
	IncludedPackID int64 `json:"included_pack_id" db:"included_pack_id"`
	Selected       int   `json:"selected" db:"selected"`
}
