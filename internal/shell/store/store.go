package store

import (
	"context"

	"github.com/artpar/packlist/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for items, packs and their
// membership edges. It holds no business logic: cycle checks and derived
// attributes live in internal/core/composition.
type Store interface {
	// Item operations (Attribute Store)
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) error
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, opts ListOptions) ([]domain.Item, error)

	// Pack operations (Attribute Store)
	CreatePack(ctx context.Context, pack *domain.Pack) error
	GetPack(ctx context.Context, id int64) (*domain.Pack, error)
	UpdatePack(ctx context.Context, pack *domain.Pack) error
	DeletePack(ctx context.Context, id int64) error
	ListPacks(ctx context.Context, opts ListOptions) ([]domain.Pack, error)

	// Item membership operations (Membership Store)
	InsertItemMembership(ctx context.Context, edge domain.ItemMembership) error
	DeleteItemMemberships(ctx context.Context, packID int64) error
	ListItemMembershipsByPack(ctx context.Context, packID int64) ([]domain.ItemMembership, error)

	// Pack membership operations (Membership Store)
	InsertPackMembership(ctx context.Context, edge domain.PackMembership) error
	DeletePackMemberships(ctx context.Context, packID int64) error
	ListPackMembershipsByPack(ctx context.Context, packID int64) ([]domain.PackMembership, error)

	// LoadInventory reads every row of every table. Call it inside WithTx
	// to get a consistent snapshot.
	LoadInventory(ctx context.Context) (*Inventory, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// Inventory is the full content of the store as flat rows.
type Inventory struct {
	Items           []domain.Item
	Packs           []domain.Pack
	ItemMemberships []domain.ItemMembership
	PackMemberships []domain.PackMembership
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
