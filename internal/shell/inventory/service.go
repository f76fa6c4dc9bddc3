// Package inventory provides the item and pack operations offered to UI
// collaborators.
// This is part of the Imperative Shell - it loads snapshots from the store,
// calls the pure composition engine and commits writes in one transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artpar/packlist/internal/core/composition"
	"github.com/artpar/packlist/internal/core/domain"
	"github.com/artpar/packlist/internal/shell/store"
)

// =============================================================================
// Inventory Service
// =============================================================================

// Service wraps a Store with the pack composition engine.
// Every operation loads a fresh graph from the store; nothing is cached
// between calls.
type Service struct {
	store    store.Store
	defaults domain.Defaults
	logger   *slog.Logger
}

// NewService creates a new inventory service.
// defaults are returned unchanged by Defaults.
func NewService(s store.Store, defaults domain.Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		defaults: defaults,
		logger:   logger,
	}
}

// Defaults returns the prefill values of the new-item and new-pack forms
// together with the unit labels.
func (s *Service) Defaults() domain.Defaults {
	return s.defaults
}

// WithTx runs fn with a Service bound to a single transaction. Every
// operation fn performs commits together, or none does if fn fails.
func (s *Service) WithTx(ctx context.Context, fn func(*Service) error) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		return fn(NewService(tx, s.defaults, s.logger))
	})
}

// =============================================================================
// Inputs
// =============================================================================

// ItemInput holds the editable attributes of an item.
type ItemInput struct {
	Name     string
	Function string
	Weight   float64
	Volume   float64
	Price    float64
	Amount   int
}

// PackInput holds the editable attributes of a pack. A nil selection leaves
// that kind of edge untouched on update and means "none" on create.
type PackInput struct {
	Name     string
	Function string
	Items    *domain.Selection
	Packs    *domain.Selection
}

// =============================================================================
// Items
// =============================================================================

// CreateItem validates and stores a new item.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (*domain.Item, error) {
	item, err := domain.NewItem(in.Name, in.Function, in.Weight, in.Volume, in.Price, in.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("item created", "item_id", item.ID, "name", item.Name)
	return item, nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.store.GetItem(ctx, id)
}

// ListItems returns items ordered by id.
func (s *Service) ListItems(ctx context.Context, opts store.ListOptions) ([]domain.Item, error) {
	return s.store.ListItems(ctx, opts)
}

// UpdateItem replaces the attributes of an existing item. Packs that include
// the item see the new values on their next resolution.
func (s *Service) UpdateItem(ctx context.Context, id int64, in ItemInput) (*domain.Item, error) {
	item, err := domain.NewItem(in.Name, in.Function, in.Weight, in.Volume, in.Price, in.Amount)
	if err != nil {
		return nil, err
	}
	item.ID = id

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.Info("item updated", "item_id", item.ID, "name", item.Name)
	return item, nil
}

// DeleteItem removes an item and every membership edge that references it.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		return tx.DeleteItem(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.Info("item deleted", "item_id", id)
	return nil
}

// =============================================================================
// Packs
// =============================================================================

// CreatePack stores a new pack together with its edges. Either the pack and
// all of its edges are written or nothing is.
func (s *Service) CreatePack(ctx context.Context, in PackInput) (*domain.Pack, error) {
	pack, err := domain.NewPack(in.Name, in.Function)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreatePack(ctx, pack); err != nil {
			return err
		}
		return s.replaceEdges(ctx, tx, pack.ID, in.Items, in.Packs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}

	s.logger.Info("pack created", "pack_id", pack.ID, "name", pack.Name)
	return pack, nil
}

// GetPack returns one pack.
func (s *Service) GetPack(ctx context.Context, id int64) (*domain.Pack, error) {
	return s.store.GetPack(ctx, id)
}

// ListPacks returns packs ordered by id.
func (s *Service) ListPacks(ctx context.Context, opts store.ListOptions) ([]domain.Pack, error) {
	return s.store.ListPacks(ctx, opts)
}

// UpdatePack replaces the name and function of a pack and, for every
// non-nil selection in the input, its edges of that kind.
func (s *Service) UpdatePack(ctx context.Context, id int64, in PackInput) (*domain.Pack, error) {
	pack, err := domain.NewPack(in.Name, in.Function)
	if err != nil {
		return nil, err
	}
	pack.ID = id

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.UpdatePack(ctx, pack); err != nil {
			return err
		}
		return s.replaceEdges(ctx, tx, pack.ID, in.Items, in.Packs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update pack: %w", err)
	}

	s.logger.Info("pack updated", "pack_id", pack.ID, "name", pack.Name)
	return pack, nil
}

// DeletePack removes a pack and every edge where it is parent or child.
func (s *Service) DeletePack(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		return tx.DeletePack(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete pack: %w", err)
	}

	s.logger.Info("pack deleted", "pack_id", id)
	return nil
}

// =============================================================================
// Composition
// =============================================================================

// ResolveAttributes computes the aggregate weight, volume, price and
// buildable amount of a pack.
func (s *Service) ResolveAttributes(ctx context.Context, packID int64) (domain.Attributes, error) {
	var attrs domain.Attributes
	err := s.withGraph(ctx, func(g *composition.Graph) error {
		var err error
		attrs, err = composition.Resolve(g, packID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvariantBroken) {
			s.logger.Error("pack graph invariant broken", "pack_id", packID, "error", err)
		}
		return domain.Attributes{}, err
	}
	return attrs, nil
}

// WouldCreateCycle reports whether including candidateID in packID would make
// a pack contain itself. Both packs must exist.
func (s *Service) WouldCreateCycle(ctx context.Context, packID, candidateID int64) (bool, error) {
	var cycle bool
	err := s.withGraph(ctx, func(g *composition.Graph) error {
		if _, ok := g.Pack(packID); !ok {
			return fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
		}
		if _, ok := g.Pack(candidateID); !ok {
			return fmt.Errorf("pack %d: %w", candidateID, domain.ErrNotFound)
		}
		cycle = composition.WouldCreateCycle(g, packID, candidateID)
		return nil
	})
	return cycle, err
}

// =============================================================================
// Membership Queries
// =============================================================================

// ItemsIn returns the items included in a pack with their quantities.
func (s *Service) ItemsIn(ctx context.Context, packID int64) ([]composition.ItemEntry, error) {
	return queryGraph(ctx, s, packID, composition.ItemsIn)
}

// ItemsNotIn returns every item the pack does not include.
func (s *Service) ItemsNotIn(ctx context.Context, packID int64) ([]composition.ItemEntry, error) {
	return queryGraph(ctx, s, packID, composition.ItemsNotIn)
}

// PacksIn returns the sub-packs directly included in a pack.
func (s *Service) PacksIn(ctx context.Context, packID int64) ([]composition.PackEntry, error) {
	return queryGraph(ctx, s, packID, composition.PacksIn)
}

// PacksNotIn returns the packs that may still be included in a pack.
// Candidates that would close a cycle, the pack itself included, are left out.
func (s *Service) PacksNotIn(ctx context.Context, packID int64) ([]composition.PackEntry, error) {
	return queryGraph(ctx, s, packID, composition.PacksNotIn)
}

func queryGraph[T any](ctx context.Context, s *Service, packID int64, fn func(*composition.Graph, int64) ([]T, error)) ([]T, error) {
	var result []T
	err := s.withGraph(ctx, func(g *composition.Graph) error {
		var err error
		result, err = fn(g, packID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// =============================================================================
// Selections
// =============================================================================

// SetItemSelections replaces every item edge of a pack with sel.
// Applying the same selection twice leaves the same edges.
func (s *Service) SetItemSelections(ctx context.Context, packID int64, sel domain.Selection) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		return s.replaceEdges(ctx, tx, packID, &sel, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to set item selections: %w", err)
	}

	s.logger.Info("item selections replaced", "pack_id", packID, "count", sel.Len())
	return nil
}

// SetPackSelections replaces every sub-pack edge of a pack with sel. The
// whole selection is rejected, and nothing written, if any entry is
// missing, is the pack itself or would close a cycle.
func (s *Service) SetPackSelections(ctx context.Context, packID int64, sel domain.Selection) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		return s.replaceEdges(ctx, tx, packID, nil, &sel)
	})
	if err != nil {
		return fmt.Errorf("failed to set pack selections: %w", err)
	}

	s.logger.Info("pack selections replaced", "pack_id", packID, "count", sel.Len())
	return nil
}

// replaceEdges validates both selections against a snapshot taken inside tx
// and then rewrites the pack's edges. Nil selections are skipped.
func (s *Service) replaceEdges(ctx context.Context, tx store.Store, packID int64, items, packs *domain.Selection) error {
	if items == nil && packs == nil {
		return nil
	}

	g, err := loadGraph(ctx, tx)
	if err != nil {
		return err
	}
	if _, ok := g.Pack(packID); !ok {
		return fmt.Errorf("pack %d: %w", packID, domain.ErrNotFound)
	}

	if items != nil {
		if err := composition.ValidateItemSelection(g, *items); err != nil {
			return err
		}
	}
	if packs != nil {
		if err := composition.ValidatePackSelection(g, packID, *packs); err != nil {
			if errors.Is(err, domain.ErrCycle) || errors.Is(err, domain.ErrSelfInclusion) {
				s.logger.Warn("rejected sub-pack selection", "pack_id", packID, "error", err)
			}
			return err
		}
	}

	if items != nil {
		if err := s.replaceItemEdges(ctx, tx, packID, *items); err != nil {
			return err
		}
	}
	if packs != nil {
		if err := s.replacePackEdges(ctx, tx, packID, *packs); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) replaceItemEdges(ctx context.Context, tx store.Store, packID int64, sel domain.Selection) error {
	current, err := tx.ListItemMembershipsByPack(ctx, packID)
	if err != nil {
		return err
	}
	if sameItemEdges(current, sel) {
		s.logger.Debug("item selection unchanged", "pack_id", packID)
		return nil
	}

	if err := tx.DeleteItemMemberships(ctx, packID); err != nil {
		return err
	}
	for _, edge := range sel.ItemMemberships(packID) {
		if err := tx.InsertItemMembership(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) replacePackEdges(ctx context.Context, tx store.Store, packID int64, sel domain.Selection) error {
	current, err := tx.ListPackMembershipsByPack(ctx, packID)
	if err != nil {
		return err
	}
	if samePackEdges(current, sel) {
		s.logger.Debug("sub-pack selection unchanged", "pack_id", packID)
		return nil
	}

	if err := tx.DeletePackMemberships(ctx, packID); err != nil {
		return err
	}
	for _, edge := range sel.PackMemberships(packID) {
		if err := tx.InsertPackMembership(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

// sameItemEdges reports whether the stored edges already equal sel.
func sameItemEdges(current []domain.ItemMembership, sel domain.Selection) bool {
	if len(current) != sel.Len() {
		return false
	}
	for _, e := range current {
		if sel.Quantity(e.ItemID) != e.Selected {
			return false
		}
	}
	return true
}

func samePackEdges(current []domain.PackMembership, sel domain.Selection) bool {
	if len(current) != sel.Len() {
		return false
	}
	for _, e := range current {
		if sel.Quantity(e.IncludedPackID) != e.Selected {
			return false
		}
	}
	return true
}

// =============================================================================
// Snapshot Helpers
// =============================================================================

// withGraph runs fn against a graph loaded in a single transaction so it
// never mixes edge sets from before and after a concurrent edit.
func (s *Service) withGraph(ctx context.Context, fn func(*composition.Graph) error) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		g, err := loadGraph(ctx, tx)
		if err != nil {
			return err
		}
		return fn(g)
	})
}

func loadGraph(ctx context.Context, st store.Store) (*composition.Graph, error) {
	inv, err := st.LoadInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return composition.NewGraph(inv.Items, inv.Packs, inv.ItemMemberships, inv.PackMemberships), nil
}
