package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/artpar/packlist/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func createTestItem(t *testing.T, store Store, name string, weight float64, amount int) *domain.Item {
	t.Helper()
	item, err := domain.NewItem(name, "test function", weight, weight/2, weight*10, amount)
	require.NoError(t, err)

	err = store.CreateItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

func createTestPack(t *testing.T, store Store, name string) *domain.Pack {
	t.Helper()
	pack, err := domain.NewPack(name, "test pack")
	require.NoError(t, err)

	err = store.CreatePack(context.Background(), pack)
	require.NoError(t, err)
	return pack
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestNewSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()
}

func TestNewSQLiteStore_FileCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "dir", "packlist.db")

	store, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	createTestItem(t, store, "Tent", 2.5, 1)
	require.NoError(t, store.Close())

	// Reopening runs migrations again without error and keeps the data
	store, err = NewSQLiteStore(dsn)
	require.NoError(t, err)
	defer store.Close()

	items, err := store.ListItems(context.Background(), DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tent", items[0].Name)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", withForeignKeys(":memory:"))
	assert.Equal(t, "file:a.db?cache=shared&_foreign_keys=on", withForeignKeys("file:a.db?cache=shared"))
}

// =============================================================================
// Item Tests
// =============================================================================

func TestCreateItem_AssignsID(t *testing.T) {
	store := setupTestStore(t)

	first := createTestItem(t, store, "Stove", 0.4, 2)
	second := createTestItem(t, store, "Pot", 0.3, 1)

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestCreateItem_Invalid(t *testing.T) {
	store := setupTestStore(t)

	item := &domain.Item{Name: "Broken", Weight: -1}
	err := store.CreateItem(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWeightNegative)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, item.ID)
}

func TestGetItem(t *testing.T) {
	store := setupTestStore(t)
	created := createTestItem(t, store, "Sleeping Bag", 1.2, 3)

	got, err := store.GetItem(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

func TestGetItem_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetItem(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "GetItem", storeErr.Op)
	assert.Equal(t, "42", storeErr.ID)
}

func TestUpdateItem(t *testing.T) {
	store := setupTestStore(t)
	item := createTestItem(t, store, "Lamp", 0.2, 1)

	item.Name = "Headlamp"
	item.Amount = 4
	require.NoError(t, store.UpdateItem(context.Background(), item))

	got, err := store.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Headlamp", got.Name)
	assert.Equal(t, 4, got.Amount)
}

func TestUpdateItem_NotFound(t *testing.T) {
	store := setupTestStore(t)

	item := &domain.Item{ID: 7, Name: "Ghost"}
	err := store.UpdateItem(context.Background(), item)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItem(t *testing.T) {
	store := setupTestStore(t)
	item := createTestItem(t, store, "Rope", 0.8, 1)

	require.NoError(t, store.DeleteItem(context.Background(), item.ID))

	_, err := store.GetItem(context.Background(), item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteItem(context.Background(), item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListItems_Pagination(t *testing.T) {
	store := setupTestStore(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		createTestItem(t, store, name, 1, 1)
	}

	all, err := store.ListItems(context.Background(), DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "a", all[0].Name)

	page, err := store.ListItems(context.Background(), ListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Name)
	assert.Equal(t, "d", page[1].Name)
}

func TestListItems_Empty(t *testing.T) {
	store := setupTestStore(t)

	items, err := store.ListItems(context.Background(), DefaultListOptions())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

// =============================================================================
// Pack Tests
// =============================================================================

func TestPackCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pack := createTestPack(t, store, "Kitchen")
	assert.NotZero(t, pack.ID)

	got, err := store.GetPack(ctx, pack.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", got.Name)

	pack.Function = "cooking gear"
	require.NoError(t, store.UpdatePack(ctx, pack))

	got, err = store.GetPack(ctx, pack.ID)
	require.NoError(t, err)
	assert.Equal(t, "cooking gear", got.Function)

	packs, err := store.ListPacks(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, packs, 1)

	require.NoError(t, store.DeletePack(ctx, pack.ID))
	_, err = store.GetPack(ctx, pack.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPack_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetPack(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdatePack(ctx, &domain.Pack{ID: 3, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeletePack(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePack_NameRequired(t *testing.T) {
	store := setupTestStore(t)

	err := store.CreatePack(context.Background(), &domain.Pack{Name: ""})
	assert.ErrorIs(t, err, domain.ErrNameRequired)
}

// =============================================================================
// Membership Tests
// =============================================================================

func TestItemMembership_InsertAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pack := createTestPack(t, store, "Bike")
	tube := createTestItem(t, store, "Tube", 0.1, 4)
	pump := createTestItem(t, store, "Pump", 0.3, 1)

	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: pump.ID, Selected: 1}))
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: tube.ID, Selected: 2}))

	edges, err := store.ListItemMembershipsByPack(ctx, pack.ID)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, tube.ID, edges[0].ItemID)
	assert.Equal(t, 2, edges[0].Selected)
	assert.Equal(t, pump.ID, edges[1].ItemID)
}

func TestItemMembership_Errors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pack := createTestPack(t, store, "Bike")
	tube := createTestItem(t, store, "Tube", 0.1, 4)
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: tube.ID, Selected: 1}))

	testCases := []struct {
		name    string
		edge    domain.ItemMembership
		wantErr error
	}{
		{"zero selected", domain.ItemMembership{PackID: pack.ID, ItemID: tube.ID, Selected: 0}, domain.ErrSelectedNotPositive},
		{"negative selected", domain.ItemMembership{PackID: pack.ID, ItemID: tube.ID, Selected: -2}, domain.ErrValidation},
		{"missing item", domain.ItemMembership{PackID: pack.ID, ItemID: 999, Selected: 1}, ErrForeignKey},
		{"missing pack", domain.ItemMembership{PackID: 999, ItemID: tube.ID, Selected: 1}, ErrForeignKey},
		{"duplicate", domain.ItemMembership{PackID: pack.ID, ItemID: tube.ID, Selected: 3}, ErrDuplicateID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.InsertItemMembership(ctx, tc.edge)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Nothing but the original edge was written
	edges, err := store.ListItemMembershipsByPack(ctx, pack.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, 1, edges[0].Selected)
}

func TestPackMembership_InsertAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	outer := createTestPack(t, store, "Outer")
	inner := createTestPack(t, store, "Inner")

	require.NoError(t, store.InsertPackMembership(ctx, domain.PackMembership{PackID: outer.ID, IncludedPackID: inner.ID, Selected: 3}))

	edges, err := store.ListPackMembershipsByPack(ctx, outer.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, domain.PackMembership{PackID: outer.ID, IncludedPackID: inner.ID, Selected: 3}, edges[0])

	edges, err = store.ListPackMembershipsByPack(ctx, inner.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestPackMembership_Errors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pack := createTestPack(t, store, "P")
	other := createTestPack(t, store, "Q")

	err := store.InsertPackMembership(ctx, domain.PackMembership{PackID: pack.ID, IncludedPackID: pack.ID, Selected: 1})
	assert.ErrorIs(t, err, domain.ErrSelfInclusion)
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)

	err = store.InsertPackMembership(ctx, domain.PackMembership{PackID: pack.ID, IncludedPackID: 999, Selected: 1})
	assert.ErrorIs(t, err, ErrForeignKey)

	err = store.InsertPackMembership(ctx, domain.PackMembership{PackID: pack.ID, IncludedPackID: other.ID, Selected: 0})
	assert.ErrorIs(t, err, domain.ErrSelectedNotPositive)
}

func TestDeleteMemberships_OnlyThatPack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := createTestPack(t, store, "A")
	b := createTestPack(t, store, "B")
	c := createTestPack(t, store, "C")
	item := createTestItem(t, store, "Knife", 0.1, 2)

	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: a.ID, ItemID: item.ID, Selected: 1}))
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: b.ID, ItemID: item.ID, Selected: 1}))
	require.NoError(t, store.InsertPackMembership(ctx, domain.PackMembership{PackID: a.ID, IncludedPackID: c.ID, Selected: 1}))
	require.NoError(t, store.InsertPackMembership(ctx, domain.PackMembership{PackID: b.ID, IncludedPackID: c.ID, Selected: 1}))

	require.NoError(t, store.DeleteItemMemberships(ctx, a.ID))
	require.NoError(t, store.DeletePackMemberships(ctx, a.ID))

	inv, err := store.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemMembership{{PackID: b.ID, ItemID: item.ID, Selected: 1}}, inv.ItemMemberships)
	assert.Equal(t, []domain.PackMembership{{PackID: b.ID, IncludedPackID: c.ID, Selected: 1}}, inv.PackMemberships)
}

// =============================================================================
// Cascade Tests
// =============================================================================

func TestDeleteItem_CascadesToMemberships(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pack := createTestPack(t, store, "Hiking")
	boots := createTestItem(t, store, "Boots", 1.5, 1)
	hat := createTestItem(t, store, "Hat", 0.1, 1)

	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: boots.ID, Selected: 1}))
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: hat.ID, Selected: 1}))

	require.NoError(t, store.DeleteItem(ctx, boots.ID))

	edges, err := store.ListItemMembershipsByPack(ctx, pack.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, hat.ID, edges[0].ItemID)
}

func TestDeletePack_CascadesBothDirections(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	parent := createTestPack(t, store, "Parent")
	middle := createTestPack(t, store, "Middle")
	child := createTestPack(t, store, "Child")
	item := createTestItem(t, store, "Cup", 0.2, 1)

	require.NoError(t, store.InsertPackMembership(ctx, domain.PackMembership{PackID: parent.ID, IncludedPackID: middle.ID, Selected: 1}))
	require.NoError(t, store.InsertPackMembership(ctx, domain.PackMembership{PackID: middle.ID, IncludedPackID: child.ID, Selected: 1}))
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: middle.ID, ItemID: item.ID, Selected: 1}))

	require.NoError(t, store.DeletePack(ctx, middle.ID))

	inv, err := store.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, inv.ItemMemberships)
	assert.Empty(t, inv.PackMemberships)
	assert.Len(t, inv.Packs, 2)
	assert.Len(t, inv.Items, 1)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var packID int64
	err := store.WithTx(ctx, func(tx Store) error {
		pack, err := domain.NewPack("Tx Pack", "")
		if err != nil {
			return err
		}
		if err := tx.CreatePack(ctx, pack); err != nil {
			return err
		}
		packID = pack.ID

		item, err := domain.NewItem("Tx Item", "", 1, 1, 1, 1)
		if err != nil {
			return err
		}
		if err := tx.CreateItem(ctx, item); err != nil {
			return err
		}
		return tx.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: item.ID, Selected: 2})
	})
	require.NoError(t, err)

	edges, err := store.ListItemMembershipsByPack(ctx, packID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestWithTx_Rollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	pack := createTestPack(t, store, "Keep")
	item := createTestItem(t, store, "Keep Item", 1, 1)
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: item.ID, Selected: 1}))

	err := store.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteItemMemberships(ctx, pack.ID); err != nil {
			return err
		}
		// Fails on the foreign key and rolls back the delete above
		return tx.InsertItemMembership(ctx, domain.ItemMembership{PackID: pack.ID, ItemID: 999, Selected: 1})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForeignKey)

	edges, err := store.ListItemMembershipsByPack(ctx, pack.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, item.ID, edges[0].ItemID)
}

func TestWithTx_Nested(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			return inner.CreatePack(ctx, &domain.Pack{Name: "Nested"})
		})
	})
	require.NoError(t, err)

	packs, err := store.ListPacks(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, packs, 1)
}

// =============================================================================
// Snapshot Tests
// =============================================================================

func TestLoadInventory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	empty, err := store.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Empty(t, empty.Packs)

	a := createTestPack(t, store, "A")
	b := createTestPack(t, store, "B")
	item := createTestItem(t, store, "Map", 0.05, 2)
	require.NoError(t, store.InsertItemMembership(ctx, domain.ItemMembership{PackID: b.ID, ItemID: item.ID, Selected: 1}))
	require.NoError(t, store.InsertPackMembership(ctx, domain.PackMembership{PackID: a.ID, IncludedPackID: b.ID, Selected: 2}))

	inv, err := store.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{*item}, inv.Items)
	assert.Equal(t, []domain.Pack{*a, *b}, inv.Packs)
	assert.Len(t, inv.ItemMemberships, 1)
	assert.Len(t, inv.PackMemberships, 1)
}

// =============================================================================
// Options Tests
// =============================================================================

func TestListOptions_Normalize(t *testing.T) {
	testCases := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"defaults", ListOptions{}, ListOptions{Limit: 100, Offset: 0}},
		{"cap", ListOptions{Limit: 5000, Offset: 3}, ListOptions{Limit: 1000, Offset: 3}},
		{"negative offset", ListOptions{Limit: 10, Offset: -1}, ListOptions{Limit: 10, Offset: 0}},
		{"unchanged", ListOptions{Limit: 50, Offset: 20}, ListOptions{Limit: 50, Offset: 20}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}
