package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/packlist/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
// dsn is a file path or ":memory:". Foreign keys are always enabled so
// deleting an item or pack cascades to its membership edges.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if err := ensureDir(dsn); err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrConnectionFailed)
	}

	// Open database connection
	db, err := sqlx.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// withForeignKeys appends the go-sqlite3 foreign key parameter to dsn.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// ensureDir creates the parent directory of a file-backed database.
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Types
// =============================================================================

// itemRow represents an item row in the database.
type itemRow struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Function string  `db:"function"`
	Weight   float64 `db:"weight"`
	Volume   float64 `db:"volume"`
	Price    float64 `db:"price"`
	Amount   int     `db:"amount"`
}

// packRow represents a pack row in the database.
type packRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Function string `db:"function"`
}

// =============================================================================
// Item Operations
// =============================================================================

func (s *SQLiteStore) CreateItem(ctx context.Context, item *domain.Item) error {
	return createItem(ctx, s.db, item)
}

func (s *SQLiteStore) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return getItem(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateItem(ctx context.Context, item *domain.Item) error {
	return updateItem(ctx, s.db, item)
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	return deleteItem(ctx, s.db, id)
}

func (s *SQLiteStore) ListItems(ctx context.Context, opts ListOptions) ([]domain.Item, error) {
	return listItems(ctx, s.db, opts)
}

// =============================================================================
// Pack Operations
// =============================================================================

func (s *SQLiteStore) CreatePack(ctx context.Context, pack *domain.Pack) error {
	return createPack(ctx, s.db, pack)
}

func (s *SQLiteStore) GetPack(ctx context.Context, id int64) (*domain.Pack, error) {
	return getPack(ctx, s.db, id)
}

func (s *SQLiteStore) UpdatePack(ctx context.Context, pack *domain.Pack) error {
	return updatePack(ctx, s.db, pack)
}

func (s *SQLiteStore) DeletePack(ctx context.Context, id int64) error {
	return deletePack(ctx, s.db, id)
}

func (s *SQLiteStore) ListPacks(ctx context.Context, opts ListOptions) ([]domain.Pack, error) {
	return listPacks(ctx, s.db, opts)
}

// =============================================================================
// Membership Operations
// =============================================================================

func (s *SQLiteStore) InsertItemMembership(ctx context.Context, edge domain.ItemMembership) error {
	return insertItemMembership(ctx, s.db, edge)
}

func (s *SQLiteStore) DeleteItemMemberships(ctx context.Context, packID int64) error {
	return deleteItemMemberships(ctx, s.db, packID)
}

func (s *SQLiteStore) ListItemMembershipsByPack(ctx context.Context, packID int64) ([]domain.ItemMembership, error) {
	return listItemMembershipsByPack(ctx, s.db, packID)
}

func (s *SQLiteStore) InsertPackMembership(ctx context.Context, edge domain.PackMembership) error {
	return insertPackMembership(ctx, s.db, edge)
}

func (s *SQLiteStore) DeletePackMemberships(ctx context.Context, packID int64) error {
	return deletePackMemberships(ctx, s.db, packID)
}

func (s *SQLiteStore) ListPackMembershipsByPack(ctx context.Context, packID int64) ([]domain.PackMembership, error) {
	return listPackMembershipsByPack(ctx, s.db, packID)
}

func (s *SQLiteStore) LoadInventory(ctx context.Context) (*Inventory, error) {
	return loadInventory(ctx, s.db)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateItem(ctx context.Context, item *domain.Item) error {
	return createItem(ctx, s.tx, item)
}

func (s *txSQLiteStore) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return getItem(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateItem(ctx context.Context, item *domain.Item) error {
	return updateItem(ctx, s.tx, item)
}

func (s *txSQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	return deleteItem(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListItems(ctx context.Context, opts ListOptions) ([]domain.Item, error) {
	return listItems(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreatePack(ctx context.Context, pack *domain.Pack) error {
	return createPack(ctx, s.tx, pack)
}

func (s *txSQLiteStore) GetPack(ctx context.Context, id int64) (*domain.Pack, error) {
	return getPack(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdatePack(ctx context.Context, pack *domain.Pack) error {
	return updatePack(ctx, s.tx, pack)
}

func (s *txSQLiteStore) DeletePack(ctx context.Context, id int64) error {
	return deletePack(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListPacks(ctx context.Context, opts ListOptions) ([]domain.Pack, error) {
	return listPacks(ctx, s.tx, opts)
}

func (s *txSQLiteStore) InsertItemMembership(ctx context.Context, edge domain.ItemMembership) error {
	return insertItemMembership(ctx, s.tx, edge)
}

func (s *txSQLiteStore) DeleteItemMemberships(ctx context.Context, packID int64) error {
	return deleteItemMemberships(ctx, s.tx, packID)
}

func (s *txSQLiteStore) ListItemMembershipsByPack(ctx context.Context, packID int64) ([]domain.ItemMembership, error) {
	return listItemMembershipsByPack(ctx, s.tx, packID)
}

func (s *txSQLiteStore) InsertPackMembership(ctx context.Context, edge domain.PackMembership) error {
	return insertPackMembership(ctx, s.tx, edge)
}

func (s *txSQLiteStore) DeletePackMemberships(ctx context.Context, packID int64) error {
	return deletePackMemberships(ctx, s.tx, packID)
}

func (s *txSQLiteStore) ListPackMembershipsByPack(ctx context.Context, packID int64) ([]domain.PackMembership, error) {
	return listPackMembershipsByPack(ctx, s.tx, packID)
}

func (s *txSQLiteStore) LoadInventory(ctx context.Context) (*Inventory, error) {
	return loadInventory(ctx, s.tx)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions - Items
// =============================================================================

func createItem(ctx context.Context, exec executor, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return NewStoreError("CreateItem", "item", "", err.Error(), err)
	}

	query := `
		INSERT INTO items (name, function, weight, volume, price, amount)
		VALUES (:name, :function, :weight, :volume, :price, :amount)`

	result, err := exec.NamedExecContext(ctx, query, itemToRow(item))
	if err != nil {
		return NewStoreError("CreateItem", "item", "", err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateItem", "item", "", "failed to read assigned id", err)
	}
	item.ID = id

	return nil
}

func getItem(ctx context.Context, exec executor, id int64) (*domain.Item, error) {
	query := `SELECT id, name, function, weight, volume, price, amount FROM items WHERE id = ?`

	var row itemRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetItem", "item", formatID(id), "item not found", ErrNotFound)
		}
		return nil, NewStoreError("GetItem", "item", formatID(id), err.Error(), err)
	}

	return rowToItem(&row), nil
}

func updateItem(ctx context.Context, exec executor, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return NewStoreError("UpdateItem", "item", formatID(item.ID), err.Error(), err)
	}

	query := `
		UPDATE items SET
			name = :name,
			function = :function,
			weight = :weight,
			volume = :volume,
			price = :price,
			amount = :amount
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, itemToRow(item))
	if err != nil {
		return NewStoreError("UpdateItem", "item", formatID(item.ID), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateItem", "item", formatID(item.ID), "item not found", ErrNotFound)
	}

	return nil
}

func deleteItem(ctx context.Context, exec executor, id int64) error {
	// Membership edges go with the item (ON DELETE CASCADE)
	query := `DELETE FROM items WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteItem", "item", formatID(id), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteItem", "item", formatID(id), "item not found", ErrNotFound)
	}

	return nil
}

func listItems(ctx context.Context, exec executor, opts ListOptions) ([]domain.Item, error) {
	opts = opts.Normalize()
	query := `SELECT id, name, function, weight, volume, price, amount FROM items ORDER BY id LIMIT ? OFFSET ?`

	var rows []itemRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListItems", "item", "", err.Error(), err)
	}

	return rowsToItems(rows), nil
}

// =============================================================================
// Shared Implementation Functions - Packs
// =============================================================================

func createPack(ctx context.Context, exec executor, pack *domain.Pack) error {
	if err := pack.Validate(); err != nil {
		return NewStoreError("CreatePack", "pack", "", err.Error(), err)
	}

	query := `INSERT INTO packs (name, function) VALUES (:name, :function)`

	result, err := exec.NamedExecContext(ctx, query, packToRow(pack))
	if err != nil {
		return NewStoreError("CreatePack", "pack", "", err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreatePack", "pack", "", "failed to read assigned id", err)
	}
	pack.ID = id

	return nil
}

func getPack(ctx context.Context, exec executor, id int64) (*domain.Pack, error) {
	query := `SELECT id, name, function FROM packs WHERE id = ?`

	var row packRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetPack", "pack", formatID(id), "pack not found", ErrNotFound)
		}
		return nil, NewStoreError("GetPack", "pack", formatID(id), err.Error(), err)
	}

	return rowToPack(&row), nil
}

func updatePack(ctx context.Context, exec executor, pack *domain.Pack) error {
	if err := pack.Validate(); err != nil {
		return NewStoreError("UpdatePack", "pack", formatID(pack.ID), err.Error(), err)
	}

	query := `UPDATE packs SET name = :name, function = :function WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, packToRow(pack))
	if err != nil {
		return NewStoreError("UpdatePack", "pack", formatID(pack.ID), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdatePack", "pack", formatID(pack.ID), "pack not found", ErrNotFound)
	}

	return nil
}

func deletePack(ctx context.Context, exec executor, id int64) error {
	// Edges where the pack is parent or child go with it (ON DELETE CASCADE)
	query := `DELETE FROM packs WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeletePack", "pack", formatID(id), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeletePack", "pack", formatID(id), "pack not found", ErrNotFound)
	}

	return nil
}

func listPacks(ctx context.Context, exec executor, opts ListOptions) ([]domain.Pack, error) {
	opts = opts.Normalize()
	query := `SELECT id, name, function FROM packs ORDER BY id LIMIT ? OFFSET ?`

	var rows []packRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListPacks", "pack", "", err.Error(), err)
	}

	return rowsToPacks(rows), nil
}

// =============================================================================
// Shared Implementation Functions - Memberships
// =============================================================================

func insertItemMembership(ctx context.Context, exec executor, edge domain.ItemMembership) error {
	id := edgeID(edge.PackID, edge.ItemID)
	if err := domain.ValidateSelected(edge.Selected); err != nil {
		return NewStoreError("InsertItemMembership", "item_membership", id, err.Error(), err)
	}

	query := `
		INSERT INTO pack_items (pack_id, item_id, selected)
		VALUES (:pack_id, :item_id, :selected)`

	_, err := exec.NamedExecContext(ctx, query, edge)
	if err != nil {
		return membershipError("InsertItemMembership", "item_membership", id, err)
	}

	return nil
}

func deleteItemMemberships(ctx context.Context, exec executor, packID int64) error {
	query := `DELETE FROM pack_items WHERE pack_id = ?`

	if _, err := exec.ExecContext(ctx, query, packID); err != nil {
		return NewStoreError("DeleteItemMemberships", "item_membership", formatID(packID), err.Error(), err)
	}

	return nil
}

func listItemMembershipsByPack(ctx context.Context, exec executor, packID int64) ([]domain.ItemMembership, error) {
	query := `SELECT pack_id, item_id, selected FROM pack_items WHERE pack_id = ? ORDER BY item_id`

	edges := make([]domain.ItemMembership, 0)
	if err := exec.SelectContext(ctx, &edges, query, packID); err != nil {
		return nil, NewStoreError("ListItemMembershipsByPack", "item_membership", formatID(packID), err.Error(), err)
	}

	return edges, nil
}

func insertPackMembership(ctx context.Context, exec executor, edge domain.PackMembership) error {
	id := edgeID(edge.PackID, edge.IncludedPackID)
	if err := domain.ValidateSelected(edge.Selected); err != nil {
		return NewStoreError("InsertPackMembership", "pack_membership", id, err.Error(), err)
	}
	if edge.PackID == edge.IncludedPackID {
		return NewStoreError("InsertPackMembership", "pack_membership", id, "pack cannot include itself", domain.ErrSelfInclusion)
	}

	query := `
		INSERT INTO pack_packs (pack_id, included_pack_id, selected)
		VALUES (:pack_id, :included_pack_id, :selected)`

	_, err := exec.NamedExecContext(ctx, query, edge)
	if err != nil {
		return membershipError("InsertPackMembership", "pack_membership", id, err)
	}

	return nil
}

func deletePackMemberships(ctx context.Context, exec executor, packID int64) error {
	query := `DELETE FROM pack_packs WHERE pack_id = ?`

	if _, err := exec.ExecContext(ctx, query, packID); err != nil {
		return NewStoreError("DeletePackMemberships", "pack_membership", formatID(packID), err.Error(), err)
	}

	return nil
}

func listPackMembershipsByPack(ctx context.Context, exec executor, packID int64) ([]domain.PackMembership, error) {
	query := `SELECT pack_id, included_pack_id, selected FROM pack_packs WHERE pack_id = ? ORDER BY included_pack_id`

	edges := make([]domain.PackMembership, 0)
	if err := exec.SelectContext(ctx, &edges, query, packID); err != nil {
		return nil, NewStoreError("ListPackMembershipsByPack", "pack_membership", formatID(packID), err.Error(), err)
	}

	return edges, nil
}

// membershipError maps SQLite constraint failures on edge inserts.
func membershipError(op, entity, id string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return NewStoreError(op, entity, id, "membership references a missing item or pack", ErrForeignKey)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return NewStoreError(op, entity, id, "membership already exists", ErrDuplicateID)
	case strings.Contains(msg, "CHECK constraint failed"):
		return NewStoreError(op, entity, id, msg, domain.ErrIntegrityViolation)
	}
	return NewStoreError(op, entity, id, msg, err)
}

// =============================================================================
// Snapshot
// =============================================================================

func loadInventory(ctx context.Context, exec executor) (*Inventory, error) {
	var items []itemRow
	if err := exec.SelectContext(ctx, &items, `SELECT id, name, function, weight, volume, price, amount FROM items ORDER BY id`); err != nil {
		return nil, NewStoreError("LoadInventory", "item", "", err.Error(), err)
	}

	var packs []packRow
	if err := exec.SelectContext(ctx, &packs, `SELECT id, name, function FROM packs ORDER BY id`); err != nil {
		return nil, NewStoreError("LoadInventory", "pack", "", err.Error(), err)
	}

	itemEdges := make([]domain.ItemMembership, 0)
	if err := exec.SelectContext(ctx, &itemEdges, `SELECT pack_id, item_id, selected FROM pack_items`); err != nil {
		return nil, NewStoreError("LoadInventory", "item_membership", "", err.Error(), err)
	}

	packEdges := make([]domain.PackMembership, 0)
	if err := exec.SelectContext(ctx, &packEdges, `SELECT pack_id, included_pack_id, selected FROM pack_packs`); err != nil {
		return nil, NewStoreError("LoadInventory", "pack_membership", "", err.Error(), err)
	}

	return &Inventory{
		Items:           rowsToItems(items),
		Packs:           rowsToPacks(packs),
		ItemMemberships: itemEdges,
		PackMemberships: packEdges,
	}, nil
}

// =============================================================================
// Row Conversion Functions
// =============================================================================

func itemToRow(item *domain.Item) itemRow {
	return itemRow{
		ID:       item.ID,
		Name:     item.Name,
		Function: item.Function,
		Weight:   item.Weight,
		Volume:   item.Volume,
		Price:    item.Price,
		Amount:   item.Amount,
	}
}

// rowToItem converts a database row to a domain.Item.
func rowToItem(row *itemRow) *domain.Item {
	return &domain.Item{
		ID:       row.ID,
		Name:     row.Name,
		Function: row.Function,
		Weight:   row.Weight,
		Volume:   row.Volume,
		Price:    row.Price,
		Amount:   row.Amount,
	}
}

func rowsToItems(rows []itemRow) []domain.Item {
	items := make([]domain.Item, 0, len(rows))
	for i := range rows {
		items = append(items, *rowToItem(&rows[i]))
	}
	return items
}

func packToRow(pack *domain.Pack) packRow {
	return packRow{
		ID:       pack.ID,
		Name:     pack.Name,
		Function: pack.Function,
	}
}

// rowToPack converts a database row to a domain.Pack.
func rowToPack(row *packRow) *domain.Pack {
	return &domain.Pack{
		ID:       row.ID,
		Name:     row.Name,
		Function: row.Function,
	}
}

func rowsToPacks(rows []packRow) []domain.Pack {
	packs := make([]domain.Pack, 0, len(rows))
	for i := range rows {
		packs = append(packs, *rowToPack(&rows[i]))
	}
	return packs
}
