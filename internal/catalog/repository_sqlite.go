package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/retailpad/retailpad/internal/platform/sqlite"
)

// SQLiteRepository persists items in the embedded store.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, item Item) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO inventory_items (`+itemColumns+`)
VALUES (:id, :owner_id, :name, :sku, :price, :purchase_price, :stock_quantity, :reorder_point,
:category, :velocity, :vendor_id, :created_at, :updated_at)`, item)
	if sqlite.IsUniqueViolation(err) {
		return ErrDuplicateSKU
	}
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, id uuid.UUID) (Item, error) {
	var it Item
	err := r.db.GetContext(ctx, &it, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ? AND owner_id = ?`, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (r *SQLiteRepository) List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Item, int, error) {
	where := []string{"owner_id = ?"}
	args := []any{owner}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, "(name LIKE ? OR sku LIKE ?)")
		args = append(args, like, like)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.LowStockOnly {
		where = append(where, "stock_quantity <= COALESCE(reorder_point, ?)")
		args = append(args, filter.DefaultReorderPoint)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inventory_items WHERE `+clause, args...); err != nil {
		return nil, 0, err
	}
	var items []Item
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	err := r.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM inventory_items WHERE `+clause+
		` ORDER BY name, id LIMIT ? OFFSET ?`, args...)
	return items, total, err
}

func (r *SQLiteRepository) ListByIDs(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) ([]Item, error) {
	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM inventory_items WHERE owner_id = ? AND id IN (?)`, owner, ids)
	if err != nil {
		return nil, err
	}
	var items []Item
	err = r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...)
	return items, err
}

func (r *SQLiteRepository) Update(ctx context.Context, item Item) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE inventory_items SET name = :name, sku = :sku, price = :price,
purchase_price = :purchase_price, stock_quantity = :stock_quantity, reorder_point = :reorder_point,
category = :category, velocity = :velocity, vendor_id = :vendor_id, updated_at = :updated_at
WHERE id = :id AND owner_id = :owner_id`, item)
	if sqlite.IsUniqueViolation(err) {
		return ErrDuplicateSKU
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLiteRepository) AdjustStock(ctx context.Context, owner, id uuid.UUID, delta int) (Item, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE inventory_items
SET stock_quantity = MAX(stock_quantity + ?, 0), updated_at = ?
WHERE id = ? AND owner_id = ?`, delta, time.Now().UTC(), id, owner)
	if err != nil {
		return Item{}, err
	}
	if err := requireRow(res); err != nil {
		return Item{}, err
	}
	return r.Get(ctx, owner, id)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
