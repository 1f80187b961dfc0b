package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpad/retailpad/internal/platform/db"
)

const itemColumns = `id, owner_id, name, sku, price, purchase_price, stock_quantity, reorder_point,
category, velocity, vendor_id, created_at, updated_at`

// Repository persists items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.OwnerID, &it.Name, &it.SKU, &it.Price, &it.PurchasePrice, &it.StockQuantity,
		&it.ReorderPoint, &it.Category, &it.Velocity, &it.VendorID, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *Repository) Create(ctx context.Context, item Item) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO inventory_items (`+itemColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		item.ID, item.OwnerID, item.Name, item.SKU, item.Price, item.PurchasePrice, item.StockQuantity,
		item.ReorderPoint, item.Category, item.Velocity, item.VendorID, item.CreatedAt, item.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateSKU
	}
	return err
}

func (r *Repository) Get(ctx context.Context, owner, id uuid.UUID) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 AND owner_id = $2`, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (r *Repository) List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Item, int, error) {
	where := []string{"owner_id = $1"}
	args := []any{owner}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", n, n))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.LowStockOnly {
		args = append(args, filter.DefaultReorderPoint)
		where = append(where, fmt.Sprintf("stock_quantity <= COALESCE(reorder_point, $%d)", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		itemColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectItems(rows)
	return items, total, err
}

func (r *Repository) ListByIDs(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE owner_id = $1 AND id = ANY($2)`, owner, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *Repository) Update(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `UPDATE inventory_items SET name = $3, sku = $4, price = $5, purchase_price = $6,
stock_quantity = $7, reorder_point = $8, category = $9, velocity = $10, vendor_id = $11, updated_at = $12
WHERE id = $1 AND owner_id = $2`,
		item.ID, item.OwnerID, item.Name, item.SKU, item.Price, item.PurchasePrice, item.StockQuantity,
		item.ReorderPoint, item.Category, item.Velocity, item.VendorID, item.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateSKU
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AdjustStock(ctx context.Context, owner, id uuid.UUID, delta int) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `UPDATE inventory_items
SET stock_quantity = GREATEST(stock_quantity + $3, 0), updated_at = NOW()
WHERE id = $1 AND owner_id = $2
RETURNING `+itemColumns, id, owner, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
