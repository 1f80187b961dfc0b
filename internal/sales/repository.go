package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpad/retailpad/internal/platform/db"
)

const saleColumnsPG = `id, owner_id, sale_date::text, to_char(sale_time, 'HH24:MI:SS'), subtotal, total_discount,
final_total, idempotency_key, created_at`

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn in a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (t *txRepo) CreateSale(ctx context.Context, s Sale) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sales
(id, owner_id, sale_date, sale_time, subtotal, total_discount, final_total, idempotency_key, created_at)
VALUES ($1, $2, $3::text::date, $4::text::time, $5, $6, $7, $8, $9)`,
		s.ID, s.OwnerID, s.SaleDate, s.SaleTime, s.Subtotal, s.TotalDiscount, s.FinalTotal, s.IdempotencyKey, s.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateSale
	}
	return err
}

func (t *txRepo) CreateSaleItems(ctx context.Context, items []SaleItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO sale_items
(id, sale_id, product_ref, item_name, quantity, unit_price, discount_percent, total, line_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.SaleID, it.ProductRef, it.ItemName, it.Quantity, it.UnitPrice, it.DiscountPercent, it.Total, it.LineOrder)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *txRepo) DecrementStock(ctx context.Context, owner, productRef uuid.UUID, qty int) (StockLevel, error) {
	level := StockLevel{Found: true}
	err := t.tx.QueryRow(ctx, `UPDATE inventory_items
SET stock_quantity = stock_quantity - $3, updated_at = NOW()
WHERE id = $1 AND owner_id = $2 AND stock_quantity >= $3
RETURNING name, stock_quantity, reorder_point`, productRef, owner, qty).Scan(&level.Name, &level.Remaining, &level.ReorderPoint)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return StockLevel{}, err
	}
	err = t.tx.QueryRow(ctx, `SELECT name, stock_quantity, reorder_point FROM inventory_items WHERE id = $1 AND owner_id = $2`,
		productRef, owner).Scan(&level.Name, &level.Remaining, &level.ReorderPoint)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockLevel{}, ErrInsufficientStock
	}
	if err != nil {
		return StockLevel{}, err
	}
	return level, ErrInsufficientStock
}

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.OwnerID, &s.SaleDate, &s.SaleTime, &s.Subtotal, &s.TotalDiscount, &s.FinalTotal,
		&s.IdempotencyKey, &s.CreatedAt)
	return s, err
}

func (r *Repository) FindSaleByKey(ctx context.Context, owner uuid.UUID, key string) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumnsPG+` FROM sales WHERE owner_id = $1 AND idempotency_key = $2`, owner, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	return r.withItems(ctx, s)
}

func (r *Repository) GetSale(ctx context.Context, owner, id uuid.UUID) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumnsPG+` FROM sales WHERE owner_id = $1 AND id = $2`, owner, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	return r.withItems(ctx, s)
}

func (r *Repository) withItems(ctx context.Context, s Sale) (Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_ref, item_name, quantity, unit_price, discount_percent, total, line_order
FROM sale_items WHERE sale_id = $1 ORDER BY line_order`, s.ID)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductRef, &it.ItemName, &it.Quantity, &it.UnitPrice,
			&it.DiscountPercent, &it.Total, &it.LineOrder); err != nil {
			return Sale{}, err
		}
		s.Items = append(s.Items, it)
	}
	return s, rows.Err()
}

func (r *Repository) ListSales(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Sale, int, error) {
	from, to := dateBounds(filter.From, filter.To)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE owner_id = $1 AND sale_date BETWEEN $2::date AND $3::date`,
		owner, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumnsPG+` FROM sales
WHERE owner_id = $1 AND sale_date BETWEEN $2::date AND $3::date
ORDER BY sale_date DESC, sale_time DESC, created_at DESC
LIMIT $4 OFFSET $5`, owner, from, to, filter.Page.Limit(), filter.Page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *Repository) DailySummary(ctx context.Context, owner uuid.UUID, from, to string) ([]DailySummary, error) {
	from, to = dateBounds(from, to)
	rows, err := r.pool.Query(ctx, `SELECT sale_date::text, COUNT(*), COALESCE(SUM(final_total), 0)
FROM sales WHERE owner_id = $1 AND sale_date BETWEEN $2::date AND $3::date
GROUP BY sale_date ORDER BY sale_date`, owner, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailySummary
	for rows.Next() {
		var d DailySummary
		if err := rows.Scan(&d.Date, &d.SaleCount, &d.Revenue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) HasSalesOn(ctx context.Context, owner uuid.UUID, date string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE owner_id = $1 AND sale_date = $2::date)`, owner, date).Scan(&exists)
	return exists, err
}

func dateBounds(from, to string) (string, string) {
	if from == "" {
		from = "0001-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	return from, to
}
