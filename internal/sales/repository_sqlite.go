package sales

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/platform/sqlite"
)

const saleColumns = `id, owner_id, sale_date, sale_time, subtotal, total_discount, final_total, idempotency_key, created_at`

const saleItemColumns = `id, sale_id, product_ref, item_name, quantity, unit_price, discount_percent, total, line_order`

// SQLiteRepository persists sales in the embedded store.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type sqliteTx struct {
	tx *sqlx.Tx
}

// WithTx runs fn in a transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &sqliteTx{tx: tx})
	})
}

func (t *sqliteTx) CreateSale(ctx context.Context, s Sale) error {
	_, err := t.tx.NamedExecContext(ctx, `INSERT INTO sales (`+saleColumns+`)
VALUES (:id, :owner_id, :sale_date, :sale_time, :subtotal, :total_discount, :final_total, :idempotency_key, :created_at)`, s)
	if sqlite.IsUniqueViolation(err) {
		return ErrDuplicateSale
	}
	return err
}

func (t *sqliteTx) CreateSaleItems(ctx context.Context, items []SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := t.tx.NamedExecContext(ctx, `INSERT INTO sale_items (`+saleItemColumns+`)
VALUES (:id, :sale_id, :product_ref, :item_name, :quantity, :unit_price, :discount_percent, :total, :line_order)`, items)
	return err
}

func (t *sqliteTx) DecrementStock(ctx context.Context, owner, productRef uuid.UUID, qty int) (StockLevel, error) {
	res, err := t.tx.ExecContext(ctx, `UPDATE inventory_items
SET stock_quantity = stock_quantity - ?, updated_at = ?
WHERE id = ? AND owner_id = ? AND stock_quantity >= ?`, qty, time.Now().UTC(), productRef, owner, qty)
	if err != nil {
		return StockLevel{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return StockLevel{}, err
	}
	var row struct {
		Name         string `db:"name"`
		Stock        int    `db:"stock_quantity"`
		ReorderPoint *int   `db:"reorder_point"`
	}
	err = t.tx.GetContext(ctx, &row, `SELECT name, stock_quantity, reorder_point FROM inventory_items WHERE id = ? AND owner_id = ?`,
		productRef, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return StockLevel{}, ErrInsufficientStock
	}
	if err != nil {
		return StockLevel{}, err
	}
	level := StockLevel{Found: true, Name: row.Name, Remaining: row.Stock, ReorderPoint: row.ReorderPoint}
	if n == 0 {
		return level, ErrInsufficientStock
	}
	return level, nil
}

func (r *SQLiteRepository) FindSaleByKey(ctx context.Context, owner uuid.UUID, key string) (Sale, error) {
	var s Sale
	err := r.db.GetContext(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE owner_id = ? AND idempotency_key = ?`, owner, key)
	if errors.Is(err, sql.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	return r.withItems(ctx, s)
}

func (r *SQLiteRepository) GetSale(ctx context.Context, owner, id uuid.UUID) (Sale, error) {
	var s Sale
	err := r.db.GetContext(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE owner_id = ? AND id = ?`, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	return r.withItems(ctx, s)
}

func (r *SQLiteRepository) withItems(ctx context.Context, s Sale) (Sale, error) {
	err := r.db.SelectContext(ctx, &s.Items, `SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id = ? ORDER BY line_order`, s.ID)
	return s, err
}

func (r *SQLiteRepository) ListSales(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Sale, int, error) {
	from, to := dateBounds(filter.From, filter.To)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sales WHERE owner_id = ? AND sale_date BETWEEN ? AND ?`,
		owner, from, to); err != nil {
		return nil, 0, err
	}
	var out []Sale
	err := r.db.SelectContext(ctx, &out, `SELECT `+saleColumns+` FROM sales
WHERE owner_id = ? AND sale_date BETWEEN ? AND ?
ORDER BY sale_date DESC, sale_time DESC, created_at DESC
LIMIT ? OFFSET ?`, owner, from, to, filter.Page.Limit(), filter.Page.Offset())
	return out, total, err
}

// DailySummary sums in Go because money is stored as TEXT.
func (r *SQLiteRepository) DailySummary(ctx context.Context, owner uuid.UUID, from, to string) ([]DailySummary, error) {
	from, to = dateBounds(from, to)
	var rows []struct {
		Date       string          `db:"sale_date"`
		FinalTotal decimal.Decimal `db:"final_total"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT sale_date, final_total FROM sales
WHERE owner_id = ? AND sale_date BETWEEN ? AND ? ORDER BY sale_date`, owner, from, to)
	if err != nil {
		return nil, err
	}
	var out []DailySummary
	for _, row := range rows {
		if n := len(out); n > 0 && out[n-1].Date == row.Date {
			out[n-1].SaleCount++
			out[n-1].Revenue = out[n-1].Revenue.Add(row.FinalTotal)
			continue
		}
		out = append(out, DailySummary{Date: row.Date, SaleCount: 1, Revenue: row.FinalTotal})
	}
	return out, nil
}

func (r *SQLiteRepository) HasSalesOn(ctx context.Context, owner uuid.UUID, date string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM sales WHERE owner_id = ? AND sale_date = ?)`, owner, date)
	return exists, err
}
