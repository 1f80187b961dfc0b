package vendors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailpad/retailpad/internal/platform/db"
)

const vendorColumns = `id, owner_id, name, contact_name, email, phone, address, notes, created_at, updated_at`

// Repository persists vendors in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanVendor(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.ContactName, &v.Email, &v.Phone, &v.Address, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *Repository) Create(ctx context.Context, v Vendor) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO vendors (`+vendorColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.OwnerID, v.Name, v.ContactName, v.Email, v.Phone, v.Address, v.Notes, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *Repository) Get(ctx context.Context, owner, id uuid.UUID) (Vendor, error) {
	v, err := scanVendor(r.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1 AND owner_id = $2`, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	return v, err
}

func (r *Repository) List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Vendor, int, error) {
	search := "%" + filter.Search + "%"
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vendors WHERE owner_id = $1 AND (name ILIKE $2 OR contact_name ILIKE $2)`,
		owner, search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+vendorColumns+` FROM vendors
WHERE owner_id = $1 AND (name ILIKE $2 OR contact_name ILIKE $2)
ORDER BY name, id LIMIT $3 OFFSET $4`, owner, search, filter.Page.Limit(), filter.Page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, v Vendor) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vendors SET name = $3, contact_name = $4, email = $5, phone = $6,
address = $7, notes = $8, updated_at = $9 WHERE id = $1 AND owner_id = $2`,
		v.ID, v.OwnerID, v.Name, v.ContactName, v.Email, v.Phone, v.Address, v.Notes, v.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE inventory_items SET vendor_id = NULL, updated_at = NOW() WHERE owner_id = $1 AND vendor_id = $2`, owner, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM vendors WHERE id = $1 AND owner_id = $2`, id, owner)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
