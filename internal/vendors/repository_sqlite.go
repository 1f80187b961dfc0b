package vendors

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/retailpad/retailpad/internal/platform/sqlite"
)

// SQLiteRepository persists vendors in the embedded store.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, v Vendor) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO vendors (`+vendorColumns+`)
VALUES (:id, :owner_id, :name, :contact_name, :email, :phone, :address, :notes, :created_at, :updated_at)`, v)
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, id uuid.UUID) (Vendor, error) {
	var v Vendor
	err := r.db.GetContext(ctx, &v, `SELECT `+vendorColumns+` FROM vendors WHERE id = ? AND owner_id = ?`, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	return v, err
}

func (r *SQLiteRepository) List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Vendor, int, error) {
	search := "%" + filter.Search + "%"
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM vendors WHERE owner_id = ? AND (name LIKE ? OR contact_name LIKE ?)`,
		owner, search, search)
	if err != nil {
		return nil, 0, err
	}
	var out []Vendor
	err = r.db.SelectContext(ctx, &out, `SELECT `+vendorColumns+` FROM vendors
WHERE owner_id = ? AND (name LIKE ? OR contact_name LIKE ?)
ORDER BY name, id LIMIT ? OFFSET ?`, owner, search, search, filter.Page.Limit(), filter.Page.Offset())
	return out, total, err
}

func (r *SQLiteRepository) Update(ctx context.Context, v Vendor) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE vendors SET name = :name, contact_name = :contact_name, email = :email,
phone = :phone, address = :address, notes = :notes, updated_at = :updated_at WHERE id = :id AND owner_id = :owner_id`, v)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return sqlite.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE inventory_items SET vendor_id = NULL, updated_at = ? WHERE owner_id = ? AND vendor_id = ?`,
			time.Now().UTC(), owner, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM vendors WHERE id = ? AND owner_id = ?`, id, owner)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
