package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

const upsertSQL = `INSERT INTO business_settings
(owner_id, business_name, currency_code, locale, default_reorder_point, reminder_opt_in, updated_at)
VALUES (%s)
ON CONFLICT (owner_id) DO UPDATE SET
business_name = excluded.business_name,
currency_code = excluded.currency_code,
locale = excluded.locale,
default_reorder_point = excluded.default_reorder_point,
reminder_opt_in = excluded.reminder_opt_in,
updated_at = excluded.updated_at`

const selectSQL = `SELECT owner_id, business_name, currency_code, locale, default_reorder_point, reminder_opt_in, updated_at
FROM business_settings WHERE owner_id = `

// Repository persists settings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, owner uuid.UUID) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, selectSQL+`$1`, owner).Scan(&s.OwnerID, &s.BusinessName, &s.CurrencyCode, &s.Locale,
		&s.DefaultReorderPoint, &s.ReminderOptIn, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	return s, err
}

func (r *Repository) Upsert(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(upsertSQL, "$1, $2, $3, $4, $5, $6, $7"),
		s.OwnerID, s.BusinessName, s.CurrencyCode, s.Locale, s.DefaultReorderPoint, s.ReminderOptIn, s.UpdatedAt)
	return err
}

// SQLiteRepository persists settings in the embedded store.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository constructs SQLiteRepository.
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, owner uuid.UUID) (Settings, error) {
	var s Settings
	err := r.db.GetContext(ctx, &s, selectSQL+`?`, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	return s, err
}

func (r *SQLiteRepository) Upsert(ctx context.Context, s Settings) error {
	_, err := r.db.NamedExecContext(ctx, fmt.Sprintf(upsertSQL,
		":owner_id, :business_name, :currency_code, :locale, :default_reorder_point, :reminder_opt_in, :updated_at"), s)
	return err
}
