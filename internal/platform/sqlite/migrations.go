package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            contact_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            sku TEXT,
            price TEXT NOT NULL DEFAULT '0',
            purchase_price TEXT,
            stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
            reorder_point INTEGER,
            category TEXT NOT NULL DEFAULT '',
            velocity TEXT NOT NULL DEFAULT 'medium',
            vendor_id TEXT REFERENCES vendors(id) ON DELETE SET NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE UNIQUE INDEX IF NOT EXISTS inventory_items_owner_sku_idx ON inventory_items (owner_id, sku) WHERE sku IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS business_settings (
            owner_id TEXT PRIMARY KEY,
            business_name TEXT NOT NULL DEFAULT '',
            currency_code TEXT NOT NULL DEFAULT 'USD',
            locale TEXT NOT NULL DEFAULT 'en-US',
            default_reorder_point INTEGER NOT NULL DEFAULT 5,
            reminder_opt_in INTEGER NOT NULL DEFAULT 0,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS sales (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            sale_date TEXT NOT NULL,
            sale_time TEXT NOT NULL,
            subtotal TEXT NOT NULL,
            total_discount TEXT NOT NULL DEFAULT '0',
            final_total TEXT NOT NULL,
            idempotency_key TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (owner_id, idempotency_key)
        );`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id TEXT PRIMARY KEY,
            sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
            product_ref TEXT NOT NULL,
            item_name TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 1),
            unit_price TEXT NOT NULL,
            discount_percent TEXT NOT NULL DEFAULT '0',
            total TEXT NOT NULL,
            line_order INTEGER NOT NULL DEFAULT 0
        );`,
}

// Migrate creates the schema required by the embedded store.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("platform/sqlite: migrate: %w", err)
		}
	}
	return nil
}
