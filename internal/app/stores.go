package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/retailpad/retailpad/internal/catalog"
	"github.com/retailpad/retailpad/internal/platform/db"
	"github.com/retailpad/retailpad/internal/platform/sqlite"
	"github.com/retailpad/retailpad/internal/sales"
	"github.com/retailpad/retailpad/internal/settings"
	"github.com/retailpad/retailpad/internal/shared"
	"github.com/retailpad/retailpad/internal/vendors"
)

// Auditor records change history. It is nil for the embedded store.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Stores bundles the repositories for the configured driver.
type Stores struct {
	Catalog  catalog.RepositoryPort
	Vendors  vendors.RepositoryPort
	Settings settings.RepositoryPort
	Sales    sales.Store
	Audit    Auditor
	Ping     func(ctx context.Context) error
	Close    func()
}

// OpenStores connects to the store selected by STORE_DRIVER and applies the
// schema.
func OpenStores(ctx context.Context, cfg *Config, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case StoreDriverSQLite:
		conn, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("using embedded store", slog.String("dsn", cfg.SQLiteDSN))
		return &Stores{
			Catalog:  catalog.NewSQLiteRepository(conn),
			Vendors:  vendors.NewSQLiteRepository(conn),
			Settings: settings.NewSQLiteRepository(conn),
			Sales:    sales.NewSQLiteRepository(conn),
			Ping:     conn.PingContext,
			Close:    func() { _ = conn.Close() },
		}, nil
	case StoreDriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Stores{
			Catalog:  catalog.NewRepository(pool),
			Vendors:  vendors.NewRepository(pool),
			Settings: settings.NewRepository(pool),
			Sales:    sales.NewRepository(pool),
			Audit:    shared.NewAuditLogger(pool),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("app: unsupported store driver %q", cfg.StoreDriver)
	}
}
