package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/retailpad/retailpad/internal/platform/sqlite"
	"github.com/retailpad/retailpad/internal/shared"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sqlite.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db)
}

func newItem(owner uuid.UUID, name string, stock int) Item {
	now := time.Now().UTC().Truncate(time.Second)
	return Item{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          name,
		Price:         decimal.RequireFromString("12.50"),
		StockQuantity: stock,
		Velocity:      VelocityFast,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	item := newItem(owner, "Widget", 7)
	sku := "W-1"
	item.SKU = &sku
	item.PurchasePrice = decimal.NewNullDecimal(decimal.RequireFromString("8"))
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.Get(ctx, owner, item.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget", got.Name)
	require.Equal(t, "W-1", *got.SKU)
	require.True(t, got.Price.Equal(item.Price))
	require.True(t, got.PurchasePrice.Valid)
	require.Equal(t, VelocityFast, got.Velocity)
	require.Nil(t, got.VendorID)

	_, err = repo.Get(ctx, uuid.New(), item.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	dup := newItem(owner, "Other", 1)
	dup.SKU = &sku
	require.ErrorIs(t, repo.Create(ctx, dup), shared.ErrDuplicate)
}

func TestSQLiteRepositoryListAndAdjust(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	a := newItem(owner, "Apple", 2)
	b := newItem(owner, "Banana", 40)
	c := newItem(uuid.New(), "Cherry", 1)
	for _, it := range []Item{a, b, c} {
		require.NoError(t, repo.Create(ctx, it))
	}

	items, total, err := repo.List(ctx, owner, ListFilter{Page: shared.PageRequest{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "Apple", items[0].Name)

	items, total, err = repo.List(ctx, owner, ListFilter{LowStockOnly: true, DefaultReorderPoint: 5})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, a.ID, items[0].ID)

	items, _, err = repo.List(ctx, owner, ListFilter{Search: "nan"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, b.ID, items[0].ID)

	byID, err := repo.ListByIDs(ctx, owner, []uuid.UUID{a.ID, c.ID})
	require.NoError(t, err)
	require.Len(t, byID, 1)

	adjusted, err := repo.AdjustStock(ctx, owner, a.ID, -5)
	require.NoError(t, err)
	require.Equal(t, 0, adjusted.StockQuantity)

	require.NoError(t, repo.Delete(ctx, owner, a.ID))
	require.ErrorIs(t, repo.Delete(ctx, owner, a.ID), shared.ErrNotFound)
}
