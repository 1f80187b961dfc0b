package vendors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/retailpad/retailpad/internal/platform/sqlite"
	"github.com/retailpad/retailpad/internal/shared"
)

func TestVendorLifecycleDetachesItems(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(NewSQLiteRepository(db), nil)
	owner := uuid.New()

	v, err := svc.Create(ctx, owner, VendorInput{Name: " Acme Supply ", Email: "sales@acme.test"})
	require.NoError(t, err)
	require.Equal(t, "Acme Supply", v.Name)

	_, err = svc.Create(ctx, owner, VendorInput{Name: "Bad", Email: "not-an-email"})
	require.Error(t, err)

	ok, err := svc.Exists(ctx, owner, v.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.Exists(ctx, uuid.New(), v.ID)
	require.NoError(t, err)
	require.False(t, ok)

	itemID := uuid.New()
	_, err = db.ExecContext(ctx, `INSERT INTO inventory_items (id, owner_id, name, price, vendor_id, created_at, updated_at)
VALUES (?, ?, 'Widget', '1', ?, ?, ?)`, itemID, owner, v.ID, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, v.ID, VendorInput{Name: "Acme", Phone: "555"})
	require.NoError(t, err)
	require.Equal(t, "Acme", updated.Name)

	list, total, err := svc.List(ctx, owner, ListFilter{Search: "acm"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "555", list[0].Phone)

	require.NoError(t, svc.Delete(ctx, owner, v.ID))
	var vendorRef *string
	require.NoError(t, db.GetContext(ctx, &vendorRef, `SELECT vendor_id FROM inventory_items WHERE id = ?`, itemID))
	require.Nil(t, vendorRef)

	_, err = svc.Get(ctx, owner, v.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, owner, v.ID), shared.ErrNotFound)
}
