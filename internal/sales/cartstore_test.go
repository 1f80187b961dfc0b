package sales

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCartStore(t *testing.T) (*CartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCartStore(client, time.Hour), mr
}

func TestCartStoreLoadMissingReturnsEmptyCart(t *testing.T) {
	store, _ := newTestCartStore(t)

	cart, err := store.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	require.True(t, cart.IsEmpty())
	require.NotEmpty(t, cart.CommitToken)
}

func TestCartStoreSaveLoadDiscard(t *testing.T) {
	store, mr := newTestCartStore(t)
	ctx := context.Background()
	owner := uuid.New()

	cart := NewCart()
	line := cart.AddLine(Product{Ref: uuid.New(), Name: "Widget", Price: d("9.99")}, 2)
	pct := d("15")
	_, err := cart.UpdateLine(line.ID, LineUpdate{DiscountPercent: &pct})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, owner, cart))

	require.True(t, mr.Exists(cartKey(owner)))
	require.Equal(t, time.Hour, mr.TTL(cartKey(owner)))

	got, err := store.Load(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, cart.CommitToken, got.CommitToken)
	require.Len(t, got.Lines, 1)
	require.Equal(t, line.ID, got.Lines[0].ID)
	requireDec(t, "15", got.Lines[0].DiscountPercent)
	requireDec(t, "16.983", got.Lines[0].LineTotal)
	require.False(t, got.UpdatedAt.IsZero())

	other, err := store.Load(ctx, uuid.New())
	require.NoError(t, err)
	require.True(t, other.IsEmpty())

	require.NoError(t, store.Discard(ctx, owner))
	require.False(t, mr.Exists(cartKey(owner)))
	fresh, err := store.Load(ctx, owner)
	require.NoError(t, err)
	require.NotEqual(t, cart.CommitToken, fresh.CommitToken)
}

func TestCartStoreExpires(t *testing.T) {
	store, mr := newTestCartStore(t)
	ctx := context.Background()
	owner := uuid.New()

	cart := NewCart()
	cart.AddLine(Product{Ref: uuid.New(), Name: "Widget", Price: d("1")}, 1)
	require.NoError(t, store.Save(ctx, owner, cart))

	mr.FastForward(2 * time.Hour)
	got, err := store.Load(ctx, owner)
	require.NoError(t, err)
	require.True(t, got.IsEmpty())
}
