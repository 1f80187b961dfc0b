package settings

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpad/retailpad/internal/platform/sqlite"
	"github.com/retailpad/retailpad/internal/shared"
)

type slowRepo struct {
	reads atomic.Int32
	gate  chan struct{}
}

func (r *slowRepo) Get(ctx context.Context, owner uuid.UUID) (Settings, error) {
	r.reads.Add(1)
	<-r.gate
	return Settings{}, ErrNotFound
}

func (r *slowRepo) Upsert(context.Context, Settings) error { return nil }

func TestGetCollapsesConcurrentReads(t *testing.T) {
	repo := &slowRepo{gate: make(chan struct{})}
	svc := NewService(repo)
	owner := uuid.New()

	var wg sync.WaitGroup
	results := make([]Settings, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := svc.Get(context.Background(), owner)
			assert.NoError(t, err)
			results[i] = st
		}(i)
	}
	require.Eventually(t, func() bool { return repo.reads.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	require.LessOrEqual(t, repo.reads.Load(), int32(2))
	for _, st := range results {
		require.Equal(t, "USD", st.CurrencyCode)
		require.Equal(t, 5, st.DefaultReorderPoint)
	}
}

type ctxRepo struct {
	reads atomic.Int32
	gate  chan struct{}
}

func (r *ctxRepo) Get(ctx context.Context, owner uuid.UUID) (Settings, error) {
	r.reads.Add(1)
	select {
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	case <-r.gate:
		return Settings{}, ErrNotFound
	}
}

func (r *ctxRepo) Upsert(context.Context, Settings) error { return nil }

func TestGetSurvivesFirstCallerCancel(t *testing.T) {
	repo := &ctxRepo{gate: make(chan struct{})}
	svc := NewService(repo)
	owner := uuid.New()

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(first, owner)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return repo.reads.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		st  Settings
		err error
	}
	second := make(chan result, 1)
	go func() {
		st, err := svc.Get(context.Background(), owner)
		second <- result{st, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(repo.gate)

	res := <-second
	require.NoError(t, res.err)
	require.Equal(t, "USD", res.st.CurrencyCode)
}

func TestUpsertAndPolicySQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewService(NewSQLiteRepository(db))
	owner := uuid.New()

	st, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, Defaults(owner).CurrencyCode, st.CurrencyCode)

	_, err = svc.Upsert(ctx, owner, Input{BusinessName: "Corner Shop", CurrencyCode: "jpy", Locale: "ja-JP", DefaultReorderPoint: 3, ReminderOptIn: true})
	require.NoError(t, err)

	st, err = svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "Corner Shop", st.BusinessName)
	require.Equal(t, "JPY", st.CurrencyCode)
	require.True(t, st.ReminderOptIn)

	n, err := svc.DefaultReorderPoint(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	policy, err := svc.Policy(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "JPY", policy.Code())
	require.Equal(t, int32(0), policy.Scale)

	_, err = svc.Upsert(ctx, owner, Input{CurrencyCode: "ZZZ"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
