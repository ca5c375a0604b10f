package postgres

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ammcore/internal/model"
	"ammcore/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("AMM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AMM_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}

func TestStorePoolRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := fmt.Sprintf("0xtest%d", time.Now().UnixNano())

	pool := model.Pool{
		Key:         key,
		Seed:        18446744073709551615,
		MintX:       "0x1111111111111111111111111111111111111111",
		MintY:       "0x2222222222222222222222222222222222222222",
		ReserveX:    "18446744073709551615",
		ReserveY:    "42",
		ShareSupply: "1000000",
		FeeBps:      30,
		Precision:   6,
	}
	require.NoError(t, store.SavePool(ctx, pool))

	pool.Locked = true
	pool.ReserveY = "43"
	require.NoError(t, store.SavePool(ctx, pool))

	got, ok, err := store.LoadPool(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	got.UpdatedAt = ""
	require.Equal(t, pool, got)

	_, ok, err = store.LoadPool(ctx, key+"-missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.PutEntries(ctx, []model.JournalEntry{
		{PoolKey: key, Operation: "swap", Kind: model.EntryTransfer, Asset: pool.MintX, From: pool.MintY, Amount: "1000", CreatedAt: time.Now().UTC().Format(time.RFC3339Nano)},
	}))
}

func TestStoreCreateAndUpdatePool(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := fmt.Sprintf("0xtest%d", time.Now().UnixNano())

	_, err := store.UpdatePool(ctx, key, func(p model.Pool) (model.Pool, error) { return p, nil })
	require.ErrorIs(t, err, storage.ErrNotFound)

	pool := model.Pool{
		Key:         key,
		Seed:        1,
		MintX:       "0x1111111111111111111111111111111111111111",
		MintY:       "0x2222222222222222222222222222222222222222",
		ReserveX:    "0",
		ReserveY:    "0",
		ShareSupply: "0",
	}
	created, err := store.CreatePool(ctx, pool)
	require.NoError(t, err)
	require.True(t, created)

	pool.ReserveX = "777"
	created, err = store.CreatePool(ctx, pool)
	require.NoError(t, err)
	require.False(t, created)

	increment := func(p model.Pool) (model.Pool, error) {
		n, err := strconv.ParseUint(p.ReserveX, 10, 64)
		if err != nil {
			return model.Pool{}, err
		}
		p.ReserveX = strconv.FormatUint(n+1, 10)
		return p, nil
	}

	errs := make(chan error, 20)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdatePool(ctx, key, increment)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, _, err := store.LoadPool(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "20", got.ReserveX)
}
