package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"ammcore/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "nested", "pools.json")}

	_, ok, err := store.LoadPool(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	first := model.Pool{Key: "0xbb", Seed: 2, ReserveX: "10", ReserveY: "20", ShareSupply: "14", FeeBps: 30}
	second := model.Pool{Key: "0xaa", Seed: 1, ReserveX: "1", ReserveY: "1", ShareSupply: "1"}
	require.NoError(t, store.SavePool(ctx, first))
	require.NoError(t, store.SavePool(ctx, second))

	first.Locked = true
	require.NoError(t, store.SavePool(ctx, first))

	got, ok, err := store.LoadPool(ctx, "0xbb")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, got)

	pools, err := store.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	require.Equal(t, "0xaa", pools[0].Key)

	_, err = os.Stat(store.Path + ".tmp")
	require.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFileStoreRejectsEmptyKey(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "pools.json")}
	require.Error(t, store.SavePool(context.Background(), model.Pool{}))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := &FileStore{Path: path}
	_, _, err := store.LoadPool(context.Background(), "0xaa")
	require.ErrorContains(t, err, "parse state")
}

func TestFileStoreCreatePoolOnce(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "pools.json")}

	created, err := store.CreatePool(ctx, model.Pool{Key: "0xaa", ReserveX: "1"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = store.CreatePool(ctx, model.Pool{Key: "0xaa", ReserveX: "2"})
	require.NoError(t, err)
	require.False(t, created)

	got, _, err := store.LoadPool(ctx, "0xaa")
	require.NoError(t, err)
	require.Equal(t, "1", got.ReserveX)
}

func TestFileStoreUpdatePool(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "pools.json")}

	_, err := store.UpdatePool(ctx, "0xaa", func(p model.Pool) (model.Pool, error) { return p, nil })
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SavePool(ctx, model.Pool{Key: "0xaa", ReserveX: "1"}))

	boom := errors.New("boom")
	_, err = store.UpdatePool(ctx, "0xaa", func(p model.Pool) (model.Pool, error) {
		p.ReserveX = "99"
		return p, boom
	})
	require.ErrorIs(t, err, boom)

	saved, err := store.UpdatePool(ctx, "0xaa", func(p model.Pool) (model.Pool, error) {
		p.ReserveX = "5"
		return p, nil
	})
	require.NoError(t, err)
	require.Equal(t, "5", saved.ReserveX)

	got, _, err := store.LoadPool(ctx, "0xaa")
	require.NoError(t, err)
	require.Equal(t, saved, got)
}

func TestFileStoreInstancesShareLock(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pools.json")
	require.NoError(t, (&FileStore{Path: path}).SavePool(ctx, model.Pool{Key: "0xaa", ReserveX: "0"}))

	increment := func(p model.Pool) (model.Pool, error) {
		n, err := strconv.ParseUint(p.ReserveX, 10, 64)
		if err != nil {
			return model.Pool{}, err
		}
		p.ReserveX = strconv.FormatUint(n+1, 10)
		return p, nil
	}

	errs := make(chan error, 40)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		store := &FileStore{Path: path}
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.UpdatePool(ctx, "0xaa", increment)
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, _, err := (&FileStore{Path: path}).LoadPool(ctx, "0xaa")
	require.NoError(t, err)
	require.Equal(t, "40", got.ReserveX)
}
