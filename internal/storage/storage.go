package storage

import (
	"context"
	"errors"

	"ammcore/internal/model"
)

// ErrNotFound is returned by UpdatePool when no pool is stored under the key.
var ErrNotFound = errors.New("pool not stored")

// UpdateFunc receives the stored pool and returns the record to save in its
// place. Returning an error aborts the update and leaves the stored pool as is.
type UpdateFunc func(current model.Pool) (model.Pool, error)

// PoolStore loads and saves pool records by key. CreatePool and UpdatePool
// are atomic with respect to every other writer of the same store, including
// other processes sharing it.
type PoolStore interface {
	LoadPool(ctx context.Context, key string) (model.Pool, bool, error)
	// CreatePool saves pool unless its key is already taken and reports
	// whether it did.
	CreatePool(ctx context.Context, pool model.Pool) (bool, error)
	// UpdatePool holds an exclusive lock on the pool's record while fn runs
	// and saves what fn returns.
	UpdatePool(ctx context.Context, key string, fn UpdateFunc) (model.Pool, error)
}

// Journal is an append-only sink for settlement entries.
type Journal interface {
	PutEntries(ctx context.Context, entries []model.JournalEntry) error
}
