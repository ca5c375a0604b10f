package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ammcore/internal/config"
	"ammcore/internal/storage"
	"ammcore/internal/storage/postgres"
	"ammcore/internal/storage/sqlite"
)

type backends struct {
	store   storage.PoolStore
	journal storage.Journal
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{}

	var pg *postgres.Store
	if cfg.Store == config.BackendPostgres || cfg.JournalBackend == config.BackendPostgres {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		pg = store
		logger.Debug("postgres connected", zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	}

	switch cfg.Store {
	case config.BackendFile:
		b.store = &storage.FileStore{Path: cfg.StateFile}
	case config.BackendPostgres:
		b.store = pg
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.store = store
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	switch cfg.JournalBackend {
	case config.BackendFile:
		b.journal = storage.NewJsonlJournal(cfg.Journal)
	case config.BackendPostgres:
		b.journal = pg
	default:
		b.Close()
		return nil, fmt.Errorf("unknown journal backend %q", cfg.JournalBackend)
	}

	return b, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
