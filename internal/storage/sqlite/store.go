package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ammcore/internal/model"
	"ammcore/internal/storage"
)

const createPools = `
CREATE TABLE IF NOT EXISTS amm_pools (
	pool_key     TEXT PRIMARY KEY,
	seed         TEXT NOT NULL,
	mint_x       TEXT NOT NULL,
	mint_y       TEXT NOT NULL,
	authority    TEXT NOT NULL DEFAULT '',
	reserve_x    TEXT NOT NULL,
	reserve_y    TEXT NOT NULL,
	share_supply TEXT NOT NULL,
	fee_bps      INTEGER NOT NULL,
	locked       INTEGER NOT NULL DEFAULT 0,
	precision    INTEGER NOT NULL,
	updated_at   TEXT NOT NULL
)`

// Store persists pool records in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// _txlock=immediate makes every transaction take the write lock at BEGIN,
	// which serializes read-modify-write cycles across processes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createPools); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const selectPool = `
	SELECT pool_key, seed, mint_x, mint_y, authority, reserve_x, reserve_y, share_supply,
		fee_bps, locked, precision, updated_at
	FROM amm_pools WHERE pool_key = ?`

const insertPool = `
	INSERT INTO amm_pools (
		pool_key, seed, mint_x, mint_y, authority, reserve_x, reserve_y, share_supply,
		fee_bps, locked, precision, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) LoadPool(ctx context.Context, key string) (model.Pool, bool, error) {
	return scanPool(ctx, s.db, key)
}

func (s *Store) CreatePool(ctx context.Context, p model.Pool) (bool, error) {
	if p.Key == "" {
		return false, fmt.Errorf("pool key required")
	}
	res, err := s.db.ExecContext(ctx, insertPool+` ON CONFLICT (pool_key) DO NOTHING`, poolArgs(p)...)
	if err != nil {
		return false, fmt.Errorf("create pool: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create pool: %w", err)
	}
	return n == 1, nil
}

// UpdatePool runs load, fn and save inside one BEGIN IMMEDIATE transaction.
func (s *Store) UpdatePool(ctx context.Context, key string, fn storage.UpdateFunc) (model.Pool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Pool{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, ok, err := scanPool(ctx, tx, key)
	if err != nil {
		return model.Pool{}, err
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	next, err := fn(current)
	if err != nil {
		return model.Pool{}, err
	}
	next.Key = key
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	_, err = tx.ExecContext(ctx, `
		UPDATE amm_pools SET reserve_x = ?, reserve_y = ?, share_supply = ?, locked = ?, updated_at = ?
		WHERE pool_key = ?`,
		next.ReserveX, next.ReserveY, next.ShareSupply, boolInt(next.Locked), next.UpdatedAt, key,
	)
	if err != nil {
		return model.Pool{}, fmt.Errorf("update pool: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Pool{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

// SavePool writes p without reading it first.
func (s *Store) SavePool(ctx context.Context, p model.Pool) error {
	if p.Key == "" {
		return fmt.Errorf("pool key required")
	}
	_, err := s.db.ExecContext(ctx, insertPool+`
		ON CONFLICT (pool_key) DO UPDATE SET
			reserve_x = excluded.reserve_x,
			reserve_y = excluded.reserve_y,
			share_supply = excluded.share_supply,
			locked = excluded.locked,
			updated_at = excluded.updated_at`,
		poolArgs(p)...,
	)
	if err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	return nil
}

func poolArgs(p model.Pool) []any {
	updatedAt := p.UpdatedAt
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return []any{
		p.Key, strconv.FormatUint(p.Seed, 10), p.MintX, p.MintY, p.Authority,
		p.ReserveX, p.ReserveY, p.ShareSupply,
		int(p.FeeBps), boolInt(p.Locked), int(p.Precision), updatedAt,
	}
}

func scanPool(ctx context.Context, q rowQuerier, key string) (model.Pool, bool, error) {
	var (
		p      model.Pool
		seed   string
		locked int
	)
	err := q.QueryRowContext(ctx, selectPool, key).Scan(&p.Key, &seed, &p.MintX, &p.MintY, &p.Authority,
		&p.ReserveX, &p.ReserveY, &p.ShareSupply, &p.FeeBps, &locked, &p.Precision, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, fmt.Errorf("load pool: %w", err)
	}
	if p.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return model.Pool{}, false, fmt.Errorf("parse seed: %w", err)
	}
	p.Locked = locked != 0
	return p, true, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
