package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammcore/internal/model"
	"ammcore/internal/storage"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for pool state and the settlement journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const selectPool = `
	SELECT pool_key, seed::text, mint_x, mint_y, authority,
		reserve_x::text, reserve_y::text, share_supply::text,
		fee_bps, locked, precision, updated_at
	FROM amm_pools WHERE pool_key=$1`

const insertPool = `
	INSERT INTO amm_pools (
		pool_key, seed, mint_x, mint_y, authority, reserve_x, reserve_y, share_supply,
		fee_bps, locked, precision, created_at, updated_at
	) VALUES ($1, $2::text::numeric, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8::text::numeric,
		$9, $10, $11, now(), now())`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LoadPool returns the pool stored under key.
func (s *Store) LoadPool(ctx context.Context, key string) (model.Pool, bool, error) {
	if key == "" {
		return model.Pool{}, false, fmt.Errorf("pool key required")
	}
	return scanPool(ctx, s.pool, selectPool, key)
}

// CreatePool inserts p unless the key exists. A concurrent initializer of
// the same pool gets false instead of overwriting the first one.
func (s *Store) CreatePool(ctx context.Context, p model.Pool) (bool, error) {
	if p.Key == "" {
		return false, fmt.Errorf("pool key required")
	}
	tag, err := s.pool.Exec(ctx, insertPool+` ON CONFLICT (pool_key) DO NOTHING`, poolArgs(p)...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdatePool locks the row with SELECT ... FOR UPDATE, applies fn and
// writes the result in the same transaction.
func (s *Store) UpdatePool(ctx context.Context, key string, fn storage.UpdateFunc) (model.Pool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Pool{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, ok, err := scanPool(ctx, tx, selectPool+` FOR UPDATE`, key)
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

	var updatedAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE amm_pools SET
			reserve_x = $2::text::numeric,
			reserve_y = $3::text::numeric,
			share_supply = $4::text::numeric,
			locked = $5,
			updated_at = now()
		WHERE pool_key = $1
		RETURNING updated_at
	`, key, next.ReserveX, next.ReserveY, next.ShareSupply, next.Locked).Scan(&updatedAt)
	if err != nil {
		return model.Pool{}, fmt.Errorf("update pool: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Pool{}, fmt.Errorf("commit: %w", err)
	}
	next.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
	return next, nil
}

// SavePool inserts or updates a pool row without any read. Identity
// columns never change after the first insert.
func (s *Store) SavePool(ctx context.Context, p model.Pool) error {
	if p.Key == "" {
		return fmt.Errorf("pool key required")
	}
	_, err := s.pool.Exec(ctx, insertPool+`
		ON CONFLICT (pool_key)
		DO UPDATE SET
			reserve_x = EXCLUDED.reserve_x,
			reserve_y = EXCLUDED.reserve_y,
			share_supply = EXCLUDED.share_supply,
			locked = EXCLUDED.locked,
			updated_at = now()
	`, poolArgs(p)...)
	return err
}

func poolArgs(p model.Pool) []any {
	var authority *string
	if p.Authority != "" {
		authority = &p.Authority
	}
	return []any{
		p.Key,
		strconv.FormatUint(p.Seed, 10),
		p.MintX,
		p.MintY,
		authority,
		p.ReserveX,
		p.ReserveY,
		p.ShareSupply,
		int32(p.FeeBps),
		p.Locked,
		int16(p.Precision),
	}
}

func scanPool(ctx context.Context, q rowQuerier, query, key string) (model.Pool, bool, error) {
	var (
		p         model.Pool
		seed      string
		authority *string
		updatedAt time.Time
	)
	if err := q.QueryRow(ctx, query, key).Scan(
		&p.Key, &seed, &p.MintX, &p.MintY, &authority,
		&p.ReserveX, &p.ReserveY, &p.ShareSupply,
		&p.FeeBps, &p.Locked, &p.Precision, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}

	parsed, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return model.Pool{}, false, fmt.Errorf("parse seed: %w", err)
	}
	p.Seed = parsed
	if authority != nil {
		p.Authority = *authority
	}
	p.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
	return p, true, nil
}

// PutEntries appends journal entries in one batch.
func (s *Store) PutEntries(ctx context.Context, entries []model.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		createdAt, err := time.Parse(time.RFC3339Nano, e.CreatedAt)
		if err != nil {
			createdAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO amm_journal (
				pool_key, operation, kind, asset, from_addr, to_addr, amount, created_at
			) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7::text::numeric, $8)
		`,
			e.PoolKey,
			e.Operation,
			e.Kind,
			e.Asset,
			e.From,
			e.To,
			e.Amount,
			createdAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
