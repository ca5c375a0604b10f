package pool

import (
	"context"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammcore/internal/model"
	"ammcore/internal/storage"
)

// Transferer moves pooled assets between identities.
type Transferer interface {
	Transfer(ctx context.Context, asset, from, to common.Address, amount uint64) error
}

// ShareLedger tracks who owns a pool's liquidity shares.
type ShareLedger interface {
	Mint(ctx context.Context, pool common.Hash, to common.Address, amount uint64) error
	Burn(ctx context.Context, pool common.Hash, from common.Address, amount uint64) error
}

type settlementKey struct{}

type settlement struct {
	op   string
	pool common.Hash
}

// WithSettlement tags ctx with the operation and pool whose instructions
// are being settled, so collaborators can attribute them.
func WithSettlement(ctx context.Context, op string, pool common.Hash) context.Context {
	return context.WithValue(ctx, settlementKey{}, settlement{op: op, pool: pool})
}

func settlementFrom(ctx context.Context) (settlement, bool) {
	s, ok := ctx.Value(settlementKey{}).(settlement)
	return s, ok
}

// JournalSettler satisfies Transferer and ShareLedger by recording every
// instruction in a journal instead of executing it.
type JournalSettler struct {
	journal storage.Journal
	now     func() time.Time
}

func NewJournalSettler(journal storage.Journal) *JournalSettler {
	return &JournalSettler{journal: journal, now: time.Now}
}

func (j *JournalSettler) Transfer(ctx context.Context, asset, from, to common.Address, amount uint64) error {
	return j.put(ctx, model.JournalEntry{
		Kind:   model.EntryTransfer,
		Asset:  asset.Hex(),
		From:   from.Hex(),
		To:     to.Hex(),
		Amount: strconv.FormatUint(amount, 10),
	})
}

func (j *JournalSettler) Mint(ctx context.Context, pool common.Hash, to common.Address, amount uint64) error {
	return j.put(ctx, model.JournalEntry{
		PoolKey: pool.Hex(),
		Kind:    model.EntryMint,
		Asset:   pool.Hex(),
		To:      to.Hex(),
		Amount:  strconv.FormatUint(amount, 10),
	})
}

func (j *JournalSettler) Burn(ctx context.Context, pool common.Hash, from common.Address, amount uint64) error {
	return j.put(ctx, model.JournalEntry{
		PoolKey: pool.Hex(),
		Kind:    model.EntryBurn,
		Asset:   pool.Hex(),
		From:    from.Hex(),
		Amount:  strconv.FormatUint(amount, 10),
	})
}

func (j *JournalSettler) put(ctx context.Context, entry model.JournalEntry) error {
	if s, ok := settlementFrom(ctx); ok {
		entry.Operation = s.op
		if entry.PoolKey == "" {
			entry.PoolKey = s.pool.Hex()
		}
	}
	entry.CreatedAt = j.now().UTC().Format(time.RFC3339Nano)
	return j.journal.PutEntries(ctx, []model.JournalEntry{entry})
}
