package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammcore/internal/amm"
	"ammcore/internal/metrics"
	"ammcore/internal/model"
	"ammcore/internal/storage"
)

var (
	ErrPoolNotFound = errors.New("pool not found")
	ErrPoolExists   = errors.New("pool already initialized")
	// ErrKeyMismatch means a stored record's key is not the one its seed
	// and mints derive, so its vault address cannot be trusted.
	ErrKeyMismatch = errors.New("pool key does not match seed and mints")
	// ErrSettlement means state was committed but a transfer, mint or burn
	// could not be delivered. The committed state is not rolled back.
	ErrSettlement = errors.New("settlement failed after commit")
)

// Config controls settlement retries.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// InitRequest describes a pool to create and who funds it.
type InitRequest struct {
	Seed      uint64
	MintX     common.Address
	MintY     common.Address
	FeeBps    uint16
	Authority *common.Address
	Creator   common.Address
	AmountX   uint64
	AmountY   uint64
	Precision uint8
}

// Receipt is returned by every state-changing operation.
type Receipt struct {
	Operation string               `json:"operation"`
	Pool      string               `json:"pool"`
	Vault     string               `json:"vault"`
	Change    *amm.LiquidityChange `json:"change,omitempty"`
	Quote     *amm.SwapQuote       `json:"quote,omitempty"`
	State     model.Pool           `json:"state"`
}

type instruction struct {
	kind   string
	asset  common.Address
	from   common.Address
	to     common.Address
	amount uint64
}

// Service runs pool operations against a store and settles the results
// with the transfer and share collaborators. Operations on one pool are
// serialized in process by a keyed mutex and across processes by the
// store's atomic create and update. State is saved before any instruction
// is issued.
type Service struct {
	cfg       Config
	store     storage.PoolStore
	transfers Transferer
	shares    ShareLedger
	logger    *zap.Logger
	locks     *keyedMutex
}

func NewService(cfg Config, store storage.PoolStore, transfers Transferer, shares ShareLedger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		transfers: transfers,
		shares:    shares,
		logger:    logger,
		locks:     newKeyedMutex(),
	}
}

// Initialize creates a pool funded by req.Creator.
func (s *Service) Initialize(ctx context.Context, req InitRequest) (Receipt, error) {
	const op = "initialize"
	start := time.Now()
	key := Key(req.Seed, req.MintX, req.MintY)
	vault := VaultAddress(key)

	unlock := s.locks.Lock(key)
	defer unlock()

	receipt, err := func() (Receipt, error) {
		st, err := amm.Initialize(amm.InitParams{
			Seed:      req.Seed,
			MintX:     req.MintX,
			MintY:     req.MintY,
			FeeBps:    req.FeeBps,
			Authority: req.Authority,
			AmountX:   req.AmountX,
			AmountY:   req.AmountY,
			Precision: req.Precision,
		})
		if err != nil {
			return Receipt{}, err
		}
		if err := st.Validate(); err != nil {
			return Receipt{}, fmt.Errorf("%s: %w", op, err)
		}

		rec := toRecord(key, st)
		created, err := s.store.CreatePool(ctx, rec)
		if err != nil {
			return Receipt{}, fmt.Errorf("create pool: %w", err)
		}
		if !created {
			return Receipt{}, fmt.Errorf("%w: %s", ErrPoolExists, key.Hex())
		}

		change := amm.LiquidityChange{AmountX: st.ReserveX, AmountY: st.ReserveY, Shares: st.ShareSupply}
		receipt := Receipt{Operation: op, Pool: key.Hex(), Vault: vault.Hex(), Change: &change, State: rec}
		return receipt, s.settle(WithSettlement(ctx, op, key), key, []instruction{
			{kind: model.EntryTransfer, asset: st.MintX, from: req.Creator, to: vault, amount: change.AmountX},
			{kind: model.EntryTransfer, asset: st.MintY, from: req.Creator, to: vault, amount: change.AmountY},
			{kind: model.EntryMint, to: req.Creator, amount: change.Shares},
		})
	}()
	s.observe(op, start, err)
	if err != nil {
		return receipt, err
	}

	s.logger.Info("pool initialized",
		zap.String("pool", key.Hex()),
		zap.Uint64("seed", req.Seed),
		zap.String("mint_x", req.MintX.Hex()),
		zap.String("mint_y", req.MintY.Hex()),
		zap.Uint16("fee_bps", req.FeeBps),
		zap.Uint64("shares", receipt.Change.Shares),
	)
	return receipt, nil
}

// Deposit adds amountX and the matching y amount on behalf of caller.
func (s *Service) Deposit(ctx context.Context, key common.Hash, caller common.Address, amountX, maxX, maxY uint64) (Receipt, error) {
	return s.liquidity(ctx, "deposit", key, caller, func(st *amm.State) (amm.LiquidityChange, error) {
		return amm.Deposit(st, amountX, maxX, maxY)
	})
}

// DepositShares mints exactly shares for caller.
func (s *Service) DepositShares(ctx context.Context, key common.Hash, caller common.Address, shares, maxX, maxY uint64) (Receipt, error) {
	return s.liquidity(ctx, "deposit_shares", key, caller, func(st *amm.State) (amm.LiquidityChange, error) {
		return amm.DepositShares(st, shares, maxX, maxY)
	})
}

// Withdraw burns caller's shares and releases reserves to caller.
func (s *Service) Withdraw(ctx context.Context, key common.Hash, caller common.Address, shares, minX, minY uint64) (Receipt, error) {
	return s.liquidity(ctx, "withdraw", key, caller, func(st *amm.State) (amm.LiquidityChange, error) {
		return amm.Withdraw(st, shares, minX, minY)
	})
}

func (s *Service) liquidity(ctx context.Context, op string, key common.Hash, caller common.Address,
	apply func(*amm.State) (amm.LiquidityChange, error)) (Receipt, error) {
	vault := VaultAddress(key)
	var change amm.LiquidityChange

	rec, err := s.mutate(ctx, op, key, func(st *amm.State) ([]instruction, error) {
		var err error
		change, err = apply(st)
		if err != nil {
			return nil, err
		}
		if op == "withdraw" {
			return []instruction{
				{kind: model.EntryBurn, from: caller, amount: change.Shares},
				{kind: model.EntryTransfer, asset: st.MintX, from: vault, to: caller, amount: change.AmountX},
				{kind: model.EntryTransfer, asset: st.MintY, from: vault, to: caller, amount: change.AmountY},
			}, nil
		}
		return []instruction{
			{kind: model.EntryTransfer, asset: st.MintX, from: caller, to: vault, amount: change.AmountX},
			{kind: model.EntryTransfer, asset: st.MintY, from: caller, to: vault, amount: change.AmountY},
			{kind: model.EntryMint, to: caller, amount: change.Shares},
		}, nil
	})
	receipt := Receipt{Operation: op, Pool: key.Hex(), Vault: vault.Hex(), Change: &change, State: rec}
	if err != nil {
		return receipt, err
	}

	s.logger.Info("liquidity committed",
		zap.String("op", op),
		zap.String("pool", key.Hex()),
		zap.String("caller", caller.Hex()),
		zap.Uint64("amount_x", change.AmountX),
		zap.Uint64("amount_y", change.AmountY),
		zap.Uint64("shares", change.Shares),
	)
	return receipt, nil
}

// Swap trades in units of side for caller, failing if the output is below minOut.
func (s *Service) Swap(ctx context.Context, key common.Hash, caller common.Address, side amm.Side, in, minOut uint64) (Receipt, error) {
	const op = "swap"
	vault := VaultAddress(key)
	var quote amm.SwapQuote

	rec, err := s.mutate(ctx, op, key, func(st *amm.State) ([]instruction, error) {
		var err error
		quote, err = amm.Swap(st, side, in, minOut)
		if err != nil {
			return nil, err
		}
		assetIn, assetOut := st.MintX, st.MintY
		if side == amm.SideY {
			assetIn, assetOut = st.MintY, st.MintX
		}
		return []instruction{
			{kind: model.EntryTransfer, asset: assetIn, from: caller, to: vault, amount: quote.InputAmount},
			{kind: model.EntryTransfer, asset: assetOut, from: vault, to: caller, amount: quote.OutputAmount},
		}, nil
	})
	receipt := Receipt{Operation: op, Pool: key.Hex(), Vault: vault.Hex(), Quote: &quote, State: rec}
	if err != nil {
		return receipt, err
	}

	metrics.ObserveSwap(side.String(), quote.InputAmount, quote.FeeAmount)
	s.logger.Info("swap committed",
		zap.String("pool", key.Hex()),
		zap.String("caller", caller.Hex()),
		zap.Stringer("side", side),
		zap.Uint64("input", quote.InputAmount),
		zap.Uint64("output", quote.OutputAmount),
		zap.Uint64("fee", quote.FeeAmount),
	)
	return receipt, nil
}

// Lock stops deposits, withdrawals and swaps until Unlock.
func (s *Service) Lock(ctx context.Context, key common.Hash, caller common.Address) (Receipt, error) {
	return s.toggle(ctx, "lock", key, caller, (*amm.State).Lock)
}

// Unlock re-enables a locked pool.
func (s *Service) Unlock(ctx context.Context, key common.Hash, caller common.Address) (Receipt, error) {
	return s.toggle(ctx, "unlock", key, caller, (*amm.State).Unlock)
}

func (s *Service) toggle(ctx context.Context, op string, key common.Hash, caller common.Address,
	apply func(*amm.State, common.Address) error) (Receipt, error) {
	rec, err := s.mutate(ctx, op, key, func(st *amm.State) ([]instruction, error) {
		return nil, apply(st, caller)
	})
	receipt := Receipt{Operation: op, Pool: key.Hex(), Vault: VaultAddress(key).Hex(), State: rec}
	if err != nil {
		return receipt, err
	}
	s.logger.Info("pool lock changed", zap.String("pool", key.Hex()), zap.Bool("locked", rec.Locked))
	return receipt, nil
}

// Quote prices a swap against the stored reserves without changing them.
func (s *Service) Quote(ctx context.Context, key common.Hash, side amm.Side, in uint64) (amm.SwapQuote, error) {
	st, err := s.load(ctx, key)
	if err != nil {
		return amm.SwapQuote{}, err
	}
	return amm.Quote(st, side, in)
}

// Pool returns the stored record for key.
func (s *Service) Pool(ctx context.Context, key common.Hash) (model.Pool, error) {
	rec, ok, err := s.store.LoadPool(ctx, key.Hex())
	if err != nil {
		return model.Pool{}, fmt.Errorf("load pool: %w", err)
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, key.Hex())
	}
	return rec, nil
}

func (s *Service) load(ctx context.Context, key common.Hash) (amm.State, error) {
	rec, err := s.Pool(ctx, key)
	if err != nil {
		return amm.State{}, err
	}
	return fromRecord(rec)
}

// mutate runs apply on the stored state while the store holds the pool's
// record exclusively, saves the result and then settles the returned
// instructions. Nothing is saved when apply fails.
func (s *Service) mutate(ctx context.Context, op string, key common.Hash,
	apply func(*amm.State) ([]instruction, error)) (model.Pool, error) {
	start := time.Now()
	unlock := s.locks.Lock(key)
	defer unlock()

	rec, err := func() (model.Pool, error) {
		var instructions []instruction
		rec, err := s.store.UpdatePool(ctx, key.Hex(), func(current model.Pool) (model.Pool, error) {
			st, err := fromRecord(current)
			if err != nil {
				return model.Pool{}, err
			}
			next := st.Clone()
			instructions, err = apply(&next)
			if err != nil {
				return model.Pool{}, fmt.Errorf("%s: %w", op, err)
			}
			if err := next.Validate(); err != nil {
				return model.Pool{}, fmt.Errorf("%s: %w", op, err)
			}
			return toRecord(key, next), nil
		})
		if errors.Is(err, storage.ErrNotFound) {
			return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, key.Hex())
		}
		if err != nil {
			return model.Pool{}, err
		}
		return rec, s.settle(WithSettlement(ctx, op, key), key, instructions)
	}()
	s.observe(op, start, err)
	return rec, err
}

func (s *Service) settle(ctx context.Context, key common.Hash, instructions []instruction) error {
	for _, in := range instructions {
		if in.amount == 0 {
			continue
		}
		attempt := 0
		err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
			attempt++
			err := s.execute(ctx, key, in)
			if err != nil && attempt <= s.cfg.MaxRetries {
				metrics.SettlementRetries.Inc()
				s.logger.Warn("settlement retry",
					zap.String("pool", key.Hex()),
					zap.String("kind", in.kind),
					zap.Uint64("amount", in.amount),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
			}
			return err
		})
		if err != nil {
			s.logger.Error("settlement failed", zap.String("pool", key.Hex()), zap.String("kind", in.kind), zap.Error(err))
			return fmt.Errorf("%w: %s of %d: %w", ErrSettlement, in.kind, in.amount, err)
		}
	}
	return nil
}

func (s *Service) execute(ctx context.Context, key common.Hash, in instruction) error {
	switch in.kind {
	case model.EntryTransfer:
		return s.transfers.Transfer(ctx, in.asset, in.from, in.to, in.amount)
	case model.EntryMint:
		return s.shares.Mint(ctx, key, in.to, in.amount)
	case model.EntryBurn:
		return s.shares.Burn(ctx, key, in.from, in.amount)
	default:
		return fmt.Errorf("unknown instruction %q", in.kind)
	}
}

func (s *Service) observe(op string, start time.Time, err error) {
	metrics.ObserveOperation(op, resultLabel(err), start)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	labels := []struct {
		target error
		label  string
	}{
		{ErrSettlement, "settlement_failed"},
		{ErrPoolNotFound, "not_found"},
		{ErrPoolExists, "exists"},
		{ErrKeyMismatch, "key_mismatch"},
		{amm.ErrPoolLocked, "locked"},
		{amm.ErrInvalidAmount, "invalid_amount"},
		{amm.ErrSlippageExceeded, "slippage_exceeded"},
		{amm.ErrOverflow, "overflow"},
		{amm.ErrUnderflow, "underflow"},
		{amm.ErrInvalidAuthority, "invalid_authority"},
		{amm.ErrInvalidPrecision, "invalid_precision"},
		{amm.ErrInsufficientBalance, "insufficient_balance"},
		{amm.ErrZeroBalance, "zero_balance"},
		{amm.ErrRatioMismatch, "ratio_mismatch"},
		{amm.ErrInvalidFee, "invalid_fee"},
		{amm.ErrInvalidMints, "invalid_mints"},
	}
	for _, l := range labels {
		if errors.Is(err, l.target) {
			return l.label
		}
	}
	return "error"
}
