package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// InitParams describes a new pool.
type InitParams struct {
	Seed      uint64
	MintX     common.Address
	MintY     common.Address
	FeeBps    uint16
	Authority *common.Address
	AmountX   uint64
	AmountY   uint64
	Precision uint8
}

// LiquidityChange is the settled outcome of a deposit or withdrawal.
type LiquidityChange struct {
	AmountX uint64 `json:"amount_x"`
	AmountY uint64 `json:"amount_y"`
	Shares  uint64 `json:"shares"`
}

// Initialize builds the opening state of a pool. The initial supply is
// returned as ShareSupply on the new state.
func Initialize(p InitParams) (State, error) {
	if p.FeeBps > BasisPoints {
		return State{}, fmt.Errorf("%w: %d bps exceeds %d", ErrInvalidFee, p.FeeBps, BasisPoints)
	}
	if p.MintX == p.MintY {
		return State{}, ErrInvalidMints
	}
	if p.AmountX == 0 || p.AmountY == 0 {
		return State{}, ErrInvalidAmount
	}
	shares, err := InitialShares(p.AmountX, p.AmountY, p.Precision)
	if err != nil {
		return State{}, err
	}

	st := State{
		Seed:        p.Seed,
		MintX:       p.MintX,
		MintY:       p.MintY,
		ReserveX:    p.AmountX,
		ReserveY:    p.AmountY,
		ShareSupply: shares,
		FeeBps:      p.FeeBps,
		Precision:   p.Precision,
	}
	if p.Authority != nil {
		auth := *p.Authority
		st.Authority = &auth
	}
	return st, nil
}

// Deposit adds amountX of x together with the y amount that keeps the
// current price. A drained pool is re-seeded with maxY as the y side.
func Deposit(st *State, amountX, maxX, maxY uint64) (LiquidityChange, error) {
	if err := st.EnsureUnlocked(); err != nil {
		return LiquidityChange{}, err
	}
	if amountX == 0 {
		return LiquidityChange{}, ErrInvalidAmount
	}

	change := LiquidityChange{AmountX: amountX}
	if st.ShareSupply == 0 {
		if maxY == 0 {
			return LiquidityChange{}, ErrInvalidAmount
		}
		shares, err := InitialShares(amountX, maxY, st.Precision)
		if err != nil {
			return LiquidityChange{}, err
		}
		change.AmountY = maxY
		change.Shares = shares
	} else {
		dy, err := PairedAmount(amountX, st.ReserveX, st.ReserveY)
		if err != nil {
			return LiquidityChange{}, err
		}
		shares, err := SharesForDeposit(amountX, st.ReserveX, st.ShareSupply)
		if err != nil {
			return LiquidityChange{}, err
		}
		if shares == 0 {
			return LiquidityChange{}, ErrInvalidAmount
		}
		change.AmountY = dy
		change.Shares = shares
	}

	if change.AmountX > maxX || change.AmountY > maxY {
		return LiquidityChange{}, fmt.Errorf("%w: need %d/%d, limits %d/%d",
			ErrSlippageExceeded, change.AmountX, change.AmountY, maxX, maxY)
	}
	if err := applyDeposit(st, change); err != nil {
		return LiquidityChange{}, err
	}
	return change, nil
}

// DepositShares mints exactly shares new units and charges the rounded-up
// reserve amounts they represent.
func DepositShares(st *State, shares, maxX, maxY uint64) (LiquidityChange, error) {
	if err := st.EnsureUnlocked(); err != nil {
		return LiquidityChange{}, err
	}
	dx, dy, err := ReservesForShares(shares, st.ShareSupply, st.ReserveX, st.ReserveY)
	if err != nil {
		return LiquidityChange{}, err
	}
	change := LiquidityChange{AmountX: dx, AmountY: dy, Shares: shares}
	if dx > maxX || dy > maxY {
		return LiquidityChange{}, fmt.Errorf("%w: need %d/%d, limits %d/%d",
			ErrSlippageExceeded, dx, dy, maxX, maxY)
	}
	if err := applyDeposit(st, change); err != nil {
		return LiquidityChange{}, err
	}
	return change, nil
}

// Withdraw burns shares and releases the matching reserves.
func Withdraw(st *State, shares, minX, minY uint64) (LiquidityChange, error) {
	if err := st.EnsureUnlocked(); err != nil {
		return LiquidityChange{}, err
	}
	dx, dy, err := ReservesForWithdraw(shares, st.ShareSupply, st.ReserveX, st.ReserveY)
	if err != nil {
		return LiquidityChange{}, err
	}
	if dx < minX || dy < minY {
		return LiquidityChange{}, fmt.Errorf("%w: got %d/%d, minimum %d/%d",
			ErrSlippageExceeded, dx, dy, minX, minY)
	}

	rx, err := Sub(st.ReserveX, dx)
	if err != nil {
		return LiquidityChange{}, err
	}
	ry, err := Sub(st.ReserveY, dy)
	if err != nil {
		return LiquidityChange{}, err
	}
	supply, err := Sub(st.ShareSupply, shares)
	if err != nil {
		return LiquidityChange{}, err
	}

	st.ReserveX, st.ReserveY, st.ShareSupply = rx, ry, supply
	return LiquidityChange{AmountX: dx, AmountY: dy, Shares: shares}, nil
}

// Swap trades in units of side for the other asset.
func Swap(st *State, side Side, in, minOut uint64) (SwapQuote, error) {
	if err := st.EnsureUnlocked(); err != nil {
		return SwapQuote{}, err
	}
	quote, err := Quote(*st, side, in)
	if err != nil {
		return SwapQuote{}, err
	}
	if quote.OutputAmount < minOut {
		return SwapQuote{}, fmt.Errorf("%w: output %d below minimum %d",
			ErrSlippageExceeded, quote.OutputAmount, minOut)
	}

	rin, rout := st.Reserves(side)
	nextIn, err := Add(rin, in)
	if err != nil {
		return SwapQuote{}, err
	}
	nextOut, err := Sub(rout, quote.OutputAmount)
	if err != nil {
		return SwapQuote{}, err
	}

	if side == SideX {
		st.ReserveX, st.ReserveY = nextIn, nextOut
	} else {
		st.ReserveY, st.ReserveX = nextIn, nextOut
	}
	return quote, nil
}

// Quote prices a swap without changing st. It is allowed on locked pools.
func Quote(st State, side Side, in uint64) (SwapQuote, error) {
	if in == 0 {
		return SwapQuote{}, ErrInvalidAmount
	}
	rin, rout := st.Reserves(side)
	return ComputeSwapOutput(side, in, rin, rout, st.FeeBps)
}

func applyDeposit(st *State, change LiquidityChange) error {
	rx, err := Add(st.ReserveX, change.AmountX)
	if err != nil {
		return err
	}
	ry, err := Add(st.ReserveY, change.AmountY)
	if err != nil {
		return err
	}
	supply, err := Add(st.ShareSupply, change.Shares)
	if err != nil {
		return err
	}
	st.ReserveX, st.ReserveY, st.ShareSupply = rx, ry, supply
	return nil
}
