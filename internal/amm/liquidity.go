package amm

// InitialShares mints the opening supply of an empty pool: the geometric
// mean of the two deposits scaled by 10^precision.
func InitialShares(dx, dy uint64, precision uint8) (uint64, error) {
	scale, err := Pow10(precision)
	if err != nil {
		return 0, err
	}
	shares, err := Mul(GeometricMean(dx, dy), scale)
	if err != nil {
		return 0, err
	}
	if shares == 0 {
		return 0, ErrInvalidAmount
	}
	return shares, nil
}

// SharesForDeposit returns floor(supply*dx/rx). The y side is expected to
// have passed VerifyDeposit, so computing from y gives the same result.
func SharesForDeposit(dx, rx, supply uint64) (uint64, error) {
	if rx == 0 || supply == 0 {
		return 0, ErrZeroBalance
	}
	return MulDiv(supply, dx, rx)
}

// ReservesForWithdraw returns the floor share of each reserve released by
// burning shares. Burning the whole supply returns the reserves exactly.
//
// Truncation leaves strictly less than one base unit per side in the pool
// per partial withdrawal, so after n withdrawals the retained dust is at
// most n units on each side.
func ReservesForWithdraw(burn, supply, rx, ry uint64) (uint64, uint64, error) {
	if burn == 0 || burn > supply {
		return 0, 0, ErrInsufficientBalance
	}
	if burn == supply {
		return rx, ry, nil
	}
	dx, err := MulDiv(rx, burn, supply)
	if err != nil {
		return 0, 0, err
	}
	dy, err := MulDiv(ry, burn, supply)
	if err != nil {
		return 0, 0, err
	}
	return dx, dy, nil
}

// ReservesForShares returns what a depositor pays for exactly shares new
// units, rounded up on both sides.
func ReservesForShares(shares, supply, rx, ry uint64) (uint64, uint64, error) {
	if shares == 0 {
		return 0, 0, ErrInvalidAmount
	}
	if supply == 0 || rx == 0 || ry == 0 {
		return 0, 0, ErrZeroBalance
	}
	dx, err := MulDivUp(rx, shares, supply)
	if err != nil {
		return 0, 0, err
	}
	dy, err := MulDivUp(ry, shares, supply)
	if err != nil {
		return 0, 0, err
	}
	return dx, dy, nil
}
