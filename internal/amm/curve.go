package amm

// VerifyDeposit succeeds only when (dx, dy) keeps the reserve ratio exactly:
// rx*(ry+dy) == (rx+dx)*ry, evaluated without truncation.
func VerifyDeposit(dx, dy, rx, ry uint64) error {
	ryNext, err := Add(ry, dy)
	if err != nil {
		return err
	}
	rxNext, err := Add(rx, dx)
	if err != nil {
		return err
	}
	if product(rx, ryNext).Cmp(product(rxNext, ry)) != 0 {
		return ErrRatioMismatch
	}
	return nil
}

// PairedAmount returns the y amount matching dx at the current ratio. The
// pair must be exact; a deposit that would move the price is rejected.
func PairedAmount(dx, rx, ry uint64) (uint64, error) {
	if rx == 0 || ry == 0 {
		return 0, ErrZeroBalance
	}
	dy, err := MulDiv(dx, ry, rx)
	if err != nil {
		return 0, err
	}
	if err := VerifyDeposit(dx, dy, rx, ry); err != nil {
		return 0, err
	}
	return dy, nil
}

// ComputeSwapOutput prices a swap of in units against (rin, rout). The fee
// is taken from the input before the constant-product step:
//
//	fee = floor(in*feeBps/10000)
//	out = rout - ceil(rin*rout/(rin+in-fee))
//
// The reserve kept by the pool is rounded up, which is the same as
// flooring out = net*rout/(rin+net), so the product never decreases.
func ComputeSwapOutput(side Side, in, rin, rout uint64, feeBps uint16) (SwapQuote, error) {
	if rin == 0 || rout == 0 || in == 0 {
		return SwapQuote{}, ErrZeroBalance
	}
	if feeBps > BasisPoints {
		return SwapQuote{}, ErrInvalidFee
	}
	// the reserve must be able to absorb the full input
	if _, err := Add(rin, in); err != nil {
		return SwapQuote{}, err
	}

	fee, err := MulDiv(in, uint64(feeBps), BasisPoints)
	if err != nil {
		return SwapQuote{}, err
	}
	net, err := Sub(in, fee)
	if err != nil {
		return SwapQuote{}, err
	}
	if net == 0 {
		return SwapQuote{}, ErrInvalidAmount
	}

	denom, err := Add(rin, net)
	if err != nil {
		return SwapQuote{}, err
	}
	kept, err := MulDivUp(rin, rout, denom)
	if err != nil {
		return SwapQuote{}, err
	}
	out, err := Sub(rout, kept)
	if err != nil {
		return SwapQuote{}, err
	}
	if out == 0 {
		return SwapQuote{}, ErrInvalidAmount
	}
	if out >= rout {
		return SwapQuote{}, ErrInsufficientBalance
	}

	return SwapQuote{
		Side:         side,
		InputAmount:  in,
		OutputAmount: out,
		FeeAmount:    fee,
	}, nil
}
