package amm

import (
	"errors"
	"fmt"
)

var (
	ErrPoolLocked          = errors.New("this pool is locked")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrOverflow            = errors.New("overflow detected")
	ErrUnderflow           = errors.New("underflow detected")
	ErrInvalidAuthority    = errors.New("invalid authority")
	ErrInvalidPrecision    = errors.New("invalid precision")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrZeroBalance         = errors.New("zero balance")
	ErrRatioMismatch       = errors.New("deposit ratio does not match reserves")

	// ErrInvalidFee is the configuration error returned for a fee above 10000 bps.
	ErrInvalidFee   = errors.New("invalid fee")
	ErrInvalidMints = errors.New("mint x and mint y must differ")

	// ErrDivisionByZero also matches ErrZeroBalance.
	ErrDivisionByZero = fmt.Errorf("division by zero: %w", ErrZeroBalance)
)
