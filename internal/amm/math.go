package amm

import (
	"math"

	"github.com/holiman/uint256"
)

// BasisPoints is the fee denominator; 10000 bps is 100%.
const BasisPoints = 10_000

// MaxPrecision is the largest number of decimal digits whose scale 10^p fits in uint64.
const MaxPrecision = 19

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b or ErrUnderflow.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Div returns floor(a/b) or ErrDivisionByZero.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// MulDiv returns floor(a*b/c). The product is formed in 256 bits so any
// pair of uint64 operands is safe; only the narrowed quotient can overflow.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	x := uint256.NewInt(a)
	x.Mul(x, uint256.NewInt(b))
	x.Div(x, uint256.NewInt(c))
	return narrow(x)
}

// MulDivUp returns ceil(a*b/c).
func MulDivUp(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	prod := uint256.NewInt(a)
	prod.Mul(prod, uint256.NewInt(b))
	d := uint256.NewInt(c)
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(prod, d, r)
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return narrow(q)
}

// Pow10 returns 10^p.
func Pow10(p uint8) (uint64, error) {
	if p > MaxPrecision {
		return 0, ErrInvalidPrecision
	}
	scale := uint64(1)
	for i := uint8(0); i < p; i++ {
		scale *= 10
	}
	return scale, nil
}

// GeometricMean returns floor(sqrt(a*b)).
func GeometricMean(a, b uint64) uint64 {
	x := uint256.NewInt(a)
	x.Mul(x, uint256.NewInt(b))
	// sqrt of a value below 2^128 always fits in 64 bits.
	return x.Sqrt(x).Uint64()
}

func narrow(x *uint256.Int) (uint64, error) {
	if !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

func product(a, b uint64) *uint256.Int {
	x := uint256.NewInt(a)
	return x.Mul(x, uint256.NewInt(b))
}
