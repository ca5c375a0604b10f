package amm

import (
	"errors"
	"math"
	"testing"
)

func TestCheckedArithmetic(t *testing.T) {
	if _, err := Add(math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("add: expected overflow, got %v", err)
	}
	if _, err := Sub(1, 2); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("sub: expected underflow, got %v", err)
	}
	if _, err := Mul(1<<32, 1<<32); !errors.Is(err, ErrOverflow) {
		t.Fatalf("mul: expected overflow, got %v", err)
	}
	if got, err := Mul(0, math.MaxUint64); err != nil || got != 0 {
		t.Fatalf("mul zero: got %d, %v", got, err)
	}

	_, err := Div(1, 0)
	if !errors.Is(err, ErrDivisionByZero) || !errors.Is(err, ErrZeroBalance) {
		t.Fatalf("div: expected division by zero, got %v", err)
	}
}

func TestMulDiv(t *testing.T) {
	cases := []struct {
		a, b, c uint64
		floor   uint64
		ceil    uint64
	}{
		{a: 7, b: 3, c: 2, floor: 10, ceil: 11},
		{a: 6, b: 3, c: 2, floor: 9, ceil: 9},
		{a: math.MaxUint64, b: math.MaxUint64, c: math.MaxUint64, floor: math.MaxUint64, ceil: math.MaxUint64},
		{a: 1_000_000, b: 1_000_000, c: 1_000_997, floor: 999_003, ceil: 999_004},
	}

	for _, tc := range cases {
		got, err := MulDiv(tc.a, tc.b, tc.c)
		if err != nil {
			t.Fatalf("muldiv(%d,%d,%d): %v", tc.a, tc.b, tc.c, err)
		}
		if got != tc.floor {
			t.Fatalf("muldiv(%d,%d,%d) = %d, want %d", tc.a, tc.b, tc.c, got, tc.floor)
		}
		up, err := MulDivUp(tc.a, tc.b, tc.c)
		if err != nil {
			t.Fatalf("muldivup(%d,%d,%d): %v", tc.a, tc.b, tc.c, err)
		}
		if up != tc.ceil {
			t.Fatalf("muldivup(%d,%d,%d) = %d, want %d", tc.a, tc.b, tc.c, up, tc.ceil)
		}
	}

	if _, err := MulDiv(math.MaxUint64, 2, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on narrowing, got %v", err)
	}
	if _, err := MulDivUp(1, 1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestPow10(t *testing.T) {
	got, err := Pow10(19)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10_000_000_000_000_000_000 {
		t.Fatalf("pow10(19) = %d", got)
	}
	if _, err := Pow10(20); !errors.Is(err, ErrInvalidPrecision) {
		t.Fatalf("expected invalid precision, got %v", err)
	}
}

func TestGeometricMean(t *testing.T) {
	cases := []struct {
		a, b uint64
		want uint64
	}{
		{a: 1_000_000, b: 1_000_000, want: 1_000_000},
		{a: 2, b: 8, want: 4},
		{a: 3, b: 5, want: 3},
		{a: 0, b: 9, want: 0},
		{a: math.MaxUint64, b: math.MaxUint64, want: math.MaxUint64},
	}
	for _, tc := range cases {
		if got := GeometricMean(tc.a, tc.b); got != tc.want {
			t.Fatalf("geometric mean(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
