package amm

import (
	"errors"
	"math"
	"testing"
)

func TestInitialShares(t *testing.T) {
	got, err := InitialShares(1_000_000, 1_000_000, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1_000_000_000_000 {
		t.Fatalf("initial shares = %d", got)
	}

	if _, err := InitialShares(1, 1, 20); !errors.Is(err, ErrInvalidPrecision) {
		t.Fatalf("expected invalid precision, got %v", err)
	}
	if _, err := InitialShares(math.MaxUint64, math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := InitialShares(0, 5, 6); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestSharesForDeposit(t *testing.T) {
	got, err := SharesForDeposit(100, 1000, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500 {
		t.Fatalf("shares = %d, want 500", got)
	}
	if _, err := SharesForDeposit(1, 0, 1); !errors.Is(err, ErrZeroBalance) {
		t.Fatalf("expected zero balance, got %v", err)
	}
}

func TestReservesForWithdraw(t *testing.T) {
	if _, _, err := ReservesForWithdraw(0, 10, 100, 100); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("zero burn: expected insufficient balance, got %v", err)
	}
	if _, _, err := ReservesForWithdraw(11, 10, 100, 100); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("burn above supply: expected insufficient balance, got %v", err)
	}

	dx, dy, err := ReservesForWithdraw(10, 10, 123, 456)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dx != 123 || dy != 456 {
		t.Fatalf("full withdraw = %d/%d, want 123/456", dx, dy)
	}

	dx, dy, err = ReservesForWithdraw(1, 3, 10, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dx != 3 || dy != 3 {
		t.Fatalf("partial withdraw = %d/%d, want 3/3", dx, dy)
	}
}

func TestReservesForWithdrawDustIsReleasedOnExit(t *testing.T) {
	rx, ry, supply := uint64(10), uint64(11), uint64(3)
	var paidX, paidY uint64
	for supply > 0 {
		dx, dy, err := ReservesForWithdraw(1, supply, rx, ry)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		paidX += dx
		paidY += dy
		rx -= dx
		ry -= dy
		supply--
	}
	if paidX != 10 || paidY != 11 || rx != 0 || ry != 0 {
		t.Fatalf("paid %d/%d, left %d/%d", paidX, paidY, rx, ry)
	}
}

func TestReservesForShares(t *testing.T) {
	dx, dy, err := ReservesForShares(1, 3, 10, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dx != 4 || dy != 4 {
		t.Fatalf("deposit cost = %d/%d, want 4/4", dx, dy)
	}
	if _, _, err := ReservesForShares(0, 3, 10, 11); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, _, err := ReservesForShares(1, 0, 0, 0); !errors.Is(err, ErrZeroBalance) {
		t.Fatalf("expected zero balance, got %v", err)
	}
}
