package amm

import (
	"errors"
	"testing"
)

func TestParseSide(t *testing.T) {
	for input, want := range map[string]Side{"x": SideX, " Y ": SideY, "X": SideX} {
		got, err := ParseSide(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseSide("z"); err == nil {
		t.Fatalf("expected error for unknown side")
	}
}

func TestStateValidate(t *testing.T) {
	st := newTestPool(t, 10, 10, 30, 0)

	bad := st.Clone()
	bad.ShareSupply = 0
	if err := bad.Validate(); !errors.Is(err, ErrZeroBalance) {
		t.Fatalf("supply without reserves: expected zero balance, got %v", err)
	}

	bad = st.Clone()
	bad.ReserveY = 0
	if err := bad.Validate(); !errors.Is(err, ErrZeroBalance) {
		t.Fatalf("one-sided pool: expected zero balance, got %v", err)
	}

	bad = st.Clone()
	bad.FeeBps = 10_001
	if err := bad.Validate(); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected invalid fee, got %v", err)
	}
}

func TestCloneCopiesAuthority(t *testing.T) {
	st := newTestPool(t, 10, 10, 30, 0)
	cp := st.Clone()
	*cp.Authority = testStranger

	if *st.Authority != testAuthority {
		t.Fatalf("clone shares authority with original")
	}
}
