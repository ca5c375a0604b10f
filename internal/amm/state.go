package amm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Side names the asset a swap takes as input.
type Side uint8

const (
	SideX Side = iota
	SideY
)

func (s Side) String() string {
	if s == SideY {
		return "y"
	}
	return "x"
}

// ParseSide accepts "x" or "y" in any case.
func ParseSide(input string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "x":
		return SideX, nil
	case "y":
		return SideY, nil
	default:
		return 0, fmt.Errorf("invalid side %q", input)
	}
}

// State is the mutable record of one trading pair.
type State struct {
	Seed        uint64
	MintX       common.Address
	MintY       common.Address
	ReserveX    uint64
	ReserveY    uint64
	ShareSupply uint64
	FeeBps      uint16
	Locked      bool
	Authority   *common.Address
	Precision   uint8
}

// SwapQuote is the outcome of one swap computation.
type SwapQuote struct {
	Side         Side   `json:"side"`
	InputAmount  uint64 `json:"input_amount"`
	OutputAmount uint64 `json:"output_amount"`
	FeeAmount    uint64 `json:"fee_amount"`
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := s
	if s.Authority != nil {
		auth := *s.Authority
		out.Authority = &auth
	}
	return out
}

// Validate checks the invariants every committed state must hold.
func (s State) Validate() error {
	if s.FeeBps > BasisPoints {
		return ErrInvalidFee
	}
	if s.Precision > MaxPrecision {
		return ErrInvalidPrecision
	}
	if s.MintX == s.MintY {
		return ErrInvalidMints
	}
	empty := s.ReserveX == 0 && s.ReserveY == 0
	if (s.ShareSupply == 0) != empty {
		return fmt.Errorf("%w: supply %d with reserves %d/%d", ErrZeroBalance, s.ShareSupply, s.ReserveX, s.ReserveY)
	}
	if !empty && (s.ReserveX == 0 || s.ReserveY == 0) {
		return fmt.Errorf("%w: one-sided reserves %d/%d", ErrZeroBalance, s.ReserveX, s.ReserveY)
	}
	return nil
}

// Reserves returns (reserve_in, reserve_out) for a swap taking side as input.
func (s State) Reserves(side Side) (uint64, uint64) {
	if side == SideY {
		return s.ReserveY, s.ReserveX
	}
	return s.ReserveX, s.ReserveY
}

// EnsureUnlocked reports ErrPoolLocked while the pool is locked.
func (s State) EnsureUnlocked() error {
	if s.Locked {
		return ErrPoolLocked
	}
	return nil
}

// Lock sets the locked flag. Only the configured authority may call it;
// a pool without an authority can never be locked.
func (s *State) Lock(caller common.Address) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	s.Locked = true
	return nil
}

// Unlock clears the locked flag under the same rule as Lock.
func (s *State) Unlock(caller common.Address) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	s.Locked = false
	return nil
}

func (s *State) authorize(caller common.Address) error {
	if s.Authority == nil || *s.Authority != caller {
		return ErrInvalidAuthority
	}
	return nil
}
