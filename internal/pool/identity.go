package pool

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseIdentity converts a hex string into an address.
func ParseIdentity(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseOptionalIdentity returns nil for an empty input.
func ParseOptionalIdentity(input string) (*common.Address, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	addr, err := ParseIdentity(input)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
