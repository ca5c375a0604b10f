package pool

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"
)

var poolKeyPrefix = []byte("amm-pool")

// Key derives the storage key of the pool identified by seed and its
// asset pair. The mint order is significant: (x, y) and (y, x) are
// different pools.
func Key(seed uint64, mintX, mintY common.Address) common.Hash {
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], seed)

	h := blake3.New()
	h.Write(poolKeyPrefix)
	h.Write(seedBytes[:])
	h.Write(mintX.Bytes())
	h.Write(mintY.Bytes())

	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// VaultAddress is the identity that holds a pool's reserves; transfers into
// and out of the pool use it as the counterparty.
func VaultAddress(key common.Hash) common.Address {
	return common.BytesToAddress(key[common.HashLength-common.AddressLength:])
}
