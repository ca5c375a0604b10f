package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per pool key so operations on the same
// pool run one at a time while different pools proceed in parallel. An
// entry lives only while some caller holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[common.Hash]*keyedEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[common.Hash]*keyedEntry)}
}

func (k *keyedMutex) Lock(key common.Hash) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

