package model

const (
	EntryTransfer = "transfer"
	EntryMint     = "mint"
	EntryBurn     = "burn"
)

// JournalEntry records one settlement instruction issued after a commit.
type JournalEntry struct {
	PoolKey   string `json:"pool_key"`
	Operation string `json:"operation"`
	Kind      string `json:"kind"`
	Asset     string `json:"asset"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}
