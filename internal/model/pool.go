package model

// Pool is the persisted form of one pool's state. Amounts are decimal
// strings so the full uint64 range survives JSON and NUMERIC columns.
type Pool struct {
	Key         string `json:"key"`
	Seed        uint64 `json:"seed"`
	MintX       string `json:"mint_x"`
	MintY       string `json:"mint_y"`
	Authority   string `json:"authority,omitempty"`
	ReserveX    string `json:"reserve_x"`
	ReserveY    string `json:"reserve_y"`
	ShareSupply string `json:"share_supply"`
	FeeBps      uint16 `json:"fee_bps"`
	Locked      bool   `json:"locked"`
	Precision   uint8  `json:"precision"`
	UpdatedAt   string `json:"updated_at"`
}
