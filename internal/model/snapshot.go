package model

// PoolSnapshot is the state of a V3 pool at a block, as read from chain.
// Big integers are encoded as base-10 strings.
type PoolSnapshot struct {
	ChainID     uint64       `json:"chain_id"`
	Address     string       `json:"address"`
	BlockNumber uint64       `json:"block_number"`
	Token0      TokenMeta    `json:"token0"`
	Token1      TokenMeta    `json:"token1"`
	Fee         uint32       `json:"fee"`
	TickSpacing int32        `json:"tick_spacing"`
	Slot0       PoolSlot0    `json:"slot0"`
	Liquidity   string       `json:"liquidity"`
	Ticks       []TickRecord `json:"ticks,omitempty"`
	// TicksComplete is set when Ticks holds every initialized tick of the pool.
	TicksComplete bool `json:"ticks_complete"`
}

// PoolSlot0 includes select slot0 fields.
type PoolSlot0 struct {
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
}

// TickRecord is one initialized tick.
type TickRecord struct {
	Index          int32  `json:"index"`
	LiquidityGross string `json:"liquidity_gross"`
	LiquidityNet   string `json:"liquidity_net"`
}
