package model

// FeeDenominator is the fee precision: fees are expressed in pips (hundredths of a basis point).
const FeeDenominator = 1_000_000

// Standard fee tiers.
const (
	FeeLowest uint32 = 100
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

var tickSpacings = map[uint32]int32{
	FeeLowest: 1,
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

// TickSpacingForFee returns the tick spacing of a standard fee tier.
func TickSpacingForFee(fee uint32) (int32, bool) {
	spacing, ok := tickSpacings[fee]
	return spacing, ok
}
