package position

import (
	"github.com/holiman/uint256"

	"poolsim/internal/pool"
	"poolsim/internal/v3math"
)

// FromAmounts builds the position with the most liquidity amount0 and amount1 can
// back at the pool's price. useFullPrecision selects the exact token0 formula
// instead of the router's truncating one.
func FromAmounts(p *pool.Pool, tickLower, tickUpper int32, amount0, amount1 *uint256.Int, useFullPrecision bool) (*Position, error) {
	sqrtLower, err := v3math.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtUpper, err := v3math.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}
	liquidity, err := v3math.MaxLiquidityForAmounts(p.SqrtPriceX96(), sqrtLower, sqrtUpper, amount0, amount1, useFullPrecision)
	if err != nil {
		return nil, err
	}
	return New(p, tickLower, tickUpper, liquidity)
}

// FromAmount0 builds the position backed by amount0 alone, as if token1 were unlimited.
func FromAmount0(p *pool.Pool, tickLower, tickUpper int32, amount0 *uint256.Int, useFullPrecision bool) (*Position, error) {
	return FromAmounts(p, tickLower, tickUpper, amount0, v3math.MaxUint256, useFullPrecision)
}

// FromAmount1 builds the position backed by amount1 alone, as if token0 were unlimited.
func FromAmount1(p *pool.Pool, tickLower, tickUpper int32, amount1 *uint256.Int) (*Position, error) {
	return FromAmounts(p, tickLower, tickUpper, v3math.MaxUint256, amount1, true)
}
