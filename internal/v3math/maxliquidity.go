package v3math

import (
	"math/big"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
)

var bigQ96 = new(big.Int).Lsh(big.NewInt(1), 96)

// MaxLiquidityForAmounts returns the largest liquidity that amount0 and amount1 can back
// between sqrtRatioA and sqrtRatioB at the current price. When useFullPrecision is false
// the token0 leg uses the same truncating formula as the periphery router.
func MaxLiquidityForAmounts(sqrtRatioCurrentX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *uint256.Int, useFullPrecision bool) (*uint256.Int, error) {
	if sqrtRatioAX96.Gt(sqrtRatioBX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Eq(sqrtRatioBX96) {
		return nil, model.Validationf("price range is empty")
	}

	current := sqrtRatioCurrentX96.ToBig()
	a := sqrtRatioAX96.ToBig()
	b := sqrtRatioBX96.ToBig()
	amt0 := amount0.ToBig()
	amt1 := amount1.ToBig()

	forAmount0 := maxLiquidityForAmount0Imprecise
	if useFullPrecision {
		forAmount0 = maxLiquidityForAmount0Precise
	}

	var liquidity *big.Int
	switch {
	case current.Cmp(a) <= 0:
		liquidity = forAmount0(a, b, amt0)
	case current.Cmp(b) < 0:
		liquidity0 := forAmount0(current, b, amt0)
		liquidity1 := maxLiquidityForAmount1(a, current, amt1)
		liquidity = liquidity0
		if liquidity1.Cmp(liquidity0) < 0 {
			liquidity = liquidity1
		}
	default:
		liquidity = maxLiquidityForAmount1(a, b, amt1)
	}

	out, overflow := uint256.FromBig(liquidity)
	if overflow {
		return nil, ErrLiquidityOverflow
	}
	return out, nil
}

func maxLiquidityForAmount0Imprecise(a, b, amount0 *big.Int) *big.Int {
	intermediate := new(big.Int).Mul(a, b)
	intermediate.Quo(intermediate, bigQ96)
	out := new(big.Int).Mul(amount0, intermediate)
	return out.Quo(out, new(big.Int).Sub(b, a))
}

func maxLiquidityForAmount0Precise(a, b, amount0 *big.Int) *big.Int {
	numerator := new(big.Int).Mul(amount0, a)
	numerator.Mul(numerator, b)
	denominator := new(big.Int).Mul(bigQ96, new(big.Int).Sub(b, a))
	return numerator.Quo(numerator, denominator)
}

func maxLiquidityForAmount1(a, b, amount1 *big.Int) *big.Int {
	out := new(big.Int).Mul(amount1, bigQ96)
	return out.Quo(out, new(big.Int).Sub(b, a))
}
