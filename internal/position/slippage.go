package position

import (
	"fmt"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/pool"
	"poolsim/internal/v3math"
)

// MintAmountsWithSlippage returns the amounts to mint with so that the mint succeeds
// for any pool price within tolerance of the current one.
func (p *Position) MintAmountsWithSlippage(tolerance model.Percent) (amount0, amount1 *uint256.Int, err error) {
	poolLower, poolUpper, err := p.slippagePools(tolerance)
	if err != nil {
		return nil, nil, err
	}

	mint0, mint1, err := p.MintAmounts()
	if err != nil {
		return nil, nil, err
	}
	created, err := FromAmounts(p.pool, p.tickLower, p.tickUpper, mint0, mint1, false)
	if err != nil {
		return nil, nil, fmt.Errorf("liquidity for mint amounts: %w", err)
	}

	if amount0, _, err = p.amounts(poolUpper, created.liquidity, true); err != nil {
		return nil, nil, err
	}
	if _, amount1, err = p.amounts(poolLower, created.liquidity, true); err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// BurnAmountsWithSlippage returns the minimum amounts received for burning the whole
// position at any pool price within tolerance of the current one.
func (p *Position) BurnAmountsWithSlippage(tolerance model.Percent) (amount0, amount1 *uint256.Int, err error) {
	poolLower, poolUpper, err := p.slippagePools(tolerance)
	if err != nil {
		return nil, nil, err
	}
	if amount0, _, err = p.amounts(poolUpper, p.liquidity, false); err != nil {
		return nil, nil, err
	}
	if _, amount1, err = p.amounts(poolLower, p.liquidity, false); err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// slippagePools prices the pool at price*(1-tolerance) and price*(1+tolerance),
// clamped inside the sqrt ratio bounds.
func (p *Position) slippagePools(tolerance model.Percent) (lower, upper *pool.Pool, err error) {
	if tolerance.Sign() < 0 {
		return nil, nil, model.Validationf("slippage tolerance must not be negative")
	}
	one := model.FractionFromInt64(1)
	price := p.pool.Token0Price().Raw()

	sqrtLower := new(uint256.Int).AddUint64(v3math.MinSqrtRatio, 1)
	if priceLower := price.Mul(one.Sub(tolerance.Fraction)); priceLower.Sign() > 0 {
		encoded, err := v3math.EncodeSqrtRatioX96(priceLower.Numerator(), priceLower.Denominator())
		if err != nil {
			return nil, nil, err
		}
		if encoded.Gt(sqrtLower) {
			sqrtLower = encoded
		}
	}

	sqrtUpper := new(uint256.Int).SubUint64(v3math.MaxSqrtRatio, 1)
	priceUpper := price.Mul(one.Add(tolerance.Fraction))
	encoded, err := v3math.EncodeSqrtRatioX96(priceUpper.Numerator(), priceUpper.Denominator())
	if err == nil && encoded.Lt(sqrtUpper) {
		sqrtUpper = encoded
	}

	if lower, err = p.counterfactual(sqrtLower); err != nil {
		return nil, nil, err
	}
	if upper, err = p.counterfactual(sqrtUpper); err != nil {
		return nil, nil, err
	}
	return lower, upper, nil
}

// counterfactual is the position's pool moved to another price. Liquidity is irrelevant.
func (p *Position) counterfactual(sqrtPriceX96 *uint256.Int) (*pool.Pool, error) {
	tick, err := v3math.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return nil, err
	}
	return pool.New(pool.Params{
		TokenA:       p.pool.Token0(),
		TokenB:       p.pool.Token1(),
		Fee:          p.pool.Fee(),
		TickSpacing:  p.pool.TickSpacing(),
		SqrtPriceX96: sqrtPriceX96,
		TickCurrent:  tick,
		Address:      p.pool.Address(),
	})
}
