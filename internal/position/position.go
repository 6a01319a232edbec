// Package position values a liquidity position over a tick range of a pool.
package position

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/pool"
	"poolsim/internal/v3math"
)

// Position is liquidity provided in [TickLower, TickUpper).
type Position struct {
	pool      *pool.Pool
	tickLower int32
	tickUpper int32
	liquidity *uint256.Int

	// Memoized; pool and range are fixed after New.
	value func() (*uint256.Int, *uint256.Int, error)
	mint  func() (*uint256.Int, *uint256.Int, error)
}

// New validates the range against the pool's tick spacing.
func New(p *pool.Pool, tickLower, tickUpper int32, liquidity *uint256.Int) (*Position, error) {
	if p == nil {
		return nil, model.Validationf("position: pool is required")
	}
	if tickLower >= tickUpper {
		return nil, model.Validationf(fmt.Sprintf("position: tick lower %d must be below tick upper %d", tickLower, tickUpper))
	}
	if tickLower < v3math.MinTick || tickLower%p.TickSpacing() != 0 {
		return nil, model.Validationf(fmt.Sprintf("position: invalid tick lower %d", tickLower))
	}
	if tickUpper > v3math.MaxTick || tickUpper%p.TickSpacing() != 0 {
		return nil, model.Validationf(fmt.Sprintf("position: invalid tick upper %d", tickUpper))
	}
	if liquidity == nil {
		liquidity = new(uint256.Int)
	}
	if liquidity.Gt(v3math.MaxUint128) {
		return nil, model.Validationf("position: liquidity exceeds 128 bits")
	}
	pos := &Position{pool: p, tickLower: tickLower, tickUpper: tickUpper, liquidity: liquidity.Clone()}
	pos.value = onceValues3(func() (*uint256.Int, *uint256.Int, error) {
		return pos.amounts(pos.pool, pos.liquidity, false)
	})
	pos.mint = onceValues3(func() (*uint256.Int, *uint256.Int, error) {
		return pos.amounts(pos.pool, pos.liquidity, true)
	})
	return pos, nil
}

// onceValues3 memoizes a three-result function; sync.OnceValues only supports two.
func onceValues3(f func() (*uint256.Int, *uint256.Int, error)) func() (*uint256.Int, *uint256.Int, error) {
	var (
		once sync.Once
		a, b *uint256.Int
		err  error
	)
	return func() (*uint256.Int, *uint256.Int, error) {
		once.Do(func() { a, b, err = f() })
		return a, b, err
	}
}

func (p *Position) Pool() *pool.Pool        { return p.pool }
func (p *Position) TickLower() int32        { return p.tickLower }
func (p *Position) TickUpper() int32        { return p.tickUpper }
func (p *Position) Liquidity() *uint256.Int { return p.liquidity.Clone() }

// Token0PriceLower is the price of token0 at the lower tick.
func (p *Position) Token0PriceLower() (model.Price, error) {
	return v3math.TickToPrice(p.pool.Token0(), p.pool.Token1(), p.tickLower)
}

// Token0PriceUpper is the price of token0 at the upper tick.
func (p *Position) Token0PriceUpper() (model.Price, error) {
	return v3math.TickToPrice(p.pool.Token0(), p.pool.Token1(), p.tickUpper)
}

// Amount0 is the token0 value of the position at the pool's price, rounded down.
func (p *Position) Amount0() (model.CurrencyAmount, error) {
	raw, _, err := p.value()
	if err != nil {
		return model.CurrencyAmount{}, err
	}
	return model.NewAmount(p.pool.Token0(), raw), nil
}

// Amount1 is the token1 value of the position at the pool's price, rounded down.
func (p *Position) Amount1() (model.CurrencyAmount, error) {
	_, raw, err := p.value()
	if err != nil {
		return model.CurrencyAmount{}, err
	}
	return model.NewAmount(p.pool.Token1(), raw), nil
}

// MintAmounts are the amounts needed to mint the position's liquidity, rounded up.
func (p *Position) MintAmounts() (amount0, amount1 *uint256.Int, err error) {
	amount0, amount1, err = p.mint()
	if err != nil {
		return nil, nil, err
	}
	return amount0.Clone(), amount1.Clone(), nil
}

// amounts evaluates liquidity in the position's range against the price of at.
func (p *Position) amounts(at *pool.Pool, liquidity *uint256.Int, roundUp bool) (*uint256.Int, *uint256.Int, error) {
	sqrtLower, err := v3math.GetSqrtRatioAtTick(p.tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := v3math.GetSqrtRatioAtTick(p.tickUpper)
	if err != nil {
		return nil, nil, err
	}

	switch tick := at.TickCurrent(); {
	case tick < p.tickLower:
		amount0, err := v3math.GetAmount0Delta(sqrtLower, sqrtUpper, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return amount0, new(uint256.Int), nil
	case tick < p.tickUpper:
		current := at.SqrtPriceX96()
		amount0, err := v3math.GetAmount0Delta(current, sqrtUpper, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		amount1, err := v3math.GetAmount1Delta(sqrtLower, current, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return amount0, amount1, nil
	default:
		amount1, err := v3math.GetAmount1Delta(sqrtLower, sqrtUpper, liquidity, roundUp)
		if err != nil {
			return nil, nil, err
		}
		return new(uint256.Int), amount1, nil
	}
}
