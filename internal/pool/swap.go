package pool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/v3math"
)

// SwapResult is the outcome of running the swap state machine.
type SwapResult struct {
	// AmountCalculated is the output for exact input swaps and the input for exact output swaps.
	AmountCalculated *uint256.Int
	// AmountRemaining is the part of the specified amount the pool could not fill.
	AmountRemaining *uint256.Int
	SqrtPriceX96    *uint256.Int
	Liquidity       *uint256.Int
	TickCurrent     int32
}

type swapState struct {
	amountRemaining  *uint256.Int
	amountCalculated *uint256.Int
	sqrtPriceX96     *uint256.Int
	tick             int32
	liquidity        *uint256.Int
}

// GetOutputAmount quotes the output for an exact input amount and returns the pool after the swap.
// A nil limit lets the price move until the input is consumed.
func (p *Pool) GetOutputAmount(ctx context.Context, amountIn model.CurrencyAmount, sqrtPriceLimitX96 *uint256.Int) (model.CurrencyAmount, *Pool, error) {
	if !p.InvolvesToken(amountIn.Currency) {
		return model.CurrencyAmount{}, nil, model.Validationf("input token is not in pool")
	}
	zeroForOne := amountIn.Currency.Equals(p.token0)
	res, err := p.Swap(ctx, zeroForOne, amountIn.Raw, true, sqrtPriceLimitX96)
	if err != nil {
		return model.CurrencyAmount{}, nil, err
	}
	if res.AmountCalculated.IsZero() {
		return model.CurrencyAmount{}, nil, model.ErrInsufficientInputAmount
	}
	outputToken := p.token1
	if !zeroForOne {
		outputToken = p.token0
	}
	return model.NewAmount(outputToken, res.AmountCalculated), p.withState(res.SqrtPriceX96, res.Liquidity, res.TickCurrent), nil
}

// GetInputAmount quotes the input needed for an exact output amount and returns the pool after the swap.
func (p *Pool) GetInputAmount(ctx context.Context, amountOut model.CurrencyAmount, sqrtPriceLimitX96 *uint256.Int) (model.CurrencyAmount, *Pool, error) {
	if !p.InvolvesToken(amountOut.Currency) {
		return model.CurrencyAmount{}, nil, model.Validationf("output token is not in pool")
	}
	zeroForOne := amountOut.Currency.Equals(p.token1)
	res, err := p.Swap(ctx, zeroForOne, amountOut.Raw, false, sqrtPriceLimitX96)
	if err != nil {
		return model.CurrencyAmount{}, nil, err
	}
	inputToken := p.token0
	if !zeroForOne {
		inputToken = p.token1
	}
	return model.NewAmount(inputToken, res.AmountCalculated), p.withState(res.SqrtPriceX96, res.Liquidity, res.TickCurrent), nil
}

// Swap runs the swap state machine. amount is the exact input when exactInput is set
// and the exact output otherwise. Without a limit, an amount the pool cannot fill
// fails with model.ErrInsufficientLiquidity; with a limit the swap stops at the limit
// and reports the unfilled part in AmountRemaining.
func (p *Pool) Swap(ctx context.Context, zeroForOne bool, amount *uint256.Int, exactInput bool, sqrtPriceLimitX96 *uint256.Int) (SwapResult, error) {
	if amount == nil || amount.IsZero() {
		return SwapResult{}, model.Validationf("swap amount must be positive")
	}
	limit, err := p.priceLimit(zeroForOne, sqrtPriceLimitX96)
	if err != nil {
		return SwapResult{}, err
	}

	state := swapState{
		amountRemaining:  amount.Clone(),
		amountCalculated: new(uint256.Int),
		sqrtPriceX96:     p.sqrtRatioX96.Clone(),
		tick:             p.tickCurrent,
		liquidity:        p.liquidity.Clone(),
	}

	for !state.amountRemaining.IsZero() && !state.sqrtPriceX96.Eq(limit) {
		if err := ctx.Err(); err != nil {
			return SwapResult{}, err
		}
		if err := p.step(ctx, &state, zeroForOne, exactInput, limit); err != nil {
			return SwapResult{}, err
		}
	}

	if sqrtPriceLimitX96 == nil && !state.amountRemaining.IsZero() {
		return SwapResult{}, model.ErrInsufficientLiquidity
	}
	return SwapResult{
		AmountCalculated: state.amountCalculated,
		AmountRemaining:  state.amountRemaining,
		SqrtPriceX96:     state.sqrtPriceX96,
		Liquidity:        state.liquidity,
		TickCurrent:      state.tick,
	}, nil
}

func (p *Pool) step(ctx context.Context, state *swapState, zeroForOne, exactInput bool, limit *uint256.Int) error {
	sqrtPriceStartX96 := state.sqrtPriceX96

	tickNext, initialized, err := p.ticks.NextInitializedTickWithinOneWord(ctx, state.tick, zeroForOne, p.tickSpacing)
	if err != nil {
		return fmt.Errorf("next initialized tick from %d: %w", state.tick, err)
	}
	if tickNext < v3math.MinTick {
		tickNext = v3math.MinTick
	} else if tickNext > v3math.MaxTick {
		tickNext = v3math.MaxTick
	}
	sqrtPriceNextX96, err := v3math.GetSqrtRatioAtTick(tickNext)
	if err != nil {
		return err
	}

	target := sqrtPriceNextX96
	if (zeroForOne && sqrtPriceNextX96.Lt(limit)) || (!zeroForOne && sqrtPriceNextX96.Gt(limit)) {
		target = limit
	}

	s, err := v3math.ComputeSwapStep(state.sqrtPriceX96, target, state.liquidity, state.amountRemaining, exactInput, p.fee)
	if err != nil {
		return err
	}
	state.sqrtPriceX96 = s.SqrtRatioNextX96

	if exactInput {
		consumed, overflow := new(uint256.Int).AddOverflow(s.AmountIn, s.FeeAmount)
		if overflow || consumed.Gt(state.amountRemaining) {
			return model.ErrOverflow
		}
		state.amountRemaining = new(uint256.Int).Sub(state.amountRemaining, consumed)
		if state.amountCalculated, overflow = new(uint256.Int).AddOverflow(state.amountCalculated, s.AmountOut); overflow {
			return model.ErrOverflow
		}
	} else {
		if s.AmountOut.Gt(state.amountRemaining) {
			return model.ErrOverflow
		}
		state.amountRemaining = new(uint256.Int).Sub(state.amountRemaining, s.AmountOut)
		consumed, overflow := new(uint256.Int).AddOverflow(s.AmountIn, s.FeeAmount)
		if overflow {
			return model.ErrOverflow
		}
		if state.amountCalculated, overflow = new(uint256.Int).AddOverflow(state.amountCalculated, consumed); overflow {
			return model.ErrOverflow
		}
	}

	switch {
	case state.sqrtPriceX96.Eq(sqrtPriceNextX96):
		if initialized {
			tick, err := p.ticks.GetTick(ctx, tickNext)
			if err != nil {
				return fmt.Errorf("cross tick %d: %w", tickNext, err)
			}
			liquidityNet := tick.LiquidityNet
			if zeroForOne {
				liquidityNet = new(big.Int).Neg(liquidityNet)
			}
			if state.liquidity, err = v3math.AddDelta(state.liquidity, liquidityNet); err != nil {
				return fmt.Errorf("cross tick %d: %w", tickNext, err)
			}
		}
		if zeroForOne {
			state.tick = tickNext - 1
		} else {
			state.tick = tickNext
		}
	case !state.sqrtPriceX96.Eq(sqrtPriceStartX96):
		if state.tick, err = v3math.GetTickAtSqrtRatio(state.sqrtPriceX96); err != nil {
			return err
		}
	}
	return nil
}

// priceLimit validates an explicit limit or returns the directional default.
func (p *Pool) priceLimit(zeroForOne bool, limit *uint256.Int) (*uint256.Int, error) {
	if limit == nil {
		if zeroForOne {
			return new(uint256.Int).AddUint64(v3math.MinSqrtRatio, 1), nil
		}
		return new(uint256.Int).SubUint64(v3math.MaxSqrtRatio, 1), nil
	}
	if zeroForOne {
		if !limit.Gt(v3math.MinSqrtRatio) {
			return nil, model.ErrPriceLimitOutOfRange
		}
		if !limit.Lt(p.sqrtRatioX96) {
			return nil, model.ErrPriceLimitPastCurrent
		}
		return limit, nil
	}
	if !limit.Lt(v3math.MaxSqrtRatio) {
		return nil, model.ErrPriceLimitOutOfRange
	}
	if !limit.Gt(p.sqrtRatioX96) {
		return nil, model.ErrPriceLimitPastCurrent
	}
	return limit, nil
}
