package v3math

import (
	"github.com/holiman/uint256"

	"poolsim/internal/model"
)

var feeDenominator = uint256.NewInt(model.FeeDenominator)

// SwapStep is the result of swapping within a single tick range.
type SwapStep struct {
	SqrtRatioNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep swaps from the current price toward the target price, consuming at most
// amountRemaining (input when exactIn, output otherwise). The direction follows from the
// relative order of the two prices.
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int, exactIn bool, feePips uint32) (SwapStep, error) {
	if feePips >= model.FeeDenominator {
		return SwapStep{}, model.Validationf("fee must be below 1000000 pips")
	}
	zeroForOne := !sqrtRatioCurrentX96.Lt(sqrtRatioTargetX96)
	feeComplement := uint256.NewInt(uint64(model.FeeDenominator - feePips))

	var (
		next      *uint256.Int
		amountIn  *uint256.Int
		amountOut *uint256.Int
		err       error
	)

	if exactIn {
		var remainingLessFee *uint256.Int
		remainingLessFee, err = MulDiv(amountRemaining, feeComplement, feeDenominator)
		if err != nil {
			return SwapStep{}, err
		}
		if zeroForOne {
			amountIn, err = GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn, err = GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return SwapStep{}, err
		}
		if !remainingLessFee.Lt(amountIn) {
			next = sqrtRatioTargetX96.Clone()
		} else {
			next, err = GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		if zeroForOne {
			amountOut, err = GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			amountOut, err = GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return SwapStep{}, err
		}
		if !amountRemaining.Lt(amountOut) {
			next = sqrtRatioTargetX96.Clone()
		} else {
			next, err = GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	}

	reachedTarget := sqrtRatioTargetX96.Eq(next)

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			if amountIn, err = GetAmount0Delta(next, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return SwapStep{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			if amountOut, err = GetAmount1Delta(next, sqrtRatioCurrentX96, liquidity, false); err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		if !(reachedTarget && exactIn) {
			if amountIn, err = GetAmount1Delta(sqrtRatioCurrentX96, next, liquidity, true); err != nil {
				return SwapStep{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			if amountOut, err = GetAmount0Delta(sqrtRatioCurrentX96, next, liquidity, false); err != nil {
				return SwapStep{}, err
			}
		}
	}

	// the output can never exceed what was asked for
	if !exactIn && amountOut.Gt(amountRemaining) {
		amountOut = amountRemaining.Clone()
	}

	var feeAmount *uint256.Int
	if exactIn && !next.Eq(sqrtRatioTargetX96) {
		// the target was not reached, so the whole remainder beyond amountIn is fee
		var underflow bool
		feeAmount, underflow = new(uint256.Int).SubOverflow(amountRemaining, amountIn)
		if underflow {
			return SwapStep{}, model.ErrOverflow
		}
	} else {
		feeAmount, err = MulDivRoundingUp(amountIn, uint256.NewInt(uint64(feePips)), feeComplement)
		if err != nil {
			return SwapStep{}, err
		}
	}

	return SwapStep{
		SqrtRatioNextX96: next,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
	}, nil
}
