package v3math

import (
	"math/big"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
)

var (
	ErrLiquidityUnderflow = model.NewError(model.ErrComputation, "liquidity underflow")
	ErrLiquidityOverflow  = model.NewError(model.ErrComputation, "liquidity overflow")
)

// AddDelta applies a signed liquidity delta to an unsigned 128-bit liquidity.
// Negative deltas are subtracted through their magnitude, so the most negative
// int128 never needs to be negated in fixed width.
func AddDelta(x *uint256.Int, y *big.Int) (*uint256.Int, error) {
	if y.Sign() < 0 {
		magnitude, overflow := uint256.FromBig(new(big.Int).Abs(y))
		if overflow || magnitude.Gt(x) {
			return nil, ErrLiquidityUnderflow
		}
		return new(uint256.Int).Sub(x, magnitude), nil
	}

	delta, overflow := uint256.FromBig(y)
	if overflow {
		return nil, ErrLiquidityOverflow
	}
	sum, carry := new(uint256.Int).AddOverflow(x, delta)
	if carry || sum.Gt(MaxUint128) {
		return nil, ErrLiquidityOverflow
	}
	return sum, nil
}
