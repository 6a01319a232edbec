package v3math

import (
	"math/big"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
)

// EncodeSqrtRatioX96 returns floor(sqrt(amount1/amount0) * 2^96).
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) (*uint256.Int, error) {
	if amount0.Sign() <= 0 || amount1.Sign() < 0 {
		return nil, model.Validationf("encode sqrt ratio: amounts must be positive")
	}
	ratioX192 := new(big.Int).Lsh(amount1, 192)
	ratioX192.Quo(ratioX192, amount0)
	sqrt, overflow := uint256.FromBig(ratioX192.Sqrt(ratioX192))
	if overflow {
		return nil, model.ErrOverflow
	}
	return sqrt, nil
}

// TickToPrice returns the price of base in quote at a tick.
func TickToPrice(base, quote model.Token, tick int32) (model.Price, error) {
	sqrtRatioX96, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return model.Price{}, err
	}
	sqrt := sqrtRatioX96.ToBig()
	ratioX192 := new(big.Int).Mul(sqrt, sqrt)
	q192 := Q192.ToBig()

	before, err := base.SortsBefore(quote)
	if err != nil {
		return model.Price{}, err
	}
	if before {
		return model.NewPrice(base, quote, q192, ratioX192)
	}
	return model.NewPrice(base, quote, ratioX192, q192)
}

// PriceToClosestTick returns the tick whose price is closest to price without passing it.
func PriceToClosestTick(price model.Price) (int32, error) {
	before, err := price.Base.SortsBefore(price.Quote)
	if err != nil {
		return 0, err
	}
	raw := price.Raw()

	var sqrtRatioX96 *uint256.Int
	if before {
		sqrtRatioX96, err = EncodeSqrtRatioX96(raw.Numerator(), raw.Denominator())
	} else {
		sqrtRatioX96, err = EncodeSqrtRatioX96(raw.Denominator(), raw.Numerator())
	}
	if err != nil {
		return 0, err
	}

	tick, err := GetTickAtSqrtRatio(sqrtRatioX96)
	if err != nil {
		return 0, err
	}
	if tick == MaxTick {
		return tick, nil
	}
	next, err := TickToPrice(price.Base, price.Quote, tick+1)
	if err != nil {
		return 0, err
	}
	cmp := raw.Cmp(next.Raw())
	if (before && cmp >= 0) || (!before && cmp <= 0) {
		tick++
	}
	return tick, nil
}

// NearestUsableTick rounds tick to the nearest multiple of tickSpacing inside the tick bounds.
func NearestUsableTick(tick, tickSpacing int32) (int32, error) {
	if tickSpacing <= 0 {
		return 0, model.Validationf("tick spacing must be positive")
	}
	if tick < MinTick || tick > MaxTick {
		return 0, ErrTickOutOfRange
	}
	// round half toward positive infinity
	rounded := FloorDiv(2*tick+tickSpacing, 2*tickSpacing) * tickSpacing
	if rounded < MinTick {
		return rounded + tickSpacing, nil
	}
	if rounded > MaxTick {
		return rounded - tickSpacing, nil
	}
	return rounded, nil
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
