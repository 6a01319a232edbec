package v3math

import (
	"github.com/holiman/uint256"

	"poolsim/internal/model"
)

const (
	// MinTick is the lowest tick whose price fits in a Q64.96 sqrt ratio.
	MinTick int32 = -887272
	// MaxTick is the highest tick, -MinTick.
	MaxTick int32 = -MinTick
)

var (
	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")
)

var (
	ErrTickOutOfRange       = model.NewError(model.ErrValidation, "tick out of range")
	ErrSqrtRatioOutOfRange  = model.NewError(model.ErrValidation, "sqrt ratio out of range")
	errZeroPriceOrLiquidity = model.NewError(model.ErrValidation, "price and liquidity must be positive")
)

// sqrtRatioFactors[i] is 2^128 / sqrt(1.0001)^(2^i), used for bit i of |tick|.
var sqrtRatioFactors = [20]*uint256.Int{
	uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
	uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
	uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
	uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
	uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
	uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
	uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
	uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
	uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
	uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
	uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
}

var (
	// log base sqrt(1.0001) of 2, in Q128.
	logSqrt10001Factor = uint256.MustFromDecimal("255738958999603826347141")
	tickLowErrorBound  = uint256.MustFromDecimal("3402992956809132418596140100660247210")
	tickHighErrorBound = uint256.MustFromDecimal("291339464771989622907027621153398088495")
)

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(sqrtRatioFactors[0])
	} else {
		ratio.Lsh(uint256.NewInt(1), 128)
	}
	for i := 1; i < len(sqrtRatioFactors); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, sqrtRatioFactors[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(MaxUint256, ratio)
	}

	// Q128.128 to Q64.96, rounding up so the result is never below the exact ratio.
	roundUp := ratio.Uint64()&0xffffffff != 0
	ratio.Rsh(ratio, 32)
	if roundUp {
		ratio.AddUint64(ratio, 1)
	}
	return ratio, nil
}

// MostSignificantBit returns the index of the highest set bit of x.
func MostSignificantBit(x *uint256.Int) (int, error) {
	if x.IsZero() {
		return 0, model.Validationf("most significant bit of zero")
	}
	return x.BitLen() - 1, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtRatioOutOfRange
	}

	ratio := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	msb, _ := MostSignificantBit(ratio)

	r := new(uint256.Int)
	if msb >= 128 {
		r.Rsh(ratio, uint(msb-127))
	} else {
		r.Lsh(ratio, uint(127-msb))
	}

	// log2 is signed Q64.64 held in two's complement.
	log2 := signedFromInt64(int64(msb - 128))
	log2.Lsh(log2, 64)

	f := new(uint256.Int)
	for i := 0; i < 14; i++ {
		r.Mul(r, r)
		r.Rsh(r, 127)
		f.Rsh(r, 128)
		log2.Or(log2, new(uint256.Int).Lsh(f, uint(63-i)))
		r.Rsh(r, uint(f.Uint64()))
	}

	logSqrt10001 := new(uint256.Int).Mul(log2, logSqrt10001Factor)

	low := new(uint256.Int).Sub(logSqrt10001, tickLowErrorBound)
	high := new(uint256.Int).Add(logSqrt10001, tickHighErrorBound)
	tickLow := int32FromSigned(low.SRsh(low, 128))
	tickHigh := int32FromSigned(high.SRsh(high, 128))

	if tickLow == tickHigh {
		return tickLow, nil
	}
	highRatio, err := GetSqrtRatioAtTick(tickHigh)
	if err != nil {
		return 0, err
	}
	if !highRatio.Gt(sqrtPriceX96) {
		return tickHigh, nil
	}
	return tickLow, nil
}

func signedFromInt64(v int64) *uint256.Int {
	if v >= 0 {
		return uint256.NewInt(uint64(v))
	}
	z := uint256.NewInt(uint64(-v))
	return z.Neg(z)
}

// int32FromSigned reads a small two's complement value.
func int32FromSigned(v *uint256.Int) int32 {
	return int32(int64(v.Uint64()))
}
